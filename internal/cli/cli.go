// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BlakeFelix/tree-updater/internal/config"
	"github.com/BlakeFelix/tree-updater/internal/filter"
	"github.com/BlakeFelix/tree-updater/internal/scan"
	"github.com/BlakeFelix/tree-updater/internal/services/clipboard"
	"github.com/BlakeFelix/tree-updater/internal/snapshot"
	"github.com/BlakeFelix/tree-updater/internal/utils"
)

const (
	rootUse              = "treeupdater"
	rootShortDescription = "treeupdater writes filtered project tree snapshots"
	rootLongDescription  = `treeupdater scans one or more directory roots, renders a filtered
tree listing as Markdown or nested JSON, and persists it as a versioned
snapshot with rolling backups and change diffs.
Roots are scanned in parallel; output order always follows the configured
root order.`

	rootsFlagName         = "roots"
	outFlagName           = "out"
	jsonFlagName          = "json"
	gitignoreFlagName     = "gitignore"
	configFlagName        = "config"
	skipUnchangedFlagName = "skip-unchanged"
	includeFlagName       = "include"
	excludeFlagName       = "exclude"
	depthFlagName         = "depth"
	backupsFlagName       = "backups"
	noDefaultExcludesFlag = "no-default-excludes"
	clipboardFlagName     = "clipboard"
	verboseFlagName       = "verbose"
	versionFlagName       = "version"

	rootsFlagDescription   = "directories to scan"
	outFlagDescription     = "snapshot output path"
	jsonFlagDescription    = "write nested JSON instead of Markdown"
	gitignoreDescription   = "apply each root's .gitignore patterns"
	configFlagDescription  = "config file path (YAML or any viper-supported format)"
	skipUnchangedDesc      = "do not rewrite the snapshot when content is unchanged"
	includeFlagDescription = "file patterns to include (extension shorthand allowed)"
	excludeFlagDescription = "glob patterns to exclude"
	depthFlagDescription   = "descent levels per root, 0 for unbounded"
	backupsFlagDescription = "number of rotated backups to retain"
	noDefaultExcludesDesc  = "do not exclude common project directories like .git or node_modules"
	clipboardDescription   = "copy the rendered snapshot to the system clipboard"
	verboseFlagDescription = "enable debug logging"
	versionFlagDescription = "display application version"

	rootUsageExample = `  # Snapshot two roots, Markdown output, honoring .gitignore
  treeupdater --roots src --roots docs --out tree.md --gitignore

  # Unbounded JSON snapshot of Python sources only
  treeupdater --roots . --include py --depth 0 --json --out tree.json`

	versionTemplate         = "treeupdater version: %s\n"
	partialFailureWarnText  = "root scan failed, continuing with remaining roots"
	clipboardWarnText       = "copying snapshot to clipboard failed"
	unchangedMessage        = "no change"
	gitignoreLoadWarnFormat = "loading .gitignore for %s: %v"
)

// flagValues collects raw flag storage for one invocation.
type flagValues struct {
	roots             []string
	out               string
	jsonOutput        bool
	useGitignore      bool
	configFilePath    string
	skipUnchanged     bool
	includePatterns   []string
	excludePatterns   []string
	depth             int
	backups           int
	noDefaultExcludes bool
	copyToClipboard   bool
	verbose           bool
	showVersion       bool
}

// Execute runs the treeupdater application.
func Execute(logger *zap.Logger) error {
	rootCommand := createRootCommand(logger)
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(logger *zap.Logger) *cobra.Command {
	values := &flagValues{}

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if values.showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			return runSnapshot(command, values, logger)
		},
	}

	commandFlags := rootCommand.Flags()
	commandFlags.StringSliceVar(&values.roots, rootsFlagName, nil, rootsFlagDescription)
	commandFlags.StringVar(&values.out, outFlagName, config.DefaultOutPath, outFlagDescription)
	commandFlags.BoolVar(&values.jsonOutput, jsonFlagName, false, jsonFlagDescription)
	commandFlags.BoolVar(&values.useGitignore, gitignoreFlagName, false, gitignoreDescription)
	commandFlags.StringVar(&values.configFilePath, configFlagName, "", configFlagDescription)
	commandFlags.BoolVar(&values.skipUnchanged, skipUnchangedFlagName, false, skipUnchangedDesc)
	commandFlags.StringSliceVar(&values.includePatterns, includeFlagName, nil, includeFlagDescription)
	commandFlags.StringSliceVar(&values.excludePatterns, excludeFlagName, nil, excludeFlagDescription)
	commandFlags.IntVar(&values.depth, depthFlagName, config.DefaultDepth, depthFlagDescription)
	commandFlags.IntVar(&values.backups, backupsFlagName, config.DefaultBackupCount, backupsFlagDescription)
	commandFlags.BoolVar(&values.noDefaultExcludes, noDefaultExcludesFlag, false, noDefaultExcludesDesc)
	commandFlags.BoolVar(&values.copyToClipboard, clipboardFlagName, false, clipboardDescription)
	commandFlags.BoolVar(&values.verbose, verboseFlagName, false, verboseFlagDescription)
	commandFlags.BoolVar(&values.showVersion, versionFlagName, false, versionFlagDescription)

	return rootCommand
}

// buildOverrides converts explicitly set flags into config overrides.
// A flag the user did not touch stays nil so file values and defaults
// fall through.
func buildOverrides(command *cobra.Command, values *flagValues) config.Overrides {
	overrides := config.Overrides{}
	commandFlags := command.Flags()
	if commandFlags.Changed(rootsFlagName) {
		overrides.Roots = &values.roots
	}
	if commandFlags.Changed(outFlagName) {
		overrides.Out = &values.out
	}
	if commandFlags.Changed(jsonFlagName) {
		overrides.JSON = &values.jsonOutput
	}
	if commandFlags.Changed(gitignoreFlagName) {
		overrides.Gitignore = &values.useGitignore
	}
	if commandFlags.Changed(skipUnchangedFlagName) {
		overrides.SkipUnchanged = &values.skipUnchanged
	}
	if commandFlags.Changed(includeFlagName) {
		overrides.Include = &values.includePatterns
	}
	if commandFlags.Changed(excludeFlagName) {
		overrides.Exclude = &values.excludePatterns
	}
	if commandFlags.Changed(depthFlagName) {
		overrides.Depth = &values.depth
	}
	if commandFlags.Changed(backupsFlagName) {
		overrides.Backups = &values.backups
	}
	if commandFlags.Changed(noDefaultExcludesFlag) {
		enableDefaults := !values.noDefaultExcludes
		overrides.DefaultExcludes = &enableDefaults
	}
	return overrides
}

// runSnapshot executes the full pipeline: resolve configuration, scan
// all roots in parallel, and commit the rendered snapshot.
func runSnapshot(command *cobra.Command, values *flagValues, logger *zap.Logger) error {
	fileConfig, loadError := config.LoadFile(values.configFilePath)
	if loadError != nil {
		return loadError
	}
	resolvedConfig, mergeError := config.Merge(fileConfig, buildOverrides(command, values))
	if mergeError != nil {
		return mergeError
	}

	rootSpecs := make([]scan.RootSpec, 0, len(resolvedConfig.Roots))
	for _, rootPath := range resolvedConfig.Roots {
		rootFilter, filterError := buildRootFilter(rootPath, resolvedConfig, logger)
		if filterError != nil {
			return filterError
		}
		rootSpecs = append(rootSpecs, scan.RootSpec{
			Path:   rootPath,
			Filter: rootFilter,
		})
	}

	runner := scan.NewRunner(logger)
	forest, runError := runner.Run(context.Background(), rootSpecs, resolvedConfig.Depth)
	if runError != nil {
		return runError
	}
	for _, failedRoot := range forest.FailedRoots() {
		logger.Warn(partialFailureWarnText, zap.String("root", failedRoot))
	}

	manager := snapshot.NewManager(snapshot.Options{
		OutPath:       resolvedConfig.OutPath,
		BackupCount:   resolvedConfig.BackupCount,
		SkipUnchanged: resolvedConfig.SkipUnchanged,
	}, logger)
	result, commitError := manager.Commit(forest, resolvedConfig.OutputFormat(), time.Now())
	if commitError != nil {
		return commitError
	}
	if result.Unchanged {
		logger.Info(unchangedMessage, zap.String("path", result.OutPath))
		return nil
	}

	if values.copyToClipboard {
		snapshotData, readError := os.ReadFile(result.OutPath)
		if readError == nil {
			if copyError := clipboard.NewService().Copy(string(snapshotData)); copyError != nil {
				logger.Warn(clipboardWarnText, zap.Error(copyError))
			}
		}
	}
	return nil
}

// buildRootFilter resolves the PathFilter for a single root, compiling
// the root's .gitignore when requested. A missing or unreadable
// .gitignore degrades to no gitignore matching for that root; a
// malformed include or exclude pattern is an error.
func buildRootFilter(rootPath string, resolvedConfig config.Config, logger *zap.Logger) (*filter.PathFilter, error) {
	var ignoreMatcher filter.IgnoreMatcher
	if resolvedConfig.UseGitignore {
		gitignorePath := filepath.Join(rootPath, utils.GitIgnoreFileName)
		if _, statError := os.Stat(gitignorePath); statError == nil {
			compiledMatcher, compileError := ignore.CompileIgnoreFile(gitignorePath)
			if compileError != nil {
				logger.Warn(fmt.Sprintf(gitignoreLoadWarnFormat, rootPath, compileError))
			} else {
				ignoreMatcher = compiledMatcher
			}
		}
	}
	return filter.New(resolvedConfig.Include, resolvedConfig.EffectiveExcludes(), ignoreMatcher)
}
