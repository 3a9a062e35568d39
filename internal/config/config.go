// Package config resolves the effective snapshot configuration from
// built-in defaults, an optional config file, and explicit command
// line overrides, in strictly increasing precedence.
package config

import (
	"fmt"

	"github.com/BlakeFelix/tree-updater/internal/types"
	"github.com/BlakeFelix/tree-updater/internal/utils"
)

// DepthUnbounded disables the depth limit when set as Config.Depth.
const DepthUnbounded = 0

// Built-in defaults, matching the tool's historical behavior.
const (
	DefaultDepth       = 2
	DefaultOutPath     = "tree_snapshot.md"
	DefaultBackupCount = 10
)

// DefaultIncludeExtensions is the built-in include set used when
// neither the config file nor the command line provides one.
var DefaultIncludeExtensions = []string{"py", "md", "txt", "json", "yaml", "yml"}

// DefaultExcludeNames lists directories excluded unless default
// excludes are disabled.
var DefaultExcludeNames = []string{"__pycache__", ".git", ".hg", ".svn", "venv", ".venv", "node_modules"}

// Error reports malformed or contradictory configuration. It is fatal;
// no partial output is produced.
type Error struct {
	Reason string
}

// Error implements the error interface.
func (configError *Error) Error() string {
	return "invalid configuration: " + configError.Reason
}

// Config is the resolved, immutable configuration for one pipeline run.
type Config struct {
	Roots           []string
	Include         []string
	Exclude         []string
	Depth           int
	OutPath         string
	JSON            bool
	UseGitignore    bool
	SkipUnchanged   bool
	BackupCount     int
	DefaultExcludes bool
}

// OutputFormat maps the JSON toggle to a renderer format name.
func (config Config) OutputFormat() string {
	if config.JSON {
		return types.FormatJSON
	}
	return types.FormatMarkdown
}

// EffectiveExcludes returns the configured exclude patterns, extended
// with the built-in exclude names unless default excludes are disabled.
func (config Config) EffectiveExcludes() []string {
	excludePatterns := append([]string{}, config.Exclude...)
	if config.DefaultExcludes {
		excludePatterns = append(excludePatterns, DefaultExcludeNames...)
	}
	return utils.DeduplicateStrings(excludePatterns)
}

// FileConfig carries values parsed from a config file. Pointer fields
// distinguish "absent" from a provided zero value so that absence, not
// falsiness, triggers fallback to the defaults. Unrecognized keys in
// the file are ignored for forward compatibility.
type FileConfig struct {
	Roots         []string  `mapstructure:"roots"`
	Include       *[]string `mapstructure:"include"`
	Exclude       []string  `mapstructure:"exclude"`
	Depth         *int      `mapstructure:"depth"`
	Out           string    `mapstructure:"out"`
	JSON          *bool     `mapstructure:"json"`
	Gitignore     *bool     `mapstructure:"gitignore"`
	SkipUnchanged *bool     `mapstructure:"skip_unchanged"`
	Backups       *int      `mapstructure:"backups"`
}

// Overrides carries explicitly provided command line values. A nil
// field means the flag was not set and the file or default value wins.
type Overrides struct {
	Roots           *[]string
	Include         *[]string
	Exclude         *[]string
	Depth           *int
	Out             *string
	JSON            *bool
	Gitignore       *bool
	SkipUnchanged   *bool
	Backups         *int
	DefaultExcludes *bool
}

// Merge resolves the effective configuration: defaults first, then the
// optional file config, then explicit overrides. It fails with *Error
// when roots resolve to empty, the depth is negative, or the backup
// retention is negative.
func Merge(fileConfig *FileConfig, overrides Overrides) (Config, error) {
	resolved := Config{
		Include:         append([]string{}, DefaultIncludeExtensions...),
		Depth:           DefaultDepth,
		OutPath:         DefaultOutPath,
		BackupCount:     DefaultBackupCount,
		DefaultExcludes: true,
	}

	if fileConfig != nil {
		if len(fileConfig.Roots) > 0 {
			resolved.Roots = append([]string{}, fileConfig.Roots...)
		}
		if fileConfig.Include != nil {
			resolved.Include = append([]string{}, (*fileConfig.Include)...)
		}
		if len(fileConfig.Exclude) > 0 {
			resolved.Exclude = append([]string{}, fileConfig.Exclude...)
		}
		if fileConfig.Depth != nil {
			resolved.Depth = *fileConfig.Depth
		}
		if fileConfig.Out != "" {
			resolved.OutPath = fileConfig.Out
		}
		if fileConfig.JSON != nil {
			resolved.JSON = *fileConfig.JSON
		}
		if fileConfig.Gitignore != nil {
			resolved.UseGitignore = *fileConfig.Gitignore
		}
		if fileConfig.SkipUnchanged != nil {
			resolved.SkipUnchanged = *fileConfig.SkipUnchanged
		}
		if fileConfig.Backups != nil {
			resolved.BackupCount = *fileConfig.Backups
		}
	}

	if overrides.Roots != nil {
		resolved.Roots = append([]string{}, (*overrides.Roots)...)
	}
	if overrides.Include != nil {
		resolved.Include = append([]string{}, (*overrides.Include)...)
	}
	if overrides.Exclude != nil {
		resolved.Exclude = append([]string{}, (*overrides.Exclude)...)
	}
	if overrides.Depth != nil {
		resolved.Depth = *overrides.Depth
	}
	if overrides.Out != nil {
		resolved.OutPath = *overrides.Out
	}
	if overrides.JSON != nil {
		resolved.JSON = *overrides.JSON
	}
	if overrides.Gitignore != nil {
		resolved.UseGitignore = *overrides.Gitignore
	}
	if overrides.SkipUnchanged != nil {
		resolved.SkipUnchanged = *overrides.SkipUnchanged
	}
	if overrides.Backups != nil {
		resolved.BackupCount = *overrides.Backups
	}
	if overrides.DefaultExcludes != nil {
		resolved.DefaultExcludes = *overrides.DefaultExcludes
	}

	resolved.Roots = utils.DeduplicateStrings(resolved.Roots)
	if len(resolved.Roots) == 0 {
		return Config{}, &Error{Reason: "no roots configured"}
	}
	if resolved.Depth < 0 {
		return Config{}, &Error{Reason: fmt.Sprintf("depth must be non-negative, got %d", resolved.Depth)}
	}
	if resolved.BackupCount < 0 {
		return Config{}, &Error{Reason: fmt.Sprintf("backup retention must be non-negative, got %d", resolved.BackupCount)}
	}
	if resolved.OutPath == "" {
		return Config{}, &Error{Reason: "output path must not be empty"}
	}
	return resolved, nil
}
