// Package snapshot owns the on-disk snapshot state: it compares a
// candidate document against the last persisted one, rotates a bounded
// backup history, writes atomically, and reports structural diffs
// between consecutive snapshots. Nothing else touches the output path.
package snapshot

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BlakeFelix/tree-updater/internal/render"
	"github.com/BlakeFelix/tree-updater/internal/types"
)

// diffFileSuffix names the sidecar file carrying the textual patch of
// the latest change.
const diffFileSuffix = ".diff"

// PersistenceError reports a backup rotation or write failure. It is
// fatal: the run aborts and the output path is never left partially
// written.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (persistenceError *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", persistenceError.Op, persistenceError.Path, persistenceError.Err)
}

// Unwrap exposes the underlying cause.
func (persistenceError *PersistenceError) Unwrap() error {
	return persistenceError.Err
}

// Options configures a Manager.
type Options struct {
	OutPath       string
	BackupCount   int
	SkipUnchanged bool
}

// Result describes the outcome of one snapshot run.
type Result struct {
	Unchanged bool
	OutPath   string
	LineCount int
	Diff      types.Diff
	PatchText string
}

// Manager is the sole owner of the snapshot file and its backups.
type Manager struct {
	options Options
	logger  *zap.Logger
}

// NewManager constructs a Manager for the configured output path.
func NewManager(options Options, logger *zap.Logger) *Manager {
	return &Manager{options: options, logger: logger}
}

// Commit renders the forest and advances the on-disk snapshot state:
// unchanged content short-circuits when skip-unchanged is enabled;
// changed content rotates the backup history, writes the new document
// atomically, and computes the diff against the previous snapshot.
func (manager *Manager) Commit(forest types.Forest, outputFormat string, renderedAt time.Time) (*Result, error) {
	candidateDocument, renderError := render.Render(forest, outputFormat, renderedAt)
	if renderError != nil {
		return nil, renderError
	}

	previousDocument, readError := manager.readPrevious()
	if readError != nil {
		return nil, readError
	}

	previousBody := render.StripHeader(previousDocument)
	candidateBody := render.StripHeader(candidateDocument)
	if manager.options.SkipUnchanged && fingerprint(previousBody) == fingerprint(candidateBody) {
		manager.logger.Info("snapshot unchanged, skipping write",
			zap.String("path", manager.options.OutPath))
		return &Result{Unchanged: true, OutPath: manager.options.OutPath}, nil
	}

	structuralDiff := ComputeDiff(ParseDocumentPaths(previousBody), ForestPaths(forest))

	if rotateError := manager.rotateBackups(); rotateError != nil {
		return nil, rotateError
	}
	if writeError := manager.writeAtomically(manager.options.OutPath, candidateDocument); writeError != nil {
		return nil, writeError
	}

	patchText := PatchText(previousBody, candidateBody)
	diffPath := manager.options.OutPath + diffFileSuffix
	if patchText != "" {
		if diffWriteError := manager.writeAtomically(diffPath, patchText); diffWriteError != nil {
			return nil, diffWriteError
		}
	} else if removeError := os.Remove(diffPath); removeError != nil && !os.IsNotExist(removeError) {
		// A sidecar left from an earlier run would describe a transition
		// that is no longer the latest one.
		return nil, &PersistenceError{Op: "removing stale diff", Path: diffPath, Err: removeError}
	}

	result := &Result{
		OutPath:   manager.options.OutPath,
		LineCount: strings.Count(candidateDocument, "\n"),
		Diff:      structuralDiff,
		PatchText: patchText,
	}
	manager.logger.Info("snapshot written",
		zap.String("path", manager.options.OutPath),
		zap.Int("lines", result.LineCount),
		zap.Int("added", len(structuralDiff.Added)),
		zap.Int("removed", len(structuralDiff.Removed)),
		zap.Int("modified", len(structuralDiff.Modified)))
	return result, nil
}

// readPrevious loads the current snapshot document. Absence is not an
// error; it reads as an empty previous snapshot.
func (manager *Manager) readPrevious() (string, error) {
	previousData, readError := os.ReadFile(manager.options.OutPath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return "", nil
		}
		return "", &PersistenceError{Op: "reading previous snapshot", Path: manager.options.OutPath, Err: readError}
	}
	return string(previousData), nil
}

// rotateBackups shifts the existing snapshot into the rolling history
// <out>.1 … <out>.N before it is overwritten. The entry beyond the
// retention bound is evicted first. With retention zero the existing
// file is simply replaced.
func (manager *Manager) rotateBackups() error {
	if _, statError := os.Stat(manager.options.OutPath); statError != nil {
		if os.IsNotExist(statError) {
			return nil
		}
		return &PersistenceError{Op: "stat snapshot", Path: manager.options.OutPath, Err: statError}
	}
	if manager.options.BackupCount == 0 {
		return nil
	}

	oldestBackupPath := backupPath(manager.options.OutPath, manager.options.BackupCount)
	if removeError := os.Remove(oldestBackupPath); removeError != nil && !os.IsNotExist(removeError) {
		return &PersistenceError{Op: "evicting oldest backup", Path: oldestBackupPath, Err: removeError}
	}
	for backupIndex := manager.options.BackupCount - 1; backupIndex >= 1; backupIndex-- {
		fromPath := backupPath(manager.options.OutPath, backupIndex)
		toPath := backupPath(manager.options.OutPath, backupIndex+1)
		if renameError := os.Rename(fromPath, toPath); renameError != nil && !os.IsNotExist(renameError) {
			return &PersistenceError{Op: "rotating backup", Path: fromPath, Err: renameError}
		}
	}
	firstBackupPath := backupPath(manager.options.OutPath, 1)
	if renameError := os.Rename(manager.options.OutPath, firstBackupPath); renameError != nil {
		return &PersistenceError{Op: "archiving snapshot", Path: manager.options.OutPath, Err: renameError}
	}
	manager.logger.Debug("rotated snapshot into backup history",
		zap.String("backup", firstBackupPath))
	return nil
}

// writeAtomically persists content through a temporary file in the
// target directory followed by a rename, so a failed write never
// leaves the target partially written.
func (manager *Manager) writeAtomically(targetPath, content string) error {
	targetDirectory := filepath.Dir(targetPath)
	if mkdirError := os.MkdirAll(targetDirectory, 0o755); mkdirError != nil {
		return &PersistenceError{Op: "creating output directory", Path: targetDirectory, Err: mkdirError}
	}
	temporaryFile, createError := os.CreateTemp(targetDirectory, filepath.Base(targetPath)+".tmp-*")
	if createError != nil {
		return &PersistenceError{Op: "creating temporary file", Path: targetDirectory, Err: createError}
	}
	temporaryPath := temporaryFile.Name()
	if _, writeError := temporaryFile.WriteString(content); writeError != nil {
		temporaryFile.Close()
		os.Remove(temporaryPath)
		return &PersistenceError{Op: "writing snapshot", Path: temporaryPath, Err: writeError}
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		os.Remove(temporaryPath)
		return &PersistenceError{Op: "closing snapshot", Path: temporaryPath, Err: closeError}
	}
	if chmodError := os.Chmod(temporaryPath, 0o644); chmodError != nil {
		os.Remove(temporaryPath)
		return &PersistenceError{Op: "setting snapshot permissions", Path: temporaryPath, Err: chmodError}
	}
	if renameError := os.Rename(temporaryPath, targetPath); renameError != nil {
		os.Remove(temporaryPath)
		return &PersistenceError{Op: "replacing snapshot", Path: targetPath, Err: renameError}
	}
	return nil
}

// backupPath returns the rotation path for the given index.
func backupPath(outPath string, backupIndex int) string {
	return fmt.Sprintf("%s.%d", outPath, backupIndex)
}

// fingerprint hashes a header-stripped snapshot body.
func fingerprint(documentBody string) [sha256.Size]byte {
	return sha256.Sum256([]byte(documentBody))
}
