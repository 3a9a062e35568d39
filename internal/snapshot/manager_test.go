package snapshot_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BlakeFelix/tree-updater/internal/snapshot"
	"github.com/BlakeFelix/tree-updater/internal/types"
)

func directoryNode(name, relativePath string, children ...*types.TreeNode) *types.TreeNode {
	return &types.TreeNode{Name: name, Type: types.NodeTypeDirectory, RelativePath: relativePath, Children: children}
}

func fileNode(name, relativePath string) *types.TreeNode {
	return &types.TreeNode{Name: name, Type: types.NodeTypeFile, RelativePath: relativePath}
}

func forestWithFiles(fileNames ...string) types.Forest {
	children := make([]*types.TreeNode, 0, len(fileNames))
	for _, fileName := range fileNames {
		children = append(children, fileNode(fileName, fileName))
	}
	return types.Forest{{Root: "src", Node: directoryNode("src", ".", children...)}}
}

func newManager(testingHandle *testing.T, backupCount int, skipUnchanged bool) (*snapshot.Manager, string) {
	outPath := filepath.Join(testingHandle.TempDir(), "tree_snapshot.md")
	manager := snapshot.NewManager(snapshot.Options{
		OutPath:       outPath,
		BackupCount:   backupCount,
		SkipUnchanged: skipUnchanged,
	}, zap.NewNop())
	return manager, outPath
}

// TestCommitWritesSnapshot verifies the initial write path.
func TestCommitWritesSnapshot(testingHandle *testing.T) {
	manager, outPath := newManager(testingHandle, 2, false)

	result, commitError := manager.Commit(forestWithFiles("a.py"), types.FormatMarkdown, time.Now())
	if commitError != nil {
		testingHandle.Fatalf("commit error: %v", commitError)
	}
	if result.Unchanged {
		testingHandle.Fatalf("first commit must not report unchanged")
	}
	writtenData, readError := os.ReadFile(outPath)
	if readError != nil {
		testingHandle.Fatalf("reading snapshot: %v", readError)
	}
	if len(writtenData) == 0 {
		testingHandle.Fatalf("snapshot file is empty")
	}
	if len(result.Diff.Added) != 1 || result.Diff.Added[0] != "src/a.py" {
		testingHandle.Fatalf("expected src/a.py added on first commit, got %v", result.Diff.Added)
	}
}

// TestCommitSkipUnchanged verifies that an identical second run with
// skip-unchanged enabled reports no change and does not touch disk.
func TestCommitSkipUnchanged(testingHandle *testing.T) {
	manager, outPath := newManager(testingHandle, 2, true)
	forest := forestWithFiles("a.py", "b.py")

	if _, commitError := manager.Commit(forest, types.FormatMarkdown, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); commitError != nil {
		testingHandle.Fatalf("first commit error: %v", commitError)
	}
	firstData, _ := os.ReadFile(outPath)

	secondResult, commitError := manager.Commit(forest, types.FormatMarkdown, time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
	if commitError != nil {
		testingHandle.Fatalf("second commit error: %v", commitError)
	}
	if !secondResult.Unchanged {
		testingHandle.Fatalf("expected unchanged result on identical content")
	}
	secondData, _ := os.ReadFile(outPath)
	if string(firstData) != string(secondData) {
		testingHandle.Fatalf("snapshot file was rewritten despite unchanged content")
	}
	if _, statError := os.Stat(outPath + ".1"); !os.IsNotExist(statError) {
		testingHandle.Fatalf("no backup should exist after an unchanged run")
	}
}

// TestCommitWithoutSkipRewritesUnchangedContent verifies that with
// skip-unchanged disabled an identical body still gets a fresh write.
func TestCommitWithoutSkipRewritesUnchangedContent(testingHandle *testing.T) {
	manager, outPath := newManager(testingHandle, 2, false)
	forest := forestWithFiles("a.py")

	if _, commitError := manager.Commit(forest, types.FormatMarkdown, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); commitError != nil {
		testingHandle.Fatalf("first commit error: %v", commitError)
	}
	secondResult, commitError := manager.Commit(forest, types.FormatMarkdown, time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
	if commitError != nil {
		testingHandle.Fatalf("second commit error: %v", commitError)
	}
	if secondResult.Unchanged {
		testingHandle.Fatalf("unchanged short-circuit must require skip-unchanged")
	}
	writtenData, _ := os.ReadFile(outPath)
	if !strings.Contains(string(writtenData), "2026-02-02") {
		testingHandle.Fatalf("expected fresh timestamp header after rewrite")
	}
}

// TestCommitBackupRetention verifies that with retention 2, repeated
// changed-content runs leave exactly two backups plus the current file.
func TestCommitBackupRetention(testingHandle *testing.T) {
	manager, outPath := newManager(testingHandle, 2, false)

	forests := []types.Forest{
		forestWithFiles("a.py"),
		forestWithFiles("a.py", "b.py"),
		forestWithFiles("a.py", "b.py", "c.py"),
		forestWithFiles("a.py", "b.py", "c.py", "d.py"),
	}
	for _, forest := range forests {
		if _, commitError := manager.Commit(forest, types.FormatMarkdown, time.Now()); commitError != nil {
			testingHandle.Fatalf("commit error: %v", commitError)
		}
	}

	for _, expectedPath := range []string{outPath, outPath + ".1", outPath + ".2"} {
		if _, statError := os.Stat(expectedPath); statError != nil {
			testingHandle.Fatalf("expected %s to exist: %v", expectedPath, statError)
		}
	}
	if _, statError := os.Stat(outPath + ".3"); !os.IsNotExist(statError) {
		testingHandle.Fatalf("backup beyond retention bound must be evicted")
	}
}

// TestCommitDiffAddAndRemove verifies the diff between a snapshot that
// adds one file and removes one directory: exactly that file is added
// and the directory plus its former children are removed.
func TestCommitDiffAddAndRemove(testingHandle *testing.T) {
	manager, _ := newManager(testingHandle, 2, false)

	firstForest := types.Forest{{Root: "src", Node: directoryNode("src", ".",
		directoryNode("sub", "sub", fileNode("c.py", "sub/c.py")),
		fileNode("a.py", "a.py"),
	)}}
	if _, commitError := manager.Commit(firstForest, types.FormatMarkdown, time.Now()); commitError != nil {
		testingHandle.Fatalf("first commit error: %v", commitError)
	}

	secondForest := types.Forest{{Root: "src", Node: directoryNode("src", ".",
		fileNode("a.py", "a.py"),
		fileNode("new.py", "new.py"),
	)}}
	result, commitError := manager.Commit(secondForest, types.FormatMarkdown, time.Now())
	if commitError != nil {
		testingHandle.Fatalf("second commit error: %v", commitError)
	}

	if len(result.Diff.Added) != 1 || result.Diff.Added[0] != "src/new.py" {
		testingHandle.Fatalf("expected added [src/new.py], got %v", result.Diff.Added)
	}
	expectedRemoved := []string{"src/sub", "src/sub/c.py"}
	if len(result.Diff.Removed) != len(expectedRemoved) {
		testingHandle.Fatalf("expected removed %v, got %v", expectedRemoved, result.Diff.Removed)
	}
	for position, expectedPath := range expectedRemoved {
		if result.Diff.Removed[position] != expectedPath {
			testingHandle.Fatalf("expected removed %v, got %v", expectedRemoved, result.Diff.Removed)
		}
	}
	if result.PatchText == "" {
		testingHandle.Fatalf("expected a textual patch for a changed snapshot")
	}
}

// TestCommitRemovesStaleDiffSidecar verifies that a rewrite of an
// unchanged body clears the previous run's patch sidecar instead of
// leaving it to describe an outdated transition.
func TestCommitRemovesStaleDiffSidecar(testingHandle *testing.T) {
	manager, outPath := newManager(testingHandle, 2, false)
	diffPath := outPath + ".diff"
	forest := forestWithFiles("a.py", "b.py")

	if _, commitError := manager.Commit(forestWithFiles("a.py"), types.FormatMarkdown, time.Now()); commitError != nil {
		testingHandle.Fatalf("first commit error: %v", commitError)
	}
	if _, commitError := manager.Commit(forest, types.FormatMarkdown, time.Now()); commitError != nil {
		testingHandle.Fatalf("second commit error: %v", commitError)
	}
	if _, statError := os.Stat(diffPath); statError != nil {
		testingHandle.Fatalf("expected patch sidecar after a changed commit: %v", statError)
	}

	thirdResult, commitError := manager.Commit(forest, types.FormatMarkdown, time.Now())
	if commitError != nil {
		testingHandle.Fatalf("third commit error: %v", commitError)
	}
	if thirdResult.PatchText != "" {
		testingHandle.Fatalf("expected empty patch for an unchanged body")
	}
	if _, statError := os.Stat(diffPath); !os.IsNotExist(statError) {
		testingHandle.Fatalf("stale patch sidecar must be removed on an unchanged rewrite")
	}
}

// TestCommitPersistenceError verifies that an unwritable output
// location surfaces as a *snapshot.PersistenceError.
func TestCommitPersistenceError(testingHandle *testing.T) {
	blockingFilePath := filepath.Join(testingHandle.TempDir(), "blocking")
	if writeError := os.WriteFile(blockingFilePath, []byte("x"), 0o644); writeError != nil {
		testingHandle.Fatalf("writing blocking file: %v", writeError)
	}
	manager := snapshot.NewManager(snapshot.Options{
		OutPath:     filepath.Join(blockingFilePath, "nested", "tree_snapshot.md"),
		BackupCount: 2,
	}, zap.NewNop())

	_, commitError := manager.Commit(forestWithFiles("a.py"), types.FormatMarkdown, time.Now())
	if commitError == nil {
		testingHandle.Fatalf("expected persistence error")
	}
	var persistenceError *snapshot.PersistenceError
	if !errors.As(commitError, &persistenceError) {
		testingHandle.Fatalf("expected *snapshot.PersistenceError, got %T", commitError)
	}
}
