// Package scan builds directory trees for configured roots, applying
// path filters, a depth budget, and a symlink cycle guard. Roots are
// scanned concurrently by Runner; each scan owns its own state and
// results merge back in configured root order.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/BlakeFelix/tree-updater/internal/filter"
	"github.com/BlakeFelix/tree-updater/internal/types"
)

// unboundedDepth is the internal sentinel for a scan without a depth limit.
const unboundedDepth = -1

// Scanner walks one root at a time. It is safe for concurrent use;
// every Scan call owns its own visited-path set.
type Scanner struct {
	logger *zap.Logger
}

// NewScanner constructs a Scanner that reports skipped directories
// through the provided logger.
func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{logger: logger}
}

// Scan walks rootPath recursively and returns its tree. depthLimit 0
// means unbounded; a positive limit keeps admitted directories at the
// boundary as childless leaf nodes. A failure to read the root itself
// is an error; unreadable subdirectories become childless nodes and
// are logged.
func (scanner *Scanner) Scan(rootPath string, pathFilter *filter.PathFilter, depthLimit int) (*types.TreeNode, error) {
	absoluteRootPath, absoluteError := filepath.Abs(rootPath)
	if absoluteError != nil {
		return nil, fmt.Errorf("resolving absolute path for %s: %w", rootPath, absoluteError)
	}
	rootInformation, statError := os.Stat(absoluteRootPath)
	if statError != nil {
		return nil, fmt.Errorf("stat %s: %w", rootPath, statError)
	}
	if !rootInformation.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", rootPath)
	}

	rootNode := &types.TreeNode{
		Name:         filepath.Base(absoluteRootPath),
		Type:         types.NodeTypeDirectory,
		RelativePath: ".",
	}

	visitedRealPaths := make(map[string]struct{})
	if realRootPath, resolveError := filepath.EvalSymlinks(absoluteRootPath); resolveError == nil {
		visitedRealPaths[realRootPath] = struct{}{}
	}

	remainingDepth := depthLimit
	if depthLimit == 0 {
		remainingDepth = unboundedDepth
	}
	rootNode.Children = scanner.scanDirectory(absoluteRootPath, "", pathFilter, remainingDepth, visitedRealPaths)
	return rootNode, nil
}

// scanDirectory lists one directory and returns its admitted children
// in deterministic order. relativePrefix is the slash-joined path from
// the root to directoryPath ("" at the root).
func (scanner *Scanner) scanDirectory(directoryPath, relativePrefix string, pathFilter *filter.PathFilter, remainingDepth int, visitedRealPaths map[string]struct{}) []*types.TreeNode {
	directoryEntries, readDirError := os.ReadDir(directoryPath)
	if readDirError != nil {
		scanner.logger.Warn("skipping unreadable directory",
			zap.String("path", directoryPath),
			zap.Error(readDirError))
		return nil
	}

	var childNodes []*types.TreeNode
	for _, directoryEntry := range directoryEntries {
		entryName := directoryEntry.Name()
		childPath := filepath.Join(directoryPath, entryName)
		relativePath := entryName
		if relativePrefix != "" {
			relativePath = path.Join(relativePrefix, entryName)
		}

		isDirectory, alreadyVisited := scanner.classifyEntry(directoryEntry, childPath, visitedRealPaths)
		if !pathFilter.Admits(relativePath, isDirectory) {
			continue
		}

		childNode := &types.TreeNode{
			Name:         entryName,
			RelativePath: relativePath,
			Type:         types.NodeTypeFile,
		}
		if isDirectory {
			childNode.Type = types.NodeTypeDirectory
			descend := !alreadyVisited && remainingDepth != 1
			if descend {
				nextDepth := remainingDepth
				if nextDepth > 0 {
					nextDepth--
				}
				childNode.Children = scanner.scanDirectory(childPath, relativePath, pathFilter, nextDepth, visitedRealPaths)
			}
		}
		childNodes = append(childNodes, childNode)
	}

	sortChildNodes(childNodes)
	return childNodes
}

// classifyEntry resolves whether a directory entry behaves as a
// directory and whether a symlinked directory target was already
// visited within this scan. Symlinks take the kind of their target;
// a broken link is treated as a file.
func (scanner *Scanner) classifyEntry(directoryEntry fs.DirEntry, childPath string, visitedRealPaths map[string]struct{}) (isDirectory bool, alreadyVisited bool) {
	if directoryEntry.Type()&fs.ModeSymlink == 0 {
		if !directoryEntry.IsDir() {
			return false, false
		}
		realPath, resolveError := filepath.EvalSymlinks(childPath)
		if resolveError == nil {
			if _, visited := visitedRealPaths[realPath]; visited {
				return true, true
			}
			visitedRealPaths[realPath] = struct{}{}
		}
		return true, false
	}

	targetInformation, statError := os.Stat(childPath)
	if statError != nil || !targetInformation.IsDir() {
		return false, false
	}
	realPath, resolveError := filepath.EvalSymlinks(childPath)
	if resolveError != nil {
		return true, true
	}
	if _, visited := visitedRealPaths[realPath]; visited {
		scanner.logger.Debug("symlink target already visited, keeping as leaf",
			zap.String("path", childPath))
		return true, true
	}
	visitedRealPaths[realPath] = struct{}{}
	return true, false
}

// sortChildNodes orders siblings directories-first, then by
// case-sensitive lexicographic name. This is the single deterministic
// ordering rule the renderer depends on.
func sortChildNodes(childNodes []*types.TreeNode) {
	sort.SliceStable(childNodes, func(firstIndex, secondIndex int) bool {
		firstNode, secondNode := childNodes[firstIndex], childNodes[secondIndex]
		if firstNode.IsDirectory() != secondNode.IsDirectory() {
			return firstNode.IsDirectory()
		}
		return firstNode.Name < secondNode.Name
	})
}
