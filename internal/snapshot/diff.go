package snapshot

import (
	"path"
	"sort"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/BlakeFelix/tree-updater/internal/types"
)

// ComputeDiff compares two path sets. Paths present only in current
// are added, paths present only in previous are removed, and
// directories present in both whose direct child set changed are
// modified. All result slices are sorted.
func ComputeDiff(previousPaths, currentPaths PathSet) types.Diff {
	var structuralDiff types.Diff

	for currentPath := range currentPaths {
		if _, existed := previousPaths[currentPath]; !existed {
			structuralDiff.Added = append(structuralDiff.Added, currentPath)
		}
	}
	for previousPath := range previousPaths {
		if _, exists := currentPaths[previousPath]; !exists {
			structuralDiff.Removed = append(structuralDiff.Removed, previousPath)
		}
	}

	previousChildren := directChildIndex(previousPaths)
	currentChildren := directChildIndex(currentPaths)
	for directoryPath, wasDirectory := range previousPaths {
		isDirectory, stillExists := currentPaths[directoryPath]
		if !wasDirectory || !stillExists || !isDirectory {
			continue
		}
		if !sameChildSet(previousChildren[directoryPath], currentChildren[directoryPath]) {
			structuralDiff.Modified = append(structuralDiff.Modified, directoryPath)
		}
	}

	sort.Strings(structuralDiff.Added)
	sort.Strings(structuralDiff.Removed)
	sort.Strings(structuralDiff.Modified)
	return structuralDiff
}

// directChildIndex groups every path under its parent directory.
func directChildIndex(pathSet PathSet) map[string]map[string]struct{} {
	childIndex := make(map[string]map[string]struct{})
	for entryPath := range pathSet {
		parentPath := path.Dir(entryPath)
		if childIndex[parentPath] == nil {
			childIndex[parentPath] = make(map[string]struct{})
		}
		childIndex[parentPath][path.Base(entryPath)] = struct{}{}
	}
	return childIndex
}

func sameChildSet(previousSet, currentSet map[string]struct{}) bool {
	if len(previousSet) != len(currentSet) {
		return false
	}
	for childName := range previousSet {
		if _, exists := currentSet[childName]; !exists {
			return false
		}
	}
	return true
}

// PatchText renders a textual patch between the previous and current
// snapshot bodies, for human review alongside the structural diff.
func PatchText(previousBody, currentBody string) string {
	differ := diffmatchpatch.New()
	patches := differ.PatchMake(previousBody, currentBody)
	return differ.PatchToText(patches)
}
