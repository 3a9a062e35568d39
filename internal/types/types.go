// Package types defines every cross-package data structure used by the treeupdater CLI.
package types

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// TreeNode represents one entry of a scanned directory tree.
// Children are ordered directories-first, then case-sensitive
// lexicographically by name, so repeated scans of an unchanged
// tree produce identical structures.
type TreeNode struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	RelativePath string      `json:"relativePath"`
	Children     []*TreeNode `json:"children,omitempty"`
}

// IsDirectory reports whether the node describes a directory.
func (node *TreeNode) IsDirectory() bool {
	return node.Type == NodeTypeDirectory
}

// RootTree pairs a configured root with its scan outcome. Exactly one
// of Node and Err is set. Forest order always matches the order roots
// were configured in, independent of scan scheduling.
type RootTree struct {
	Root string
	Node *TreeNode
	Err  error
}

// Forest is the ordered collection of per-root scan results.
type Forest []RootTree

// FailedRoots returns the roots whose scans produced an error.
func (forest Forest) FailedRoots() []string {
	var failed []string
	for _, rootTree := range forest {
		if rootTree.Err != nil {
			failed = append(failed, rootTree.Root)
		}
	}
	return failed
}

// AllFailed reports whether every root in the forest failed to scan.
func (forest Forest) AllFailed() bool {
	if len(forest) == 0 {
		return true
	}
	for _, rootTree := range forest {
		if rootTree.Err == nil {
			return false
		}
	}
	return true
}

// Diff describes the structural difference between two snapshots.
// Added and Removed list paths present in only one snapshot; Modified
// lists directories present in both whose direct child set changed.
// All slices are sorted lexicographically.
type Diff struct {
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// IsEmpty reports whether the diff carries no changes.
func (diff Diff) IsEmpty() bool {
	return len(diff.Added) == 0 && len(diff.Removed) == 0 && len(diff.Modified) == 0
}
