package snapshot

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/BlakeFelix/tree-updater/internal/types"
)

// PathSet maps a slash-joined "root/relative" path to whether it is a
// directory. It is the structural view two snapshots are diffed over.
type PathSet map[string]bool

// ForestPaths collects the path set of a freshly scanned forest.
// Failed roots contribute nothing.
func ForestPaths(forest types.Forest) PathSet {
	pathSet := make(PathSet)
	for _, rootTree := range forest {
		if rootTree.Err != nil {
			continue
		}
		collectNodePaths(pathSet, rootTree.Root, rootTree.Node)
	}
	return pathSet
}

func collectNodePaths(pathSet PathSet, parentPath string, directoryNode *types.TreeNode) {
	for _, childNode := range directoryNode.Children {
		childPath := parentPath + "/" + childNode.Name
		pathSet[childPath] = childNode.IsDirectory()
		if childNode.IsDirectory() {
			collectNodePaths(pathSet, childPath, childNode)
		}
	}
}

// ParseDocumentPaths recovers the path set from a previously persisted
// snapshot body (header already stripped). Both document shapes are
// understood; an empty body yields an empty set.
func ParseDocumentPaths(documentBody string) PathSet {
	trimmedBody := strings.TrimSpace(documentBody)
	if trimmedBody == "" {
		return make(PathSet)
	}
	if strings.HasPrefix(trimmedBody, "{") {
		return parseJSONPaths(trimmedBody)
	}
	return parseMarkdownPaths(documentBody)
}

// parseMarkdownPaths walks the indented bullet listing, tracking the
// directory stack through indentation depth (two spaces per level).
func parseMarkdownPaths(documentBody string) PathSet {
	pathSet := make(PathSet)
	currentRoot := ""
	var directoryStack []string

	for _, line := range strings.Split(documentBody, "\n") {
		if strings.HasPrefix(line, "## ") {
			currentRoot = strings.TrimPrefix(line, "## ")
			directoryStack = directoryStack[:0]
			continue
		}
		trimmedLine := strings.TrimLeft(line, " ")
		if currentRoot == "" || !strings.HasPrefix(trimmedLine, "- ") {
			continue
		}
		depth := (len(line) - len(trimmedLine)) / 2
		entryName := strings.TrimPrefix(trimmedLine, "- ")
		isDirectory := strings.HasSuffix(entryName, "/")
		entryName = strings.TrimSuffix(entryName, "/")

		if depth > len(directoryStack) {
			depth = len(directoryStack)
		}
		directoryStack = directoryStack[:depth]
		entryPath := currentRoot + "/" + path.Join(append(append([]string{}, directoryStack...), entryName)...)
		pathSet[entryPath] = isDirectory
		if isDirectory {
			directoryStack = append(directoryStack, entryName)
		}
	}
	return pathSet
}

// parseJSONPaths reads the nested structured shape. Key order is
// irrelevant here, so a plain unmarshal suffices.
func parseJSONPaths(documentBody string) PathSet {
	pathSet := make(PathSet)
	var forestMapping map[string]map[string]any
	if unmarshalError := json.Unmarshal([]byte(documentBody), &forestMapping); unmarshalError != nil {
		return pathSet
	}
	for rootName, rootValue := range forestMapping {
		if _, failed := rootValue["error"].(string); failed {
			continue
		}
		collectJSONPaths(pathSet, rootName, rootValue)
	}
	return pathSet
}

func collectJSONPaths(pathSet PathSet, parentPath string, childrenMapping map[string]any) {
	for childName, childValue := range childrenMapping {
		childNode, isMapping := childValue.(map[string]any)
		if !isMapping {
			continue
		}
		childPath := parentPath + "/" + childName
		nodeType, _ := childNode["type"].(string)
		isDirectory := nodeType == types.NodeTypeDirectory
		pathSet[childPath] = isDirectory
		if isDirectory {
			if nestedChildren, hasChildren := childNode["children"].(map[string]any); hasChildren {
				collectJSONPaths(pathSet, childPath, nestedChildren)
			}
		}
	}
}
