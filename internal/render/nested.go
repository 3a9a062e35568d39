package render

import (
	"bytes"
	"encoding/json"

	"github.com/BlakeFelix/tree-updater/internal/types"
)

// NestedMapping is a string-keyed mapping that preserves insertion
// order through JSON marshaling. encoding/json sorts plain map keys,
// which would break the invariant that structured output follows tree
// child order.
type NestedMapping struct {
	keys   []string
	values map[string]any
}

// NewNestedMapping constructs an empty ordered mapping.
func NewNestedMapping() *NestedMapping {
	return &NestedMapping{values: make(map[string]any)}
}

// Set inserts or replaces a key. First insertion fixes the key's position.
func (mapping *NestedMapping) Set(key string, value any) {
	if _, exists := mapping.values[key]; !exists {
		mapping.keys = append(mapping.keys, key)
	}
	mapping.values[key] = value
}

// Get returns the value stored under key, if any.
func (mapping *NestedMapping) Get(key string) (any, bool) {
	value, exists := mapping.values[key]
	return value, exists
}

// Keys returns the keys in insertion order.
func (mapping *NestedMapping) Keys() []string {
	return append([]string{}, mapping.keys...)
}

// Len returns the number of keys.
func (mapping *NestedMapping) Len() int {
	return len(mapping.keys)
}

// MarshalJSON emits the mapping as a JSON object with keys in
// insertion order.
func (mapping *NestedMapping) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for keyIndex, key := range mapping.keys {
		if keyIndex > 0 {
			buffer.WriteByte(',')
		}
		encodedKey, keyError := json.Marshal(key)
		if keyError != nil {
			return nil, keyError
		}
		buffer.Write(encodedKey)
		buffer.WriteByte(':')
		encodedValue, valueError := json.Marshal(mapping.values[key])
		if valueError != nil {
			return nil, valueError
		}
		buffer.Write(encodedValue)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// NestedForest converts a forest into its nested structured
// representation as an in-memory value, independent of any file I/O.
// Each root maps to a mapping of entry name to node description:
// directories carry {"type": "directory", "children": {...}} and files
// carry {"type": "file"}. Failed roots map to {"error": <message>}.
// Key order follows tree child order at every level.
func NestedForest(forest types.Forest) *NestedMapping {
	forestMapping := NewNestedMapping()
	for _, rootTree := range forest {
		if rootTree.Err != nil {
			errorMapping := NewNestedMapping()
			errorMapping.Set("error", rootTree.Err.Error())
			forestMapping.Set(rootTree.Root, errorMapping)
			continue
		}
		forestMapping.Set(rootTree.Root, nestedChildren(rootTree.Node))
	}
	return forestMapping
}

// nestedChildren maps a directory node's children, in child order.
func nestedChildren(directoryNode *types.TreeNode) *NestedMapping {
	childrenMapping := NewNestedMapping()
	for _, childNode := range directoryNode.Children {
		childrenMapping.Set(childNode.Name, nestedNode(childNode))
	}
	return childrenMapping
}

// nestedNode describes a single node.
func nestedNode(treeNode *types.TreeNode) *NestedMapping {
	nodeMapping := NewNestedMapping()
	nodeMapping.Set("type", treeNode.Type)
	if treeNode.IsDirectory() {
		nodeMapping.Set("children", nestedChildren(treeNode))
	}
	return nodeMapping
}
