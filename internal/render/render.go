// Package render converts a scanned forest into the two snapshot
// document shapes: an indented Markdown listing and a deterministic
// nested JSON document. Both begin with a UTC timestamp header line;
// everything below the header is byte-stable for an unchanged forest.
package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/BlakeFelix/tree-updater/internal/types"
	"github.com/BlakeFelix/tree-updater/internal/utils"
)

const (
	// HeaderPrefix starts the first line of every snapshot document.
	HeaderPrefix = "# project-tree snapshot · "

	markdownIndent       = "  "
	directorySuffix      = "/"
	rootHeadingPrefix    = "## "
	rootErrorNoteFormat  = "(error: %v)"
	jsonIndentSpacer     = "  "
	jsonIndentPrefix     = ""
	unsupportedFormatMsg = "unsupported output format %q"
)

// Error reports a rendering failure. A well-formed forest never
// produces one; seeing it indicates a programming error upstream.
type Error struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (renderError *Error) Error() string {
	if renderError.Err != nil {
		return fmt.Sprintf("rendering snapshot: %s: %v", renderError.Reason, renderError.Err)
	}
	return "rendering snapshot: " + renderError.Reason
}

// Unwrap exposes the underlying cause.
func (renderError *Error) Unwrap() error {
	return renderError.Err
}

// Header returns the snapshot header line for the given instant.
func Header(renderedAt time.Time) string {
	return HeaderPrefix + utils.FormatSnapshotTimestamp(renderedAt)
}

// Render produces the full snapshot document for the forest in the
// requested format, headed by a UTC timestamp line computed from
// renderedAt. Output below the header is deterministic: rendering the
// same forest twice yields byte-identical bodies.
func Render(forest types.Forest, outputFormat string, renderedAt time.Time) (string, error) {
	switch outputFormat {
	case types.FormatMarkdown:
		return renderMarkdown(forest, renderedAt), nil
	case types.FormatJSON:
		return renderJSON(forest, renderedAt)
	default:
		return "", &Error{Reason: fmt.Sprintf(unsupportedFormatMsg, outputFormat)}
	}
}

// renderMarkdown emits one heading per root followed by indented
// bullets, one line per node, two spaces per depth level. Directories
// carry a trailing slash.
func renderMarkdown(forest types.Forest, renderedAt time.Time) string {
	var builder strings.Builder
	builder.WriteString(Header(renderedAt))
	builder.WriteString("\n\n")
	for _, rootTree := range forest {
		builder.WriteString(rootHeadingPrefix)
		builder.WriteString(rootTree.Root)
		builder.WriteString("\n")
		if rootTree.Err != nil {
			builder.WriteString(fmt.Sprintf(rootErrorNoteFormat, rootTree.Err))
			builder.WriteString("\n\n")
			continue
		}
		writeMarkdownChildren(&builder, rootTree.Node, 0)
		builder.WriteString("\n")
	}
	return builder.String()
}

// writeMarkdownChildren walks a directory node depth-first in child order.
func writeMarkdownChildren(builder *strings.Builder, directoryNode *types.TreeNode, depth int) {
	for _, childNode := range directoryNode.Children {
		builder.WriteString(strings.Repeat(markdownIndent, depth))
		builder.WriteString("- ")
		builder.WriteString(childNode.Name)
		if childNode.IsDirectory() {
			builder.WriteString(directorySuffix)
		}
		builder.WriteString("\n")
		if childNode.IsDirectory() {
			writeMarkdownChildren(builder, childNode, depth+1)
		}
	}
}

// renderJSON emits the header line followed by an indented JSON
// document whose key order follows tree child order.
func renderJSON(forest types.Forest, renderedAt time.Time) (string, error) {
	encodedForest, marshalError := json.MarshalIndent(NestedForest(forest), jsonIndentPrefix, jsonIndentSpacer)
	if marshalError != nil {
		return "", &Error{Reason: "marshaling forest", Err: marshalError}
	}
	return Header(renderedAt) + "\n" + string(encodedForest) + "\n", nil
}

// StripHeader removes the timestamp header line from a snapshot
// document, returning the comparison body. Documents without a header
// are returned unchanged.
func StripHeader(document string) string {
	if !strings.HasPrefix(document, HeaderPrefix) {
		return document
	}
	newlineIndex := strings.IndexByte(document, '\n')
	if newlineIndex < 0 {
		return ""
	}
	return document[newlineIndex+1:]
}
