package render_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BlakeFelix/tree-updater/internal/render"
	"github.com/BlakeFelix/tree-updater/internal/types"
)

func fixtureForest() types.Forest {
	return types.Forest{
		{
			Root: "src",
			Node: &types.TreeNode{
				Name: "src", Type: types.NodeTypeDirectory, RelativePath: ".",
				Children: []*types.TreeNode{
					{
						Name: "sub", Type: types.NodeTypeDirectory, RelativePath: "sub",
						Children: []*types.TreeNode{
							{Name: "c.py", Type: types.NodeTypeFile, RelativePath: "sub/c.py"},
						},
					},
					{Name: "a.py", Type: types.NodeTypeFile, RelativePath: "a.py"},
				},
			},
		},
	}
}

// TestRenderMarkdownShape verifies the header, the per-root heading,
// the indentation, and the trailing slash on directories.
func TestRenderMarkdownShape(testingHandle *testing.T) {
	renderedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	document, renderError := render.Render(fixtureForest(), types.FormatMarkdown, renderedAt)
	if renderError != nil {
		testingHandle.Fatalf("render error: %v", renderError)
	}

	expectedDocument := "# project-tree snapshot · 2026-03-14T09:26:53Z\n" +
		"\n" +
		"## src\n" +
		"- sub/\n" +
		"  - c.py\n" +
		"- a.py\n" +
		"\n"
	if document != expectedDocument {
		testingHandle.Fatalf("unexpected markdown document:\n%q\nwant:\n%q", document, expectedDocument)
	}
}

// TestRenderDeterminism verifies that rendering the same forest twice
// yields byte-identical output aside from the timestamp header.
func TestRenderDeterminism(testingHandle *testing.T) {
	forest := fixtureForest()
	firstDocument, firstError := render.Render(forest, types.FormatJSON, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	secondDocument, secondError := render.Render(forest, types.FormatJSON, time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC))
	if firstError != nil || secondError != nil {
		testingHandle.Fatalf("render errors: %v %v", firstError, secondError)
	}
	if render.StripHeader(firstDocument) != render.StripHeader(secondDocument) {
		testingHandle.Fatalf("bodies differ between renders of the same forest")
	}
	if firstDocument == secondDocument {
		testingHandle.Fatalf("headers should differ for different render times")
	}
}

// TestRenderJSONKeyOrderFollowsChildOrder verifies that the structured
// document lists keys in tree child order, not alphabetically.
func TestRenderJSONKeyOrderFollowsChildOrder(testingHandle *testing.T) {
	document, renderError := render.Render(fixtureForest(), types.FormatJSON, time.Now())
	if renderError != nil {
		testingHandle.Fatalf("render error: %v", renderError)
	}
	documentBody := render.StripHeader(document)

	subPosition := strings.Index(documentBody, `"sub"`)
	filePosition := strings.Index(documentBody, `"a.py"`)
	if subPosition < 0 || filePosition < 0 {
		testingHandle.Fatalf("expected both sub and a.py in document body:\n%s", documentBody)
	}
	if subPosition > filePosition {
		testingHandle.Fatalf("expected directory sub before file a.py in output")
	}
	if !json.Valid([]byte(documentBody)) {
		testingHandle.Fatalf("document body is not valid JSON:\n%s", documentBody)
	}
}

// TestRenderFailedRootNote verifies that a failed root renders its
// heading with an error note in Markdown and an error entry in JSON.
func TestRenderFailedRootNote(testingHandle *testing.T) {
	forest := types.Forest{{Root: "gone", Err: errors.New("stat gone: no such file")}}

	markdownDocument, markdownError := render.Render(forest, types.FormatMarkdown, time.Now())
	if markdownError != nil {
		testingHandle.Fatalf("markdown render error: %v", markdownError)
	}
	if !strings.Contains(markdownDocument, "## gone") || !strings.Contains(markdownDocument, "(error:") {
		testingHandle.Fatalf("expected heading and error note, got:\n%s", markdownDocument)
	}

	jsonDocument, jsonError := render.Render(forest, types.FormatJSON, time.Now())
	if jsonError != nil {
		testingHandle.Fatalf("json render error: %v", jsonError)
	}
	if !strings.Contains(jsonDocument, `"error"`) {
		testingHandle.Fatalf("expected error entry in JSON output, got:\n%s", jsonDocument)
	}
}

// TestNestedForestInMemory verifies the pure library entry point:
// nested structured data with key order following child order, no I/O.
func TestNestedForestInMemory(testingHandle *testing.T) {
	nestedForest := render.NestedForest(fixtureForest())
	if nestedForest.Len() != 1 {
		testingHandle.Fatalf("expected one root key, got %d", nestedForest.Len())
	}
	rootValue, exists := nestedForest.Get("src")
	if !exists {
		testingHandle.Fatalf("missing src root entry")
	}
	rootChildren, isMapping := rootValue.(*render.NestedMapping)
	if !isMapping {
		testingHandle.Fatalf("expected NestedMapping for root, got %T", rootValue)
	}
	rootKeys := rootChildren.Keys()
	if len(rootKeys) != 2 || rootKeys[0] != "sub" || rootKeys[1] != "a.py" {
		testingHandle.Fatalf("expected child-order keys [sub a.py], got %v", rootKeys)
	}

	fileValue, _ := rootChildren.Get("a.py")
	fileMapping, isMapping := fileValue.(*render.NestedMapping)
	if !isMapping {
		testingHandle.Fatalf("expected NestedMapping for file node")
	}
	if nodeType, _ := fileMapping.Get("type"); nodeType != types.NodeTypeFile {
		testingHandle.Fatalf("expected file terminal marker, got %v", nodeType)
	}
	if _, hasChildren := fileMapping.Get("children"); hasChildren {
		testingHandle.Fatalf("file nodes must not carry children")
	}
}

// TestStripHeader verifies header removal and the pass-through of
// documents without a header.
func TestStripHeader(testingHandle *testing.T) {
	document := render.Header(time.Now()) + "\nbody line\n"
	if render.StripHeader(document) != "body line\n" {
		testingHandle.Fatalf("unexpected stripped body: %q", render.StripHeader(document))
	}
	if render.StripHeader("no header here") != "no header here" {
		testingHandle.Fatalf("documents without header must pass through unchanged")
	}
}
