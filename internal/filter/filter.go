// Package filter decides which paths appear in a tree snapshot.
//
// A PathFilter combines three layers of rules evaluated in a fixed
// order: gitignore-style patterns reject first, explicit exclude globs
// reject second, and a non-empty include set admits only matching
// files last. Directories rejected here are pruned entirely, so their
// children are never visited by the scanner.
package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreMatcher is the already-resolved gitignore-style matcher the
// filter consults. github.com/sabhiram/go-gitignore's GitIgnore
// satisfies it.
type IgnoreMatcher interface {
	MatchesPath(relativePath string) bool
}

// PatternError reports a malformed include or exclude glob.
type PatternError struct {
	Pattern string
}

// Error implements the error interface.
func (patternError *PatternError) Error() string {
	return fmt.Sprintf("malformed glob pattern %q", patternError.Pattern)
}

// PathFilter evaluates include/exclude glob sets and an optional
// gitignore matcher against paths relative to one scan root.
type PathFilter struct {
	includeGlobs  []string
	excludeGlobs  []string
	ignoreMatcher IgnoreMatcher
}

// New constructs a PathFilter. Include patterns apply to files only;
// bare extension shorthand is accepted ("py" and ".py" both mean
// "*.py"). Exclude patterns and the ignore matcher apply to files and
// directories alike. The ignoreMatcher may be nil. A pattern doublestar
// cannot compile fails construction with a *PatternError.
func New(includePatterns, excludePatterns []string, ignoreMatcher IgnoreMatcher) (*PathFilter, error) {
	normalizedIncludes := make([]string, 0, len(includePatterns))
	for _, pattern := range includePatterns {
		normalizedPattern := normalizeIncludePattern(pattern)
		if !doublestar.ValidatePattern(normalizedPattern) {
			return nil, &PatternError{Pattern: pattern}
		}
		normalizedIncludes = append(normalizedIncludes, normalizedPattern)
	}
	for _, pattern := range excludePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, &PatternError{Pattern: pattern}
		}
	}
	return &PathFilter{
		includeGlobs:  normalizedIncludes,
		excludeGlobs:  append([]string{}, excludePatterns...),
		ignoreMatcher: ignoreMatcher,
	}, nil
}

// Admits reports whether the entry at relativePath should appear in
// the listing. relativePath is slash-normalized and relative to the
// scan root. Rejecting a directory prunes its whole subtree.
func (pathFilter *PathFilter) Admits(relativePath string, isDirectory bool) bool {
	if pathFilter.ignoreMatcher != nil {
		if pathFilter.ignoreMatcher.MatchesPath(relativePath) {
			return false
		}
		// Directory-only patterns ("build/") match the slash-suffixed form.
		if isDirectory && pathFilter.ignoreMatcher.MatchesPath(relativePath+"/") {
			return false
		}
	}
	if matchesAnyGlob(pathFilter.excludeGlobs, relativePath) {
		return false
	}
	if isDirectory {
		// Includes select files; directories stay visible so
		// matching files deeper in the tree can be reached.
		return true
	}
	if len(pathFilter.includeGlobs) == 0 {
		return true
	}
	return matchesAnyGlob(pathFilter.includeGlobs, relativePath)
}

// matchesAnyGlob reports whether any doublestar pattern matches the
// relative path or its base name. Patterns were validated by New, so
// Match cannot fail here.
func matchesAnyGlob(globPatterns []string, relativePath string) bool {
	baseName := path.Base(relativePath)
	for _, globPattern := range globPatterns {
		if matched, _ := doublestar.Match(globPattern, relativePath); matched {
			return true
		}
		if matched, _ := doublestar.Match(globPattern, baseName); matched {
			return true
		}
	}
	return false
}

// normalizeIncludePattern widens bare extension names into globs.
// "py" becomes "*.py" and ".py" becomes "*.py"; anything containing
// glob metacharacters, a path separator, or an interior dot (a literal
// file name such as "Makefile.am") is used verbatim.
func normalizeIncludePattern(pattern string) string {
	if strings.ContainsAny(pattern, "*?[{") || strings.Contains(pattern, "/") {
		return pattern
	}
	if strings.HasPrefix(pattern, ".") {
		if strings.Contains(pattern[1:], ".") {
			return pattern
		}
		return "*" + pattern
	}
	if strings.Contains(pattern, ".") {
		return pattern
	}
	return "*." + pattern
}
