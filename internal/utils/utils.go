// Package utils contains general helper functions used across the treeupdater tool.
package utils

import (
	"time"
)

// GitIgnoreFileName is the name of the Git ignore file loaded per root.
const GitIgnoreFileName = ".gitignore"

// snapshotTimestampLayout renders a UTC timestamp with an explicit trailing Z.
const snapshotTimestampLayout = "2006-01-02T15:04:05Z"

// DeduplicateStrings removes duplicate values from a slice while preserving order.
// The first occurrence of each unique value is kept.
func DeduplicateStrings(values []string) []string {
	encounteredValues := make(map[string]struct{})
	result := make([]string, 0, len(values))
	for _, value := range values {
		if _, exists := encounteredValues[value]; !exists {
			encounteredValues[value] = struct{}{}
			result = append(result, value)
		}
	}
	return result
}

// FormatSnapshotTimestamp returns the provided time in UTC using the
// second-resolution layout that heads every snapshot document.
func FormatSnapshotTimestamp(value time.Time) string {
	return value.UTC().Format(snapshotTimestampLayout)
}
