package scan

import (
	"fmt"
	"strings"
)

// RootError records the failure of a single root's scan.
type RootError struct {
	Root string
	Err  error
}

// Error implements the error interface.
func (rootError *RootError) Error() string {
	return fmt.Sprintf("scanning %s: %v", rootError.Root, rootError.Err)
}

// Unwrap exposes the underlying cause.
func (rootError *RootError) Unwrap() error {
	return rootError.Err
}

// Error reports that every configured root failed to scan. Individual
// causes remain available for per-root reporting.
type Error struct {
	Causes []*RootError
}

// Error implements the error interface.
func (scanError *Error) Error() string {
	causeTexts := make([]string, 0, len(scanError.Causes))
	for _, cause := range scanError.Causes {
		causeTexts = append(causeTexts, cause.Error())
	}
	return fmt.Sprintf("all %d roots failed: %s", len(scanError.Causes), strings.Join(causeTexts, "; "))
}
