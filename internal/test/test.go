// Package test provides testing utilities shared by the inliner packages.
//
// This follows esbuild's testing patterns with helper functions
// for assertions, diffs, and common test patterns.
package test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// AssertEqual checks if two values are equal and reports a test error if not.
func AssertEqual[T comparable](t *testing.T, actual, expected T) {
	t.Helper()
	if actual != expected {
		t.Errorf("\nexpected: %v\nactual:   %v", expected, actual)
	}
}

// AssertEqualWithDiff checks if two strings are equal and shows a diff if not.
func AssertEqualWithDiff(t *testing.T, actual, expected string) {
	t.Helper()
	if actual != expected {
		t.Errorf("\n%s", Diff(expected, actual))
	}
}

// AssertDeepEqual compares arbitrary values structurally.
func AssertDeepEqual(t *testing.T, actual, expected any, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("mismatch (-expected +actual):\n%s", diff)
	}
}

// Diff produces a line-by-line diff between two strings. Compact printer
// output is split at statement terminators so single-line programs still
// diff usefully.
func Diff(expected, actual string) string {
	return cmp.Diff(splitLines(expected), splitLines(actual))
}

func splitLines(s string) []string {
	if !strings.Contains(s, "\n") {
		s = strings.ReplaceAll(s, ";", ";\n")
	}
	return strings.Split(s, "\n")
}
