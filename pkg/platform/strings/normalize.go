// Package strings normalizes user-entered text.
package strings

import (
	"strings"
)

// CollapseSpace trims s and folds inner whitespace runs to one space.
//
//	CollapseSpace("  Rahim   Tailoring \t Shop ") // "Rahim Tailoring Shop"
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DistinctFold collapses whitespace in each item, drops blanks and keeps
// the first spelling of items equal under case folding. A nil or empty
// input yields an empty, non-nil slice.
//
//	DistinctFold([]string{" NID  copy ", "Trade license", "nid copy", ""})
//	// []string{"NID copy", "Trade license"}
func DistinctFold(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = CollapseSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
