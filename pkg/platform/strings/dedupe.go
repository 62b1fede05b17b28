// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
	"unicode/utf8"
)

// TrimEach trims whitespace from every element and drops empty ones.
// Order is preserved and duplicates are kept.
//
//	TrimEach([]string{"  a ", "", "b", "a"})
//	// Returns: []string{"a", "b", "a"}
func TrimEach(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// ContainsFold reports whether substr is within s, ignoring case.
// An empty substr matches everything.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// RuneLen counts characters, not bytes, for length limits on user text.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
