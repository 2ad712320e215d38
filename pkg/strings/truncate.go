// Package strings holds small text helpers shared by the CLI and the
// meta-tools.
package strings

import (
	"strings"
)

// DefaultDescriptionMaxLen is the description width used by list tables.
const DefaultDescriptionMaxLen = 60

// MinTruncateLen leaves room for one character plus "...".
const MinTruncateLen = 4

// SingleLine collapses every run of whitespace, newlines included, into one
// space and trims the ends.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most maxLen runes, ending in "..." when cut.
// maxLen below MinTruncateLen is raised to MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateDescription renders a description for one table cell: single
// line, at most maxLen runes.
func TruncateDescription(s string, maxLen int) string {
	return Truncate(SingleLine(s), maxLen)
}

// FirstLine returns the first non-empty line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
