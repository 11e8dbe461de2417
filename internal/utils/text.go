package utils

import (
	"strings"
	"unicode/utf8"
)

// RuneLen counts characters the way a reader would, not bytes. Tamil letters
// are three bytes each in UTF-8.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate keeps at most max runes of s. Truncating an already truncated
// string to the same max returns it unchanged.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// CollapseSpace replaces runs of whitespace with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
