// Package textclean turns extracted page text into bounded, model-friendly plain text.
package textclean

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxLength is the maximum number of characters Normalize returns.
const MaxLength = 100000

var (
	manyNewlines   = regexp.MustCompile(`\n{4,}`)
	manySpaces     = regexp.MustCompile(` {3,}`)
	newlineRunsExt = regexp.MustCompile(`\n+(\s*\n)*`)
)

// Normalize collapses whitespace and truncates s to MaxLength characters.
// It is total and idempotent.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = manyNewlines.ReplaceAllString(s, "\n\n")
	s = strings.ReplaceAll(s, "\n\n", " ")
	// tabs go before the space collapse so removing one never joins two space runs
	s = strings.ReplaceAll(s, "\t", "")
	s = manySpaces.ReplaceAllString(s, "  ")
	s = newlineRunsExt.ReplaceAllString(s, "\n")
	s = truncate(s, MaxLength)
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
