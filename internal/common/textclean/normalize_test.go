package textclean

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only whitespace", " \n\t \n ", ""},
		{"trims outer whitespace", "  hello world \n", "hello world"},
		{"paragraph break becomes space", "first\n\nsecond", "first second"},
		{"four newlines become one space", "first\n\n\n\nsecond", "first second"},
		{"three newlines keep one", "first\n\n\nsecond", "first \nsecond"},
		{"long space run collapses to two", "a      b", "a  b"},
		{"two spaces stay", "a  b", "a  b"},
		{"tabs removed", "a\tb\t\tc", "abc"},
		{"tabs between spaces do not leave long runs", "a \t \t b", "a  b"},
		{"newline runs with whitespace collapse", "a\n \n  \nb", "a\nb"},
		{"single newline kept", "line one\nline two", "line one\nline two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Truncates(t *testing.T) {
	input := strings.Repeat("word ", MaxLength)
	out := Normalize(input)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), MaxLength)
	assert.True(t, strings.HasPrefix(input, out))
}

func TestNormalize_TruncatesByCharacter(t *testing.T) {
	input := strings.Repeat("é", MaxLength+10)
	out := Normalize(input)
	assert.Equal(t, MaxLength, utf8.RuneCountInString(out))
	assert.True(t, utf8.ValidString(out))
}

// ==========================================================================
// Property checks over random whitespace-heavy inputs
// ==========================================================================

func randomText(r *rand.Rand, n int) string {
	alphabet := []string{"a", "b", " ", " ", "\n", "\n", "\t", "\r", "é", ".", "  \n", "\n\n\n\n"}
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(alphabet[r.Intn(len(alphabet))])
	}
	return b.String()
}

func TestNormalize_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	inputs := []string{
		strings.Repeat("\n \t", 5000),
		strings.Repeat("x", MaxLength-1) + "      \n\n\n\n y",
		strings.Repeat("ab ", MaxLength/2),
	}
	for i := 0; i < 500; i++ {
		inputs = append(inputs, randomText(r, r.Intn(400)))
	}

	for _, in := range inputs {
		once := Normalize(in)

		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", truncateForLog(in))
		assert.LessOrEqual(t, utf8.RuneCountInString(once), MaxLength)
		assert.NotContains(t, once, "\t")
		assert.NotContains(t, once, "\n\n")
		assert.NotContains(t, once, "   ")
	}
}

func truncateForLog(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
