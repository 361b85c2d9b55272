package render

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Text is a sanitized string. The zero value is the empty text; any other
// value can only be produced by Sanitize.
type Text struct {
	value string
}

// Sanitize is the single entry point for server and user supplied strings.
// It strips terminal escape sequences, control characters other than
// newline and tab, and bidirectional overrides that could disguise content.
func Sanitize(s string) Text {
	if s == "" {
		return Text{}
	}
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r), isBidiControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	return Text{value: b.String()}
}

func isBidiControl(r rune) bool {
	return (r >= '\u202a' && r <= '\u202e') || (r >= '\u2066' && r <= '\u2069')
}

func (t Text) String() string {
	return t.value
}

// Empty reports whether the text has no visible content.
func (t Text) Empty() bool {
	return strings.TrimSpace(t.value) == ""
}
