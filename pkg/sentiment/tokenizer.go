package sentiment

import "strings"

// Tokenize lower-cases text, replaces every character that is neither a
// word character ([a-z0-9_]) nor whitespace with a space, and splits on runs
// of whitespace. Empty and all-punctuation input yield an empty slice.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case isWordRune(r):
			b.WriteRune(r)
		default:
			// Whitespace and punctuation both separate tokens; Fields
			// collapses the runs.
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
}

// CountPunctuation counts '!' and '?' in the unmodified text.
func CountPunctuation(text string) (exclamations, questions int) {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '!':
			exclamations++
		case '?':
			questions++
		}
	}
	return exclamations, questions
}
