package caption

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Characters removed from either end of a word. Curly quotes are included
// because transcription models emit them interchangeably with ASCII quotes.
const edgePunctuation = ".,!?;:\"“”‘’"

func isEdgeRune(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(edgePunctuation, r)
}

// NormalizeWord strips surrounding punctuation and whitespace from a
// transcribed word and uppercases it. Punctuation inside the word, such as
// the apostrophe in a contraction, is kept.
func NormalizeWord(raw string) string {
	trimmed := strings.TrimFunc(raw, isEdgeRune)
	if trimmed == "" {
		return ""
	}
	// Casers carry state and are not safe to share.
	return cases.Upper(language.Und).String(trimmed)
}
