// Package nlp provides the token normalization capability used by keyword
// extraction and theme assignment.
package nlp

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"
)

// Snowball reduces text to English Snowball stems with stop words and
// non-alphabetic tokens removed. Stems stand in for lemmas; both sides of a
// theme match go through the same reduction, so the choice is consistent.
// It holds no state and is safe for concurrent use.
type Snowball struct {
	// MinLen drops shorter tokens after stop-word removal. Zero keeps all.
	MinLen int
}

func NewSnowball() *Snowball { return &Snowball{MinLen: 2} }

func (s *Snowball) NormalizeTokens(text string) []string {
	text = strings.ToLower(norm.NFKC.String(text))
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, "'")
		if w == "" || !isAlpha(w) {
			continue
		}
		if english.IsStopWord(w) {
			continue
		}
		stem := english.Stem(w, false)
		if len([]rune(stem)) < s.MinLen {
			continue
		}
		out = append(out, stem)
	}
	return out
}

func isAlpha(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
