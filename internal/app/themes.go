package app

import (
	"sort"
	"strings"
	"unicode"

	"review_insights/internal/domain"
)

type compiledTheme struct {
	name string
	// words are keywords as lowercase words, matched against the words of
	// the review text. stems are the tokenizer form, kept only when the
	// tokenizer dropped none of the keyword's words.
	words [][]string
	stems [][]string
}

// ThemeAssigner tags reviews with every theme whose keyword appears as a
// whole word, or a contiguous run of whole words for multi-word keywords.
// Keywords are also matched in their normalized form, so "charges" still
// matches a review the tokenizer reduced to "charg".
type ThemeAssigner struct {
	tok    domain.Tokenizer
	themes []compiledTheme
}

func NewThemeAssigner(vocab domain.ThemeVocabulary, tok domain.Tokenizer) *ThemeAssigner {
	names := make([]string, 0, len(vocab))
	for name := range vocab {
		names = append(names, name)
	}
	sort.Strings(names)

	a := &ThemeAssigner{tok: tok}
	for _, name := range names {
		ct := compiledTheme{name: name}
		seen := map[string]struct{}{}
		add := func(dst *[][]string, kind string, p []string) {
			if len(p) == 0 {
				return
			}
			k := kind + ":" + strings.Join(p, " ")
			if _, ok := seen[k]; ok {
				return
			}
			seen[k] = struct{}{}
			*dst = append(*dst, p)
		}
		for _, kw := range vocab[name] {
			words := lowerWords(kw)
			add(&ct.words, "w", words)
			// "not working" normalizes to [work]; that shorter phrase would
			// match "works great", so it is not used
			if norm := tok.NormalizeTokens(kw); len(norm) == len(words) {
				add(&ct.stems, "s", norm)
			}
		}
		a.themes = append(a.themes, ct)
	}
	return a
}

// lowerWords splits text into lowercase runs of letters, digits and
// apostrophes.
func lowerWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// containsPhrase reports whether p occurs as a contiguous token run in toks.
func containsPhrase(toks, p []string) bool {
	if len(p) > len(toks) {
		return false
	}
outer:
	for i := 0; i+len(p) <= len(toks); i++ {
		for j := range p {
			if toks[i+j] != p[j] {
				continue outer
			}
		}
		return true
	}
	return false
}

// Match returns the themes for one token sequence, in theme name order, or
// exactly [Other] when nothing matches. toks stands in for both the review
// words and its normalized tokens.
func (a *ThemeAssigner) Match(toks []string) []string {
	return a.match(toks, toks)
}

func (a *ThemeAssigner) match(words, toks []string) []string {
	var out []string
	for _, t := range a.themes {
		if anyPhrase(words, t.words) || anyPhrase(toks, t.stems) {
			out = append(out, t.name)
		}
	}
	if len(out) == 0 {
		return []string{domain.OtherTheme}
	}
	return out
}

func anyPhrase(seq []string, phrases [][]string) bool {
	for _, p := range phrases {
		if containsPhrase(seq, p) {
			return true
		}
	}
	return false
}

// Assign sets Themes on every review. Reuses cached Tokens when present.
func (a *ThemeAssigner) Assign(rs []domain.Review) {
	tokenize(a.tok, rs)
	for i := range rs {
		rs[i].Themes = a.match(lowerWords(rs[i].Text), rs[i].Tokens)
	}
}
