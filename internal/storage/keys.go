// Package storage holds helpers shared by the SQL repositories.
package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"review_insights/internal/domain"
)

// ReviewKey identifies a stored review. Reruns over the same export upsert
// in place instead of growing the table.
func ReviewKey(r domain.Review) string {
	h := sha1.New()
	for _, part := range []string{r.BankName, r.SourceName, r.Text, r.Date} {
		h.Write([]byte(part))
		h.Write([]byte{0x1f})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func EncodeThemes(themes []string) string {
	if themes == nil {
		themes = []string{}
	}
	b, _ := json.Marshal(themes)
	return string(b)
}

func DecodeThemes(b []byte) []string {
	var out []string
	if len(b) == 0 {
		return out
	}
	_ = json.Unmarshal(b, &out)
	return out
}

// UniqueThemes drops repeats so one review counts once per theme.
func UniqueThemes(themes []string) []string {
	seen := make(map[string]bool, len(themes))
	out := make([]string, 0, len(themes))
	for _, t := range themes {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// DateValue converts a canonical YYYY-MM-DD date; unparsable dates store NULL.
func DateValue(s string) any {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return t
}

func SentimentValues(s *domain.Sentiment) (label, score any) {
	if s == nil {
		return nil, nil
	}
	return string(s.Label), s.Score
}

func RatingValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
