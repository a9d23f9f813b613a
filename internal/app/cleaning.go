package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"review_insights/internal/domain"
)

const canonicalDate = "2006-01-02"

// DedupKey selects what makes two reviews duplicates.
type DedupKey func(domain.Review) string

// TextKey is exact, case-sensitive equality of the review text.
func TextKey(r domain.Review) string { return r.Text }

// CompositeKey treats reviews as duplicates only when text, date and rating
// all match. Acquisition uses this; the cleaning pipeline uses TextKey.
func CompositeKey(r domain.Review) string {
	rating := ""
	if r.Rating != nil {
		rating = strconv.Itoa(*r.Rating)
	}
	return strings.Join([]string{r.Text, r.Date, rating}, "\x1f")
}

// Deduplicate keeps the first occurrence of each key, preserving order.
func Deduplicate(rs []domain.Review, key DedupKey) []domain.Review {
	seen := make(map[string]struct{}, len(rs))
	out := make([]domain.Review, 0, len(rs))
	for _, r := range rs {
		k := key(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// DuplicateRows returns the indexes of every row whose key occurs more than
// once, first occurrences included, in ascending order. Read-only.
func DuplicateRows(rs []domain.Review, key DedupKey) []int {
	counts := make(map[string]int, len(rs))
	for _, r := range rs {
		counts[key(r)]++
	}
	var idx []int
	for i, r := range rs {
		if counts[key(r)] > 1 {
			idx = append(idx, i)
		}
	}
	return idx
}

// MissingFields names the required fields absent from one row.
type MissingFields struct {
	Row    int      `json:"row"`
	Fields []string `json:"fields"`
}

func missing(r domain.Review) []string {
	var f []string
	if strings.TrimSpace(r.Text) == "" {
		f = append(f, "text")
	}
	if r.Rating == nil {
		f = append(f, "rating")
	}
	if strings.TrimSpace(r.Date) == "" {
		f = append(f, "date")
	}
	return f
}

// IncompleteRows reports which rows DropIncomplete would remove, and why.
func IncompleteRows(rs []domain.Review) []MissingFields {
	var out []MissingFields
	for i, r := range rs {
		if f := missing(r); len(f) > 0 {
			out = append(out, MissingFields{Row: i, Fields: f})
		}
	}
	return out
}

// DropIncomplete removes rows missing text, rating or date.
func DropIncomplete(rs []domain.Review) []domain.Review {
	out := make([]domain.Review, 0, len(rs))
	for _, r := range rs {
		if len(missing(r)) == 0 {
			out = append(out, r)
		}
	}
	return out
}

// parseDate accepts any layout dateparse recognizes and reduces it to a
// calendar date. Impossible dates (Feb 30) fail rather than roll over.
func parseDate(s string) (string, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return "", err
	}
	return t.Format(canonicalDate), nil
}

// NormalizeDates rewrites every date to YYYY-MM-DD and drops rows that do
// not parse. Must run after DropIncomplete.
func NormalizeDates(rs []domain.Review) ([]domain.Review, []*domain.ParseError) {
	out := make([]domain.Review, 0, len(rs))
	var bad []*domain.ParseError
	for i, r := range rs {
		d, err := parseDate(r.Date)
		if err != nil {
			bad = append(bad, &domain.ParseError{Row: i, Value: r.Date, Err: err})
			continue
		}
		r.Date = d
		out = append(out, r)
	}
	return out, bad
}
