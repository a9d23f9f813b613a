package app

import (
	"sort"
	"strconv"
	"strings"

	"review_insights/internal/domain"
)

/********** alias registry (single source of truth) **********/

// Matched against lowercased, trimmed column names.
var reviewAliases = map[string][]string{
	"text":   {"review_text", "text", "review", "content", "comment", "body", "message"},
	"rating": {"rating", "score", "stars", "rate", "star_rating"},
	"date":   {"date", "at", "review_date", "created_at", "timestamp", "time"},
	"bank":   {"bank_name", "bank", "app_name", "entity"},
	"source": {"source_name", "source", "platform", "channel", "store"},
}

/********** tiny helpers **********/

func canonicalColumn(c string) string { return strings.ToLower(strings.TrimSpace(c)) }

// columnIndex maps canonical column name -> original column name. The first
// original spelling wins when two columns canonicalize to the same name.
func columnIndex(cols []string) map[string]string {
	idx := make(map[string]string, len(cols))
	for _, c := range cols {
		k := canonicalColumn(c)
		if _, ok := idx[k]; !ok {
			idx[k] = c
		}
	}
	return idx
}

// resolve returns the original column name for the first alias present.
func resolve(idx map[string]string, key string) (string, bool) {
	for _, a := range reviewAliases[key] {
		if orig, ok := idx[a]; ok {
			return orig, true
		}
	}
	return "", false
}

func batchColumns(b domain.RawBatch) []string {
	if len(b.Columns) > 0 {
		return b.Columns
	}
	seen := map[string]struct{}{}
	var cols []string
	for _, r := range b.Records {
		for k := range r {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// parseRating accepts "4", "4.0", " 4,0 ". Anything else is treated as absent.
func parseRating(s string) *int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

/********** schema normalizer **********/

// mapBatch canonicalizes one raw source into reviews. Bank and source tags
// come from columns when present, else from the batch and defaultSource.
func mapBatch(b domain.RawBatch, defaultSource string) ([]domain.Review, error) {
	cols := batchColumns(b)
	idx := columnIndex(cols)

	textCol, ok := resolve(idx, "text")
	if !ok {
		return nil, &domain.SchemaError{Source: b.Source, Missing: "text", Columns: cols}
	}
	ratingCol, hasRating := resolve(idx, "rating")
	dateCol, hasDate := resolve(idx, "date")
	bankCol, hasBank := resolve(idx, "bank")
	sourceCol, hasSource := resolve(idx, "source")

	out := make([]domain.Review, 0, len(b.Records))
	for _, r := range b.Records {
		rv := domain.Review{Text: r[textCol], BankName: b.Bank, SourceName: defaultSource}
		if hasRating {
			rv.Rating = parseRating(r[ratingCol])
		}
		if hasDate {
			rv.Date = strings.TrimSpace(r[dateCol])
		}
		if hasBank {
			if s := strings.TrimSpace(r[bankCol]); s != "" {
				rv.BankName = s
			}
		}
		if hasSource {
			if s := strings.TrimSpace(r[sourceCol]); s != "" {
				rv.SourceName = s
			}
		}
		out = append(out, rv)
	}
	return out, nil
}

// NormalizeSchema maps every batch and concatenates the results in batch
// order. A SchemaError only discards its own batch.
func NormalizeSchema(batches []domain.RawBatch, defaultSource string) ([]domain.Review, []error) {
	var (
		out  []domain.Review
		errs []error
	)
	for _, b := range batches {
		rs, err := mapBatch(b, defaultSource)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, rs...)
	}
	return out, errs
}
