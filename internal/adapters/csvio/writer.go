package csvio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"review_insights/internal/domain"
)

var enrichedHeader = []string{
	"text", "rating", "date", "bank_name", "source_name",
	"sentiment_label", "sentiment_score", "themes",
}

// RawHeader is the column layout written by the ingestor.
var RawHeader = []string{"review_text", "rating", "date", "bank_name", "source"}

func formatScore(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// WriteEnriched writes one row per review. Themes are a JSON array so they
// round-trip through ReadEnriched.
func WriteEnriched(w io.Writer, rs []domain.Review) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(enrichedHeader); err != nil {
		return err
	}
	for _, r := range rs {
		rating, label, score := "", "", ""
		if r.Rating != nil {
			rating = strconv.Itoa(*r.Rating)
		}
		if r.Sentiment != nil {
			label, score = string(r.Sentiment.Label), formatScore(r.Sentiment.Score)
		}
		themes := r.Themes
		if themes == nil {
			themes = []string{}
		}
		tj, err := json.Marshal(themes)
		if err != nil {
			return err
		}
		if err := cw.Write([]string{r.Text, rating, r.Date, r.BankName, r.SourceName, label, score, string(tj)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadEnriched parses the output of WriteEnriched.
func ReadEnriched(r io.Reader) ([]domain.Review, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	col := map[string]int{}
	for i, h := range rows[0] {
		col[h] = i
	}
	for _, h := range enrichedHeader {
		if _, ok := col[h]; !ok {
			return nil, &domain.SchemaError{Source: "enriched csv", Missing: h, Columns: rows[0]}
		}
	}

	out := make([]domain.Review, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rv := domain.Review{
			Text:       row[col["text"]],
			Date:       row[col["date"]],
			BankName:   row[col["bank_name"]],
			SourceName: row[col["source_name"]],
		}
		if s := row[col["rating"]]; s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("row %d: rating: %w", n+2, err)
			}
			rv.Rating = &v
		}
		if lbl := row[col["sentiment_label"]]; lbl != "" {
			score, err := strconv.ParseFloat(row[col["sentiment_score"]], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: sentiment_score: %w", n+2, err)
			}
			rv.Sentiment = &domain.Sentiment{Label: domain.SentimentLabel(lbl), Score: score}
		}
		if err := json.Unmarshal([]byte(row[col["themes"]]), &rv.Themes); err != nil {
			return nil, fmt.Errorf("row %d: themes: %w", n+2, err)
		}
		out = append(out, rv)
	}
	return out, nil
}

func WriteAggregates(w io.Writer, aggs []domain.Aggregate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"bank_name", "rating", "mean_sentiment_score", "count"}); err != nil {
		return err
	}
	for _, a := range aggs {
		if err := cw.Write([]string{a.Bank, strconv.Itoa(a.Rating), formatScore(a.MeanScore), strconv.Itoa(a.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRaw writes acquired reviews in the raw layout.
func WriteRaw(w io.Writer, rs []domain.Review) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RawHeader); err != nil {
		return err
	}
	for _, r := range rs {
		rating := ""
		if r.Rating != nil {
			rating = strconv.Itoa(*r.Rating)
		}
		if err := cw.Write([]string{r.Text, rating, r.Date, r.BankName, r.SourceName}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path (and its directory) and fills it with write.
func WriteFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
