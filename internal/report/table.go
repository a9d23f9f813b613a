// Package report renders run results as aligned plain-text tables for the
// terminal and chat notifications.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"review_insights/internal/app"
	"review_insights/internal/domain"
)

// Table writes a markdown-style table padded by display width, so bank names
// in non-Latin scripts still line up.
func Table(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = max(3, runewidth.StringWidth(h))
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	line := func(cells []string, sep bool) string {
		var sb strings.Builder
		sb.WriteString("|")
		for j := range widths {
			sb.WriteString(" ")
			if sep {
				sb.WriteString(strings.Repeat("-", widths[j]))
			} else {
				content := ""
				if j < len(cells) {
					content = cells[j]
				}
				sb.WriteString(runewidth.FillRight(content, widths[j]))
			}
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
		return sb.String()
	}

	if _, err := io.WriteString(w, line(header, false)+line(nil, true)); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := io.WriteString(w, line(row, false)); err != nil {
			return err
		}
	}
	return nil
}

func Aggregates(w io.Writer, aggs []domain.Aggregate) error {
	rows := make([][]string, 0, len(aggs))
	for _, a := range aggs {
		rows = append(rows, []string{a.Bank, strconv.Itoa(a.Rating), strconv.FormatFloat(a.MeanScore, 'f', 4, 64), strconv.Itoa(a.Count)})
	}
	return Table(w, []string{"bank_name", "rating", "mean_sentiment_score", "count"}, rows)
}

func Keywords(w io.Writer, kws []domain.Keyword) error {
	rows := make([][]string, 0, len(kws))
	for i, k := range kws {
		rows = append(rows, []string{strconv.Itoa(i + 1), k.Term, strconv.FormatFloat(k.Score, 'f', 4, 64)})
	}
	return Table(w, []string{"#", "keyword", "score"}, rows)
}

// Summary is the one-paragraph run digest posted to chat.
func Summary(res app.Result) string {
	r := res.Report
	var sb strings.Builder
	fmt.Fprintf(&sb, "Review pipeline run %s: %d loaded, %d duplicates removed, %d incomplete, %d bad dates, %d enriched",
		res.RunID, r.Loaded, r.Duplicates, len(r.Incomplete), len(r.BadDates), r.Output)
	if n := len(r.SchemaErrors); n > 0 {
		fmt.Fprintf(&sb, " (%d sources rejected)", n)
	}
	sb.WriteString(".\n")
	if len(res.Keywords) > 0 {
		top := res.Keywords
		if len(top) > 5 {
			top = top[:5]
		}
		terms := make([]string, 0, len(top))
		for _, k := range top {
			terms = append(terms, k.Term)
		}
		fmt.Fprintf(&sb, "Top keywords: %s\n", strings.Join(terms, ", "))
	}
	if len(res.Aggregates) > 0 {
		sb.WriteString("```\n")
		_ = Aggregates(&sb, res.Aggregates)
		sb.WriteString("```\n")
	}
	return sb.String()
}
