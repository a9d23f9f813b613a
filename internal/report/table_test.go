package report

import (
	"strings"
	"testing"

	"review_insights/internal/app"
	"review_insights/internal/domain"
)

func TestTable_AlignsByDisplayWidth(t *testing.T) {
	var sb strings.Builder
	err := Table(&sb, []string{"bank", "n"}, [][]string{{"CBE", "1"}, {"ንግድ", "22"}})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[1] != "| ---- | --- |" {
		t.Fatalf("separator = %q", lines[1])
	}
	if lines[2] != "| CBE  | 1   |" {
		t.Fatalf("row = %q", lines[2])
	}
}

func TestAggregates_Columns(t *testing.T) {
	var sb strings.Builder
	_ = Aggregates(&sb, []domain.Aggregate{{GroupKey: domain.GroupKey{Bank: "BOA", Rating: 2}, MeanScore: 0.25, Count: 8}})
	out := sb.String()
	if !strings.Contains(out, "mean_sentiment_score") || !strings.Contains(out, "| BOA ") || !strings.Contains(out, "0.2500") {
		t.Fatalf("table = %q", out)
	}
}

func TestSummary(t *testing.T) {
	res := app.Result{
		RunID:    "run-1",
		Keywords: []domain.Keyword{{Term: "app", Score: 3}, {Term: "fee", Score: 2}},
		Report:   app.Report{Loaded: 10, Duplicates: 2, Output: 7},
	}
	s := Summary(res)
	if !strings.Contains(s, "run-1: 10 loaded, 2 duplicates removed") || !strings.Contains(s, "Top keywords: app, fee") {
		t.Fatalf("summary = %q", s)
	}
}
