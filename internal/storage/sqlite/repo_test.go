package sqlite_test

import (
	"context"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"review_insights/internal/domain"
	"review_insights/internal/storage/sqlite"
)

func pint(i int) *int { return &i }

func seed() []domain.Review {
	return []domain.Review{
		{Text: "fee too high", Rating: pint(1), Date: "2024-01-10", BankName: "CBE", SourceName: "Google Play",
			Sentiment: &domain.Sentiment{Label: domain.Negative, Score: 0.1}, Themes: []string{"fees"}},
		{Text: "hidden fee", Rating: pint(1), Date: "2024-01-09", BankName: "CBE", SourceName: "Google Play",
			Sentiment: &domain.Sentiment{Label: domain.Negative, Score: 0.3}, Themes: []string{"fees", "fees"}},
		{Text: "great app", Rating: pint(5), Date: "2024-01-12", BankName: "CBE", SourceName: "Google Play",
			Sentiment: &domain.Sentiment{Label: domain.Positive, Score: 0.9}, Themes: []string{"Other"}},
		{Text: "otp fails", Rating: pint(2), Date: "2024-01-11", BankName: "BOA", SourceName: "Google Play",
			Themes: []string{"access"}},
	}
}

func TestRepo_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "reviews.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	for i := 0; i < 2; i++ {
		if err := repo.UpsertReviews(ctx, seed()); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}
	page, err := repo.ListReviews(ctx, domain.ReviewQuery{Limit: 100})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 4 {
		t.Fatalf("expected 4 rows after rerun, got %d", len(page.Items))
	}
	// newest first
	if page.Items[0].Text != "great app" || page.Items[0].Sentiment == nil || page.Items[0].Sentiment.Score != 0.9 {
		t.Fatalf("first row = %+v", page.Items[0])
	}
	if last := page.Items[3]; last.Text != "hidden fee" || !reflect.DeepEqual(last.Themes, []string{"fees", "fees"}) || *last.Rating != 1 {
		t.Fatalf("last row = %+v", last)
	}
}

func TestRepo_QueriesFilterAndGroup(t *testing.T) {
	ctx := context.Background()
	repo, err := sqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()
	if err := repo.UpsertReviews(ctx, seed()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	fees, err := repo.ListReviews(ctx, domain.ReviewQuery{Bank: "CBE", Theme: "fees", Limit: 10})
	if err != nil || len(fees.Items) != 2 {
		t.Fatalf("theme filter: %v %+v", err, fees.Items)
	}
	if boa, _ := repo.ListReviews(ctx, domain.ReviewQuery{Bank: "BOA"}); len(boa.Items) != 1 || boa.Items[0].Sentiment != nil {
		t.Fatalf("bank filter: %+v", boa.Items)
	}

	aggs, err := repo.Aggregates(ctx, "")
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	// BOA has no scored review and forms no group
	if len(aggs) != 2 || aggs[0].Bank != "CBE" || aggs[0].Rating != 1 || aggs[0].Count != 2 || math.Abs(aggs[0].MeanScore-0.2) > 1e-9 {
		t.Fatalf("aggregates = %+v", aggs)
	}

	tc, err := repo.ThemeCounts(ctx, "CBE")
	if err != nil {
		t.Fatalf("theme counts: %v", err)
	}
	want := []domain.ThemeCount{{Bank: "CBE", Theme: "fees", Count: 2}, {Bank: "CBE", Theme: "Other", Count: 1}}
	if !reflect.DeepEqual(tc, want) {
		t.Fatalf("theme counts = %+v, want %+v", tc, want)
	}

	if err := repo.SaveRun(ctx, domain.Run{ID: "r1", Loaded: 5, Output: 4}); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := repo.SaveRun(ctx, domain.Run{ID: "r1", Loaded: 6, Output: 4}); err != nil {
		t.Fatalf("save run twice: %v", err)
	}
}

func TestRepo_FiltersIgnoreCase(t *testing.T) {
	ctx := context.Background()
	repo, err := sqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()
	if err := repo.UpsertReviews(ctx, seed()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	page, err := repo.ListReviews(ctx, domain.ReviewQuery{Bank: "cbe", Theme: "FEES", Limit: 10})
	if err != nil || len(page.Items) != 2 {
		t.Fatalf("lowercase bank/theme: %v %+v", err, page.Items)
	}
	aggs, err := repo.Aggregates(ctx, "cbe")
	if err != nil || len(aggs) != 2 || aggs[0].Bank != "CBE" {
		t.Fatalf("aggregates(cbe) = %v %+v", err, aggs)
	}
	tc, err := repo.ThemeCounts(ctx, "Cbe")
	if err != nil || len(tc) != 2 {
		t.Fatalf("theme counts(Cbe) = %v %+v", err, tc)
	}
}
