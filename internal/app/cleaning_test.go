package app_test

import (
	"reflect"
	"testing"

	"review_insights/internal/app"
	"review_insights/internal/domain"
)

func texts(rs []domain.Review) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Text)
	}
	return out
}

func reviewsOf(ts ...string) []domain.Review {
	rs := make([]domain.Review, 0, len(ts))
	for _, t := range ts {
		rs = append(rs, domain.Review{Text: t, Rating: ptr(3), Date: "2024-01-15"})
	}
	return rs
}

func TestDeduplicate_KeepsFirstInOrder(t *testing.T) {
	rs := reviewsOf("a", "b", "a", "c", "b")
	got := app.Deduplicate(rs, app.TextKey)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(texts(got), want) {
		t.Fatalf("got %v, want %v", texts(got), want)
	}

	again := app.Deduplicate(got, app.TextKey)
	if !reflect.DeepEqual(texts(again), texts(got)) {
		t.Fatalf("dedup not idempotent: %v", texts(again))
	}
}

func TestDeduplicate_CaseSensitive(t *testing.T) {
	got := app.Deduplicate(reviewsOf("Good", "good", "good "), app.TextKey)
	if len(got) != 3 {
		t.Fatalf("expected no normalization in key, got %v", texts(got))
	}
}

func TestDuplicateRows_FlagsAllMembers(t *testing.T) {
	rs := reviewsOf("a", "b", "a", "c", "b")
	got := app.DuplicateRows(rs, app.TextKey)
	if want := []int{0, 1, 2, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if len(rs) != 5 || rs[3].Text != "c" {
		t.Fatalf("audit mutated input: %v", texts(rs))
	}
}

func TestCompositeKey_DistinguishesDateAndRating(t *testing.T) {
	rs := []domain.Review{
		{Text: "ok", Date: "2024-01-01", Rating: ptr(4)},
		{Text: "ok", Date: "2024-01-02", Rating: ptr(4)},
		{Text: "ok", Date: "2024-01-01", Rating: ptr(2)},
		{Text: "ok", Date: "2024-01-01", Rating: ptr(4)},
	}
	if got := app.Deduplicate(rs, app.CompositeKey); len(got) != 3 {
		t.Fatalf("composite dedup kept %d rows, want 3", len(got))
	}
	if got := app.Deduplicate(rs, app.TextKey); len(got) != 1 {
		t.Fatalf("text dedup kept %d rows, want 1", len(got))
	}
}

func TestIncompleteRows_AndDrop(t *testing.T) {
	rs := []domain.Review{
		{Text: "fine", Rating: ptr(5), Date: "2024-01-01"},
		{Text: "   ", Rating: ptr(5), Date: "2024-01-01"},
		{Text: "no rating", Date: "2024-01-01"},
		{Text: "", Date: ""},
		{Text: "last", Rating: ptr(1), Date: "2024-02-01"},
	}
	rep := app.IncompleteRows(rs)
	want := []app.MissingFields{
		{Row: 1, Fields: []string{"text"}},
		{Row: 2, Fields: []string{"rating"}},
		{Row: 3, Fields: []string{"text", "rating", "date"}},
	}
	if !reflect.DeepEqual(rep, want) {
		t.Fatalf("report = %+v, want %+v", rep, want)
	}

	kept := app.DropIncomplete(rs)
	if got := texts(kept); !reflect.DeepEqual(got, []string{"fine", "last"}) {
		t.Fatalf("kept %v", got)
	}
	for _, r := range kept {
		if r.Text == "" || r.Rating == nil || r.Date == "" {
			t.Fatalf("incomplete row survived: %+v", r)
		}
	}
}

func TestNormalizeDates_DropsUnparsable(t *testing.T) {
	rs := []domain.Review{
		{Text: "a", Rating: ptr(1), Date: "2024-01-15"},
		{Text: "b", Rating: ptr(1), Date: "not-a-date"},
		{Text: "c", Rating: ptr(1), Date: "02/30/2024"},
	}
	kept, bad := app.NormalizeDates(rs)
	if len(kept) != 1 || kept[0].Text != "a" || kept[0].Date != "2024-01-15" {
		t.Fatalf("kept = %+v", kept)
	}
	if len(bad) != 2 || bad[0].Row != 1 || bad[1].Row != 2 {
		t.Fatalf("bad = %+v", bad)
	}
	if bad[0].Value != "not-a-date" {
		t.Fatalf("bad value = %q", bad[0].Value)
	}
}

func TestNormalizeDates_CanonicalizesLayouts(t *testing.T) {
	cases := map[string]string{
		"2024-03-05 14:22:10": "2024-03-05",
		"2024-03-05T14:22:10Z": "2024-03-05",
		"March 5, 2024":        "2024-03-05",
		"03/05/2024":           "2024-03-05",
	}
	for in, want := range cases {
		kept, bad := app.NormalizeDates([]domain.Review{{Text: "x", Rating: ptr(2), Date: in}})
		if len(bad) != 0 || len(kept) != 1 {
			t.Fatalf("%q: unexpected drop: %v", in, bad)
		}
		if kept[0].Date != want {
			t.Fatalf("%q -> %q, want %q", in, kept[0].Date, want)
		}
	}
}
