package storage

import (
	"reflect"
	"testing"

	"review_insights/internal/domain"
)

func TestReviewKey_StableAndDistinct(t *testing.T) {
	a := domain.Review{BankName: "CBE", SourceName: "Google Play", Text: "ok", Date: "2024-01-01"}
	b := a
	b.Date = "2024-01-02"
	if ReviewKey(a) != ReviewKey(a) {
		t.Fatal("key not stable")
	}
	if ReviewKey(a) == ReviewKey(b) {
		t.Fatal("different dates share a key")
	}
	// field boundaries matter
	c := domain.Review{BankName: "CB", SourceName: "EGoogle Play", Text: "ok", Date: "2024-01-01"}
	if ReviewKey(a) == ReviewKey(c) {
		t.Fatal("separator missing between fields")
	}
	if len(ReviewKey(a)) != 40 {
		t.Fatalf("key length = %d", len(ReviewKey(a)))
	}
}

func TestThemes_RoundTrip(t *testing.T) {
	if got := EncodeThemes(nil); got != "[]" {
		t.Fatalf("nil themes = %q", got)
	}
	in := []string{"fees", "Other"}
	if got := DecodeThemes([]byte(EncodeThemes(in))); !reflect.DeepEqual(got, in) {
		t.Fatalf("got %v", got)
	}
	if got := UniqueThemes([]string{"a", "b", "a"}); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unique = %v", got)
	}
}

func TestDateValue(t *testing.T) {
	if DateValue("2024-02-30") != nil {
		t.Fatal("invalid date accepted")
	}
	if DateValue("2024-02-29") == nil {
		t.Fatal("leap day rejected")
	}
}
