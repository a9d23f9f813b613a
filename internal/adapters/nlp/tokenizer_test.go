package nlp_test

import (
	"reflect"
	"testing"

	"review_insights/internal/adapters/nlp"
)

func TestSnowball_NormalizeTokens(t *testing.T) {
	tok := nlp.NewSnowball()

	got := tok.NormalizeTokens("The app CRASHES all the time, 100% of the time!!")
	want := []string{"app", "crash", "time", "time"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSnowball_Deterministic(t *testing.T) {
	tok := nlp.NewSnowball()
	in := "Hidden charges on every transfer; customer support didn't help"
	a, b := tok.NormalizeTokens(in), tok.NormalizeTokens(in)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("non-deterministic: %v vs %v", a, b)
	}
	for _, s := range a {
		if s == "on" || s == "the" {
			t.Fatalf("stop word %q survived: %v", s, a)
		}
	}
}

func TestSnowball_EmptyAndSymbols(t *testing.T) {
	if got := nlp.NewSnowball().NormalizeTokens("👍👍 123 !!!"); len(got) != 0 {
		t.Fatalf("expected no tokens, got %v", got)
	}
}
