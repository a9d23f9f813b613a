package httpx

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	if d := RetryAfter(resp); d != 0 {
		t.Fatalf("absent header: %v", d)
	}
	resp.Header.Set("Retry-After", "3")
	if d := RetryAfter(resp); d != 3*time.Second {
		t.Fatalf("seconds form: %v", d)
	}
	resp.Header.Set("Retry-After", "soon")
	if d := RetryAfter(resp); d != 0 {
		t.Fatalf("garbage: %v", d)
	}
}

func TestBackoff_Bounds(t *testing.T) {
	for i := 0; i < 3; i++ {
		base := time.Duration(1<<i) * 200 * time.Millisecond
		d := Backoff(i)
		if d < base || d > base+base/2 {
			t.Fatalf("attempt %d: %v outside [%v, %v]", i, d, base, base+base/2)
		}
	}
}

func TestSleepCtx_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if SleepCtx(ctx, time.Minute) {
		t.Fatal("expected early return on canceled context")
	}
	if !SleepCtx(context.Background(), 0) {
		t.Fatal("zero duration should not block")
	}
}

func TestRetryable(t *testing.T) {
	for _, s := range []int{429, 500, 502, 503, 504} {
		if !Retryable(s) {
			t.Fatalf("%d should retry", s)
		}
	}
	for _, s := range []int{200, 400, 401, 404} {
		if Retryable(s) {
			t.Fatalf("%d should not retry", s)
		}
	}
}
