package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSRW_DefaultsToOK(t *testing.T) {
	sw := &srw{ResponseWriter: httptest.NewRecorder()}
	if sw.Status() != http.StatusOK {
		t.Fatalf("status = %d", sw.Status())
	}
	sw.WriteHeader(http.StatusTeapot)
	sw.WriteHeader(http.StatusOK) // first write wins
	if sw.Status() != http.StatusTeapot {
		t.Fatalf("status = %d", sw.Status())
	}
}

func TestRouteLabel_UnmatchedOutsideRouter(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/random/123", nil)
	if got := routeLabel(r); got != "unmatched" {
		t.Fatalf("label = %q", got)
	}
}

func TestRemoteIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	if got := remoteIP(r); got != "10.0.0.1" {
		t.Fatalf("xff = %q", got)
	}
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	if got := remoteIP(r); got != "192.0.2.7" {
		t.Fatalf("remote = %q", got)
	}
}
