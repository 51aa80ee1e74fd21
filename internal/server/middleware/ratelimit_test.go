package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_BurstThenRejects(t *testing.T) {
	handler := RateLimit(rate.Limit(1), 2)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/scheduler/evaluate", nil)
		req.RemoteAddr = "10.0.0.1:55000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests rejected: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request not limited: %v", codes)
	}
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	handler := RateLimit(rate.Limit(1), 1)(okHandler())

	first := httptest.NewRequest(http.MethodPost, "/scheduler/evaluate", nil)
	first.RemoteAddr = "10.0.0.1:55000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, first)
	if w.Code != http.StatusOK {
		t.Fatalf("first client rejected: %d", w.Code)
	}

	// Exhausted for the first client.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, first)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("first client not limited: %d", w.Code)
	}

	// A different client has its own budget.
	second := httptest.NewRequest(http.MethodPost, "/scheduler/evaluate", nil)
	second.RemoteAddr = "10.0.0.2:55000"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, second)
	if w.Code != http.StatusOK {
		t.Errorf("second client throttled by the first: %d", w.Code)
	}
}
