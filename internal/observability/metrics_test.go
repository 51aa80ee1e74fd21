package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInitMetrics(t *testing.T) {
	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	if handler == nil {
		t.Fatal("expected handler to be non-nil")
	}

	// Smoke test: verify handler returns 200 and non-empty body
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if rr.Body.Len() == 0 {
		t.Error("handler returned empty body")
	}
}

func TestSchedulerMetrics_AppearInOutput(t *testing.T) {
	ctx := context.Background()

	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	m, err := NewSchedulerMetrics()
	if err != nil {
		t.Fatalf("NewSchedulerMetrics failed: %v", err)
	}

	m.RecordPass(ctx, 3, 1)
	m.SetFreeSlots(ctx, 5)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	body := rr.Body.String()
	if !strings.Contains(body, "kitchen_orders_promoted_total") {
		t.Errorf("expected promoted counter in output, got:\n%s", body)
	}
	if !strings.Contains(body, "kitchen_free_slots") {
		t.Errorf("expected free slots gauge in output, got:\n%s", body)
	}
}

func TestSchedulerMetrics_NilIsSafe(t *testing.T) {
	var m *SchedulerMetrics
	// Must not panic.
	m.RecordPass(context.Background(), 1, 0)
	m.SetFreeSlots(context.Background(), 2)
}
