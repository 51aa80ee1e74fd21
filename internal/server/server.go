// Package server contains the HTTP admin surface for the scheduler.
package server

import (
	"context"
	"net/http"
	"time"

	"kitchenline/internal/server/handlers"
	"kitchenline/internal/server/middleware"

	"golang.org/x/time/rate"
)

// Server is the HTTP server for the scheduler admin API.
type Server struct {
	httpServer *http.Server
}

// New creates the admin server. metricsHandler may be nil to disable the
// /metrics endpoint.
func New(addr string, h *handlers.Handlers, metricsHandler http.Handler) *Server {
	// One evaluate per second with a small burst keeps a chatty intake
	// service from turning the trigger into a busy loop.
	evaluateLimiter := middleware.RateLimit(rate.Limit(1), 3)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)

	mux.HandleFunc("GET /scheduler/status", h.SchedulerStatus)
	mux.Handle("POST /scheduler/evaluate", evaluateLimiter(http.HandlerFunc(h.Evaluate)))
	mux.HandleFunc("PUT /scheduler/interval", h.UpdateInterval)
	mux.HandleFunc("GET /scheduler/delay", h.DelayEstimate)
	mux.HandleFunc("GET /orders/late", h.LateOrders)

	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
