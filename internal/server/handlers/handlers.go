// Package handlers contains HTTP handlers for the scheduler admin API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"kitchenline/internal/scheduler"
	"kitchenline/internal/store"
	"kitchenline/pkg/api"
)

// Pinger checks storage connectivity for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DriverControl is the slice of the periodic driver the API exposes.
type DriverControl interface {
	Status() scheduler.Status
	UpdateInterval(seconds int) error
}

// PassRunner runs one on-demand admission pass.
type PassRunner interface {
	RunPass(ctx context.Context) (scheduler.PassResult, error)
}

// LateReader lists overdue orders.
type LateReader interface {
	LateOrders(ctx context.Context, now time.Time) ([]store.LateOrder, error)
}

// DelayPredictor estimates intake-side queueing delay.
type DelayPredictor interface {
	PredictDelay(ctx context.Context) time.Duration
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store     Pinger
	driver    DriverControl
	engine    PassRunner
	orders    LateReader
	predictor DelayPredictor

	now func() time.Time // swappable in tests
}

// New creates a new Handlers instance.
func New(store Pinger, driver DriverControl, engine PassRunner, orders LateReader, predictor DelayPredictor) *Handlers {
	return &Handlers{
		store:     store,
		driver:    driver,
		engine:    engine,
		orders:    orders,
		predictor: predictor,
		now:       time.Now,
	}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
