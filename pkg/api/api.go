// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and the scheduler admin server.
package api

import "time"

// Scheduler health states derived from the driver status.
const (
	SchedulerStateOK      = "OK"
	SchedulerStateWarning = "WARNING"
	SchedulerStateStopped = "STOPPED"
)

// SchedulerStatusResponse is the response body for scheduler status queries.
type SchedulerStatusResponse struct {
	State           string     `json:"state"`
	Running         bool       `json:"running"`
	IntervalSeconds int        `json:"interval_seconds"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	LastTickAt      *time.Time `json:"last_tick_at,omitempty"`
	TickCount       uint64     `json:"tick_count"`
}

// EvaluateResponse is the response body after an on-demand admission pass.
type EvaluateResponse struct {
	FreeSlots  int `json:"free_slots"`
	Considered int `json:"considered"`
	Promoted   int `json:"promoted"`
	Skipped    int `json:"skipped"`
}

// UpdateIntervalRequest is the request body for changing the tick cadence.
type UpdateIntervalRequest struct {
	Seconds int `json:"seconds"`
}

// LateOrderResponse represents one overdue order.
type LateOrderResponse struct {
	OrderID          string    `json:"order_id"`
	Number           string    `json:"number"`
	ExpectedFinishAt time.Time `json:"expected_finish_at"`
	LateMinutes      int       `json:"late_minutes"`
}

// LateOrdersResponse is the response body for late-order queries.
type LateOrdersResponse struct {
	Count  int                 `json:"count"`
	Orders []LateOrderResponse `json:"orders"`
}

// DelayEstimateResponse carries the predicted queueing delay for a
// hypothetical new ASAP order.
type DelayEstimateResponse struct {
	DelaySeconds int `json:"delay_seconds"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
