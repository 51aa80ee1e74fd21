package handlers

import (
	"encoding/json"
	"net/http"

	"kitchenline/internal/scheduler"
	"kitchenline/pkg/api"
)

// SchedulerStatus reports the driver run state with an OK/WARNING/STOPPED
// classification: the scheduler is OK while ticks are recent, WARNING once
// the last tick is older than twice the interval, STOPPED when not running.
func (h *Handlers) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	st := h.driver.Status()

	resp := api.SchedulerStatusResponse{
		State:           h.classify(st),
		Running:         st.Running,
		IntervalSeconds: int(st.Interval.Seconds()),
		TickCount:       st.TickCount,
	}
	if !st.StartedAt.IsZero() {
		t := st.StartedAt
		resp.StartedAt = &t
	}
	if !st.LastTickAt.IsZero() {
		t := st.LastTickAt
		resp.LastTickAt = &t
	}

	h.respondJson(w, http.StatusOK, resp)
}

func (h *Handlers) classify(st scheduler.Status) string {
	if !st.Running {
		return api.SchedulerStateStopped
	}

	// Before the first recorded tick, measure from the start time.
	ref := st.LastTickAt
	if ref.IsZero() {
		ref = st.StartedAt
	}
	if h.now().Sub(ref) > 2*st.Interval {
		return api.SchedulerStateWarning
	}
	return api.SchedulerStateOK
}

// Evaluate runs one admission pass immediately. The order-intake service
// calls this right after accepting a new ASAP order so the order does not
// wait for the next tick.
func (h *Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.RunPass(r.Context())
	if err != nil {
		h.httpError(w, "Admission pass failed", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.EvaluateResponse{
		FreeSlots:  result.FreeSlots,
		Considered: result.Considered,
		Promoted:   result.Promoted,
		Skipped:    result.Skipped,
	})
}

// UpdateInterval changes the tick cadence at runtime.
func (h *Handlers) UpdateInterval(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateIntervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Seconds < 1 {
		h.httpError(w, "Interval must be at least 1 second", http.StatusBadRequest)
		return
	}

	if err := h.driver.UpdateInterval(req.Seconds); err != nil {
		h.httpError(w, "Failed to update interval", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, map[string]int{"interval_seconds": req.Seconds})
}

// LateOrders lists in-preparation orders past their expected finish.
func (h *Handlers) LateOrders(w http.ResponseWriter, r *http.Request) {
	late, err := h.orders.LateOrders(r.Context(), h.now())
	if err != nil {
		h.httpError(w, "Failed to query late orders", http.StatusInternalServerError)
		return
	}

	resp := api.LateOrdersResponse{Count: len(late), Orders: []api.LateOrderResponse{}}
	for _, lo := range late {
		resp.Orders = append(resp.Orders, api.LateOrderResponse{
			OrderID:          lo.ID.String(),
			Number:           lo.Number,
			ExpectedFinishAt: lo.ExpectedFinishAt,
			LateMinutes:      lo.LateMinutes,
		})
	}

	h.respondJson(w, http.StatusOK, resp)
}

// DelayEstimate reports the predicted queueing delay for a new ASAP order.
func (h *Handlers) DelayEstimate(w http.ResponseWriter, r *http.Request) {
	delay := h.predictor.PredictDelay(r.Context())
	h.respondJson(w, http.StatusOK, api.DelayEstimateResponse{
		DelaySeconds: int(delay.Seconds()),
	})
}
