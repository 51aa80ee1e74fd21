package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kitchenline/internal/notify"
	"kitchenline/internal/observability"
	"kitchenline/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AdmissionStore is the slice of the store the engine mutates.
// AcquireAdmissionLock must serialize passes for the lifetime of the
// transaction, and SelectBacklog must lock the returned rows, so two
// overlapping passes can neither claim the same orders nor size their
// promotion budgets against the same stale load count.
type AdmissionStore interface {
	BeginTx(ctx context.Context) (store.Tx, error)
	AcquireAdmissionLock(ctx context.Context, tx store.DBTransaction) error
	CountInPreparation(ctx context.Context, tx store.DBTransaction) (int, error)
	SelectBacklog(ctx context.Context, tx store.DBTransaction, limit int) ([]store.Order, error)
	Promote(ctx context.Context, tx store.DBTransaction, id uuid.UUID, startAt, finishAt time.Time) error
}

// TicketCreator is the downstream kitchen-ticket collaborator. Create must
// be idempotent per order.
type TicketCreator interface {
	Create(ctx context.Context, o store.Order) error
}

// Engine admits backlog orders into active preparation under the capacity
// ceiling, applying priority ordering and scheduled-time gating.
type Engine struct {
	store    AdmissionStore
	capacity *CapacityOracle
	timing   *TimingCalculator
	tickets  TicketCreator
	notifier notify.Notifier
	metrics  *observability.SchedulerMetrics
	logger   *slog.Logger
	clock    Clock
}

// NewEngine creates an admission engine. metrics may be nil.
func NewEngine(s AdmissionStore, capacity *CapacityOracle, timing *TimingCalculator,
	tickets TicketCreator, notifier notify.Notifier, metrics *observability.SchedulerMetrics,
	logger *slog.Logger, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{
		store:    s,
		capacity: capacity,
		timing:   timing,
		tickets:  tickets,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		clock:    clock,
	}
}

// PassResult summarizes one admission pass.
type PassResult struct {
	FreeSlots  int `json:"free_slots"`
	Considered int `json:"considered"`
	Promoted   int `json:"promoted"`
	Skipped    int `json:"skipped"` // scheduled orders whose start gate has not opened
}

// RunPass executes one admission pass: under the admission lock, size the
// promotion budget from the in-transaction load count, select up to that
// many backlog candidates under row locks, promote the time-eligible ones,
// and commit atomically. Any storage error discards the entire pass; the
// next tick retries from a clean backlog view. Ticket creation and
// notifications run after commit and are best-effort.
func (e *Engine) RunPass(ctx context.Context) (PassResult, error) {
	tracer := otel.Tracer("admission-engine")
	ctx, span := tracer.Start(ctx, "admission_pass",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		span.RecordError(err)
		return PassResult{}, fmt.Errorf("begin admission pass: %w", err)
	}
	defer tx.Rollback()

	// An overlapping pass would otherwise size its budget against the
	// same committed load and overshoot the ceiling, so passes queue on
	// the admission lock and count load only once they hold it.
	if err := e.store.AcquireAdmissionLock(ctx, tx); err != nil {
		span.RecordError(err)
		return PassResult{}, fmt.Errorf("acquire admission lock: %w", err)
	}

	load, err := e.store.CountInPreparation(ctx, tx)
	if err != nil {
		span.RecordError(err)
		return PassResult{}, fmt.Errorf("count kitchen load: %w", err)
	}

	slots := e.capacity.MaxCapacity(ctx) - load
	if slots <= 0 {
		// Kitchen full: no storage writes, but the pass still counts.
		e.logger.Debug("admission pass skipped, kitchen full")
		e.metrics.RecordPass(ctx, 0, 0)
		return PassResult{}, nil
	}

	// The limit equals the free-slot count: the engine never over-selects,
	// and a gate-skipped candidate does not hand its slot to an order
	// beyond the original selection.
	candidates, err := e.store.SelectBacklog(ctx, tx, slots)
	if err != nil {
		span.RecordError(err)
		return PassResult{}, fmt.Errorf("backlog selection: %w", err)
	}

	result := PassResult{FreeSlots: slots, Considered: len(candidates)}
	now := e.clock.Now()

	var promoted []store.Order
	for _, o := range candidates {
		if len(promoted) >= slots {
			break
		}
		if !e.timing.ReadyToStart(ctx, o, now) {
			// Start gate not open yet: leave the order in the backlog and
			// keep going; later candidates are still considered.
			result.Skipped++
			continue
		}

		duration := e.timing.EstimatedDuration(ctx, o)
		finish := e.timing.ExpectedFinish(now, duration)

		if err := e.store.Promote(ctx, tx, o.ID, now, finish); err != nil {
			span.RecordError(err)
			return PassResult{}, fmt.Errorf("promote order %s: %w", o.ID, err)
		}

		o.Status = store.OrderStatusInPreparation
		startAt := now
		o.PreparationStartAt = &startAt
		o.ExpectedFinishAt = &finish
		promoted = append(promoted, o)
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return PassResult{}, fmt.Errorf("commit admission pass: %w", err)
	}
	result.Promoted = len(promoted)

	span.SetAttributes(
		attribute.Int("admission.free_slots", result.FreeSlots),
		attribute.Int("admission.promoted", result.Promoted),
		attribute.Int("admission.skipped", result.Skipped),
	)

	for _, o := range promoted {
		e.logger.Info("order admitted",
			"order_id", o.ID, "number", o.Number,
			"expected_finish_at", o.ExpectedFinishAt)

		if err := e.tickets.Create(ctx, o); err != nil {
			// The committed promotion is the source of truth; the ticket
			// can be regenerated.
			e.logger.Error("ticket creation failed", "order_id", o.ID, "error", err)
		}

		if err := e.notifier.OrderStatusChanged(ctx, statusChangedEvent(o, now)); err != nil {
			e.logger.Debug("status event dropped", "order_id", o.ID, "error", err)
		}
	}

	if result.Promoted > 0 {
		e.emitCapacitySnapshot(ctx)
	}

	e.metrics.RecordPass(ctx, result.Promoted, result.Skipped)

	return result, nil
}

func (e *Engine) emitCapacitySnapshot(ctx context.Context) {
	snap, err := e.capacity.Snapshot(ctx)
	if err != nil {
		e.logger.Debug("capacity snapshot unavailable", "error", err)
		return
	}

	e.metrics.SetFreeSlots(ctx, snap.FreeSlots)

	err = e.notifier.CapacityUpdated(ctx, notify.CapacityUpdatedEvent{
		MaxCapacity:    snap.MaxCapacity,
		CurrentLoad:    snap.CurrentLoad,
		FreeSlots:      snap.FreeSlots,
		UtilizationPct: snap.UtilizationPct,
		OccurredAt:     e.clock.Now(),
	})
	if err != nil {
		e.logger.Debug("capacity event dropped", "error", err)
	}
}

func statusChangedEvent(o store.Order, now time.Time) notify.OrderStatusChangedEvent {
	return notify.OrderStatusChangedEvent{
		OrderID:        o.ID,
		Number:         o.Number,
		PreviousStatus: string(store.OrderStatusReceived),
		NewStatus:      string(o.Status),
		Order: notify.OrderSnapshot{
			ID:                  o.ID,
			Number:              o.Number,
			Status:              string(o.Status),
			Priority:            string(o.Priority),
			RequestedDeliveryAt: o.RequestedDeliveryAt,
			PreparationStartAt:  o.PreparationStartAt,
			ExpectedFinishAt:    o.ExpectedFinishAt,
			CreatedAt:           o.CreatedAt,
		},
		OccurredAt: now,
	}
}
