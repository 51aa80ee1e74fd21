package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kitchenline/internal/notify"
	"kitchenline/internal/store"
)

// LateReader is the read-only store slice the sweep needs.
type LateReader interface {
	LateOrders(ctx context.Context, now time.Time) ([]store.LateOrder, error)
}

// LateSweep detects in-preparation orders past their expected finish and
// reports them. It never mutates order state: lateness is a derived
// condition, recomputed on every sweep.
type LateSweep struct {
	orders   LateReader
	notifier notify.Notifier
	logger   *slog.Logger
	clock    Clock
}

// NewLateSweep creates a late-order sweep.
func NewLateSweep(orders LateReader, notifier notify.Notifier, logger *slog.Logger, clock Clock) *LateSweep {
	if clock == nil {
		clock = SystemClock{}
	}
	return &LateSweep{orders: orders, notifier: notifier, logger: logger, clock: clock}
}

// Run performs one detection pass and emits a late-orders batch event when
// anything is overdue.
func (s *LateSweep) Run(ctx context.Context) ([]store.LateOrder, error) {
	now := s.clock.Now()

	late, err := s.orders.LateOrders(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("late sweep: %w", err)
	}
	if len(late) == 0 {
		return nil, nil
	}

	s.logger.Warn("late orders detected", "count", len(late))

	event := notify.LateOrdersEvent{OccurredAt: now}
	for _, lo := range late {
		event.Orders = append(event.Orders, notify.LateOrderNotice{
			OrderID:     lo.ID,
			Number:      lo.Number,
			LateMinutes: lo.LateMinutes,
		})
	}
	if err := s.notifier.LateOrders(ctx, event); err != nil {
		s.logger.Debug("late orders event dropped", "error", err)
	}

	return late, nil
}
