package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// SchedulerMetrics holds the instruments recorded by the admission engine.
// A nil *SchedulerMetrics is valid and records nothing.
type SchedulerMetrics struct {
	passes    metric.Int64Counter
	promoted  metric.Int64Counter
	skipped   metric.Int64Counter
	freeSlots metric.Int64Gauge
}

// NewSchedulerMetrics registers the admission instruments on the global
// meter provider.
func NewSchedulerMetrics() (*SchedulerMetrics, error) {
	meter := otel.Meter("kitchenline/scheduler")

	passes, err := meter.Int64Counter("kitchen_admission_passes_total",
		metric.WithDescription("Number of admission passes executed"))
	if err != nil {
		return nil, fmt.Errorf("failed to create passes counter: %w", err)
	}

	promoted, err := meter.Int64Counter("kitchen_orders_promoted_total",
		metric.WithDescription("Number of orders admitted into preparation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create promoted counter: %w", err)
	}

	skipped, err := meter.Int64Counter("kitchen_orders_gate_skipped_total",
		metric.WithDescription("Number of scheduled orders skipped because their start gate had not opened"))
	if err != nil {
		return nil, fmt.Errorf("failed to create skipped counter: %w", err)
	}

	freeSlots, err := meter.Int64Gauge("kitchen_free_slots",
		metric.WithDescription("Free preparation slots after the last admission pass"))
	if err != nil {
		return nil, fmt.Errorf("failed to create free slots gauge: %w", err)
	}

	return &SchedulerMetrics{
		passes:    passes,
		promoted:  promoted,
		skipped:   skipped,
		freeSlots: freeSlots,
	}, nil
}

// RecordPass records the outcome of one admission pass.
func (m *SchedulerMetrics) RecordPass(ctx context.Context, promoted, skipped int) {
	if m == nil {
		return
	}
	m.passes.Add(ctx, 1)
	m.promoted.Add(ctx, int64(promoted))
	m.skipped.Add(ctx, int64(skipped))
}

// SetFreeSlots records the current free-slot count.
func (m *SchedulerMetrics) SetFreeSlots(ctx context.Context, free int) {
	if m == nil {
		return
	}
	m.freeSlots.Record(ctx, int64(free))
}
