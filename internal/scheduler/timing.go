package scheduler

import (
	"context"
	"log/slog"
	"time"

	"kitchenline/internal/store"
)

// TimingCalculator derives scheduling timestamps from an order's requested
// delivery time and its estimated preparation duration. All derivations are
// pure; the only I/O is the settings read for the base duration.
type TimingCalculator struct {
	settings store.SettingsStore
	logger   *slog.Logger
}

// NewTimingCalculator creates a timing calculator.
func NewTimingCalculator(settings store.SettingsStore, logger *slog.Logger) *TimingCalculator {
	return &TimingCalculator{settings: settings, logger: logger}
}

// BaseDuration returns the system-wide default preparation duration.
// Fails open to the hardcoded default.
func (t *TimingCalculator) BaseDuration(ctx context.Context) time.Duration {
	v, err := t.settings.GetInt(ctx, store.SettingBaseDurationMinutes)
	if err != nil || v < 1 {
		if err != nil {
			t.logger.Warn("base duration setting unreadable, using default",
				"default_minutes", DefaultDurationMinutes, "error", err)
		}
		return DefaultDurationMinutes * time.Minute
	}
	return time.Duration(v) * time.Minute
}

// EstimatedDuration returns the order's duration budget: the per-order
// override when present, the base estimate otherwise.
func (t *TimingCalculator) EstimatedDuration(ctx context.Context, o store.Order) time.Duration {
	if o.EstimatedMinutes != nil && *o.EstimatedMinutes > 0 {
		return time.Duration(*o.EstimatedMinutes) * time.Minute
	}
	return t.BaseDuration(ctx)
}

// PreparationStart returns the latest moment preparation must begin for
// the order to finish by its delivery time.
func (t *TimingCalculator) PreparationStart(deliveryAt time.Time, duration time.Duration) time.Time {
	return deliveryAt.Add(-duration)
}

// ExpectedFinish returns when preparation started at startAt should be done.
func (t *TimingCalculator) ExpectedFinish(startAt time.Time, duration time.Duration) time.Time {
	return startAt.Add(duration)
}

// ReadyToStart reports whether the order's start boundary has been reached.
// ASAP orders are always ready; scheduled orders wait until the computed
// preparation start.
func (t *TimingCalculator) ReadyToStart(ctx context.Context, o store.Order, now time.Time) bool {
	if o.ASAP() {
		return true
	}
	start := t.PreparationStart(*o.RequestedDeliveryAt, t.EstimatedDuration(ctx, o))
	return !now.Before(start)
}
