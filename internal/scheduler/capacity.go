package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"kitchenline/internal/store"
)

// Fallback values used when a setting is missing or unreadable.
// Configuration reads fail open: the engine keeps running on defaults.
const (
	DefaultMaxConcurrent   = 8
	DefaultTickSeconds     = 30
	DefaultDurationMinutes = 15
)

// LoadCounter is the single order-store read the oracle needs.
type LoadCounter interface {
	CountInPreparationToday(ctx context.Context) (int, error)
}

// CapacityOracle answers how much concurrent preparation capacity exists
// and how much of it is in use. It holds no state: every call re-reads
// settings and storage so concurrent mutation and runtime reconfiguration
// are visible immediately.
type CapacityOracle struct {
	settings store.SettingsStore
	orders   LoadCounter
	logger   *slog.Logger
}

// NewCapacityOracle creates a capacity oracle.
func NewCapacityOracle(settings store.SettingsStore, orders LoadCounter, logger *slog.Logger) *CapacityOracle {
	return &CapacityOracle{settings: settings, orders: orders, logger: logger}
}

// MaxCapacity returns the configured preparation ceiling. A missing or
// unreadable setting never fails the caller; the hardcoded default wins.
func (c *CapacityOracle) MaxCapacity(ctx context.Context) int {
	v, err := c.settings.GetInt(ctx, store.SettingMaxConcurrentPreparations)
	if err != nil || v < 1 {
		if err != nil {
			c.logger.Warn("capacity setting unreadable, using default",
				"default", DefaultMaxConcurrent, "error", err)
		}
		return DefaultMaxConcurrent
	}
	return v
}

// CurrentLoad returns the number of orders occupying kitchen slots.
func (c *CapacityOracle) CurrentLoad(ctx context.Context) (int, error) {
	return c.orders.CountInPreparationToday(ctx)
}

// AvailableSlots returns how many orders may still be admitted.
func (c *CapacityOracle) AvailableSlots(ctx context.Context) (int, error) {
	load, err := c.CurrentLoad(ctx)
	if err != nil {
		return 0, fmt.Errorf("available slots: %w", err)
	}
	free := c.MaxCapacity(ctx) - load
	if free < 0 {
		free = 0
	}
	return free, nil
}

// IsFull reports whether the kitchen is at capacity.
func (c *CapacityOracle) IsFull(ctx context.Context) (bool, error) {
	free, err := c.AvailableSlots(ctx)
	if err != nil {
		return false, err
	}
	return free == 0, nil
}

// CapacitySnapshot is a point-in-time view of kitchen utilization.
type CapacitySnapshot struct {
	MaxCapacity    int
	CurrentLoad    int
	FreeSlots      int
	UtilizationPct int
}

// Snapshot derives the full utilization view in one read.
func (c *CapacityOracle) Snapshot(ctx context.Context) (CapacitySnapshot, error) {
	load, err := c.CurrentLoad(ctx)
	if err != nil {
		return CapacitySnapshot{}, fmt.Errorf("capacity snapshot: %w", err)
	}

	max := c.MaxCapacity(ctx)
	free := max - load
	if free < 0 {
		free = 0
	}

	return CapacitySnapshot{
		MaxCapacity:    max,
		CurrentLoad:    load,
		FreeSlots:      free,
		UtilizationPct: load * 100 / max,
	}, nil
}
