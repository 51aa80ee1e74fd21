package scheduler

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"kitchenline/internal/store"
)

// TuningStore is the read surface the adaptive heuristics sample from.
type TuningStore interface {
	CompletedSince(ctx context.Context, cutoff time.Time, limit int) ([]store.CompletedOrder, error)
	LateOrders(ctx context.Context, now time.Time) ([]store.LateOrder, error)
	NextExpectedFinish(ctx context.Context) (*time.Time, error)
}

// Tuner recalibrates the scheduling knobs from observed history. It runs on
// a slower cadence than admission and degrades to no-ops on missing or
// insufficient history; it never fails its caller.
type Tuner struct {
	store    TuningStore
	settings store.SettingsStore
	capacity *CapacityOracle
	timing   *TimingCalculator
	logger   *slog.Logger
	clock    Clock

	lookback       time.Duration
	maxSamples     int
	minSamples     int
	nudgeThreshold time.Duration
	lateThreshold  float64
	adjustFraction float64

	// Advisory: the adjuster records its view here instead of rewriting
	// the configured ceiling behind the operator's back.
	recommendedCapacity atomic.Int64
}

// NewTuner creates a tuner with conservative defaults: two hours of
// lookback, at least five samples before any nudge, a two-minute nudge
// threshold, a 30% late threshold, and adjustments bounded to 25% of the
// configured capacity.
func NewTuner(s TuningStore, settings store.SettingsStore, capacity *CapacityOracle,
	timing *TimingCalculator, logger *slog.Logger, clock Clock) *Tuner {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Tuner{
		store:          s,
		settings:       settings,
		capacity:       capacity,
		timing:         timing,
		logger:         logger,
		clock:          clock,
		lookback:       2 * time.Hour,
		maxSamples:     50,
		minSamples:     5,
		nudgeThreshold: 2 * time.Minute,
		lateThreshold:  0.3,
		adjustFraction: 0.25,
	}
}

// Run executes one tuning pass. Errors are logged, never returned.
func (t *Tuner) Run(ctx context.Context) {
	t.learnBaseDuration(ctx)
	t.adjustCapacity(ctx)
}

// learnBaseDuration averages recent observed preparation durations and
// nudges the base estimate only when the average moved beyond the
// threshold, so estimate noise does not thrash the setting.
func (t *Tuner) learnBaseDuration(ctx context.Context) {
	avg, ok := t.recentAverageDuration(ctx)
	if !ok {
		return
	}

	base := t.timing.BaseDuration(ctx)
	diff := avg - base
	if diff < 0 {
		diff = -diff
	}
	if diff <= t.nudgeThreshold {
		return
	}

	newMinutes := int(math.Round(avg.Minutes()))
	if newMinutes < 1 {
		newMinutes = 1
	}
	if err := t.settings.SetInt(ctx, store.SettingBaseDurationMinutes, newMinutes); err != nil {
		t.logger.Error("failed to update base duration", "error", err)
		return
	}
	t.logger.Info("base preparation duration recalibrated",
		"previous_minutes", int(base.Minutes()), "new_minutes", newMinutes)
}

// recentAverageDuration samples delivered orders within the lookback
// window, discarding outliers. Returns ok=false on thin or missing history.
func (t *Tuner) recentAverageDuration(ctx context.Context) (time.Duration, bool) {
	cutoff := t.clock.Now().Add(-t.lookback)
	completed, err := t.store.CompletedSince(ctx, cutoff, t.maxSamples)
	if err != nil {
		t.logger.Debug("completed-order history unavailable", "error", err)
		return 0, false
	}

	base := t.timing.BaseDuration(ctx)
	outlierCap := 4 * base

	var total time.Duration
	var n int
	for _, c := range completed {
		d := c.Duration()
		if d < time.Minute || d > outlierCap {
			continue
		}
		total += d
		n++
	}
	if n < t.minSamples {
		return 0, false
	}
	return total / time.Duration(n), true
}

// adjustCapacity inspects how much of the current load is late and records
// an advisory capacity recommendation, bounded to adjustFraction of the
// configured ceiling.
func (t *Tuner) adjustCapacity(ctx context.Context) {
	max := t.capacity.MaxCapacity(ctx)
	t.recommendedCapacity.Store(int64(max))

	load, err := t.capacity.CurrentLoad(ctx)
	if err != nil {
		t.logger.Debug("capacity adjuster skipped", "error", err)
		return
	}
	if load == 0 {
		return
	}

	late, err := t.store.LateOrders(ctx, t.clock.Now())
	if err != nil {
		t.logger.Debug("capacity adjuster skipped", "error", err)
		return
	}

	delta := int(float64(max) * t.adjustFraction)
	if delta < 1 {
		delta = 1
	}

	lateProportion := float64(len(late)) / float64(load)
	switch {
	case lateProportion > t.lateThreshold:
		rec := max - delta
		if rec < 1 {
			rec = 1
		}
		t.recommendedCapacity.Store(int64(rec))
		t.logger.Warn("kitchen overloaded, recommending lower capacity",
			"late_proportion", lateProportion, "current", max, "recommended", rec)
	case lateProportion == 0 && t.completionsAreFast(ctx):
		rec := max + delta
		t.recommendedCapacity.Store(int64(rec))
		t.logger.Info("completions consistently fast, recommending higher capacity",
			"current", max, "recommended", rec)
	}
}

// completionsAreFast reports whether recent completions run well under the
// base estimate.
func (t *Tuner) completionsAreFast(ctx context.Context) bool {
	avg, ok := t.recentAverageDuration(ctx)
	if !ok {
		return false
	}
	return avg < t.timing.BaseDuration(ctx)*3/4
}

// RecommendedCapacity returns the adjuster's current advisory view of the
// ceiling. Equals the configured ceiling when no adjustment is warranted.
func (t *Tuner) RecommendedCapacity() int {
	return int(t.recommendedCapacity.Load())
}

// PredictDelay estimates the queueing delay a hypothetical new ASAP order
// would see before starting preparation: zero when slots are free,
// otherwise the wait for the next expected slot release plus a buffer from
// historical average duration. Degrades to the base estimate on missing
// data; it never fails.
func (t *Tuner) PredictDelay(ctx context.Context) time.Duration {
	base := t.timing.BaseDuration(ctx)

	free, err := t.capacity.AvailableSlots(ctx)
	if err != nil {
		t.logger.Debug("delay prediction degraded", "error", err)
		return base
	}
	if free > 0 {
		return 0
	}

	next, err := t.store.NextExpectedFinish(ctx)
	if err != nil {
		t.logger.Debug("delay prediction degraded", "error", err)
		return base
	}
	if next == nil {
		// Kitchen reports full but nothing has a finish estimate; assume
		// one full preparation cycle.
		return base
	}

	wait := next.Sub(t.clock.Now())
	if wait < 0 {
		wait = 0
	}

	buffer := base / 2
	if avg, ok := t.recentAverageDuration(ctx); ok {
		buffer = avg / 2
	}
	return wait + buffer
}
