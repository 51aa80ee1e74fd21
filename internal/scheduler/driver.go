package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"kitchenline/internal/store"
)

// tuneEveryTicks is the coarse modulus at which the tuning pass piggybacks
// on the main tick.
const tuneEveryTicks = 10

// Status is a snapshot of the driver's transient run state. It is reset on
// process restart.
type Status struct {
	Running    bool          `json:"running"`
	Interval   time.Duration `json:"interval"`
	StartedAt  time.Time     `json:"started_at"`
	LastTickAt time.Time     `json:"last_tick_at"`
	TickCount  uint64        `json:"tick_count"`
}

// Driver owns the wall-clock cadence of the scheduling engine: every tick it
// runs an admission pass, the late-order sweep, and periodically the tuning
// pass. A failing sub-step is logged and never stops the loop; the tick is
// still recorded so health checks can tell "not ticking" from "ticking but
// failing internally".
type Driver struct {
	engine   *Engine
	sweep    *LateSweep
	tuner    *Tuner
	settings store.SettingsStore
	logger   *slog.Logger
	clock    Clock

	mu        sync.Mutex
	running   bool
	interval  time.Duration
	startedAt time.Time
	lastTick  time.Time
	ticks     uint64
	stop      chan struct{}
	done      chan struct{}
}

// NewDriver creates a periodic driver.
func NewDriver(engine *Engine, sweep *LateSweep, tuner *Tuner,
	settings store.SettingsStore, logger *slog.Logger, clock Clock) *Driver {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Driver{
		engine:   engine,
		sweep:    sweep,
		tuner:    tuner,
		settings: settings,
		logger:   logger,
		clock:    clock,
	}
}

// Start begins ticking at the given interval, running the first tick
// immediately. A non-positive interval falls back to the configured
// tick_interval_seconds, then to the hardcoded default. Starting a running
// driver is a warned no-op.
func (d *Driver) Start(interval time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		d.logger.Warn("scheduler already running, start ignored")
		return
	}

	if interval <= 0 {
		interval = d.configuredInterval()
	}

	d.running = true
	d.interval = interval
	d.startedAt = d.clock.Now()
	d.ticks = 0
	d.stop = make(chan struct{})
	d.done = make(chan struct{})

	d.logger.Info("scheduler started", "interval", interval)
	go d.loop(interval, d.stop, d.done)
}

// Stop cancels future ticks. A tick already in flight runs to completion;
// Stop waits for it. Idempotent.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	stop, done := d.stop, d.done
	d.mu.Unlock()

	close(stop)
	<-done
	d.logger.Info("scheduler stopped")
}

// UpdateInterval reconfigures the cadence by stopping and restarting the
// loop; a live timer is never resized in place. The new value is persisted
// so it survives restarts. A stopped driver stays stopped: the persisted
// value takes effect on the next Start.
func (d *Driver) UpdateInterval(seconds int) error {
	if err := d.settings.SetInt(context.Background(), store.SettingTickIntervalSeconds, seconds); err != nil {
		return err
	}

	d.mu.Lock()
	running := d.running
	d.mu.Unlock()
	if !running {
		return nil
	}

	d.Stop()
	d.Start(time.Duration(seconds) * time.Second)
	return nil
}

// Status returns the driver's current run state.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Running:    d.running,
		Interval:   d.interval,
		StartedAt:  d.startedAt,
		LastTickAt: d.lastTick,
		TickCount:  d.ticks,
	}
}

func (d *Driver) loop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	d.tick()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.tick()
		}
	}
}

// tick runs one scheduling cycle. The work context is independent of Stop:
// an in-flight promotion pass always runs to commit or rollback.
func (d *Driver) tick() {
	ctx := context.Background()

	if _, err := d.engine.RunPass(ctx); err != nil {
		d.logger.Error("admission pass failed", "error", err)
	}

	if _, err := d.sweep.Run(ctx); err != nil {
		d.logger.Error("late sweep failed", "error", err)
	}

	d.mu.Lock()
	d.ticks++
	d.lastTick = d.clock.Now()
	ticks := d.ticks
	d.mu.Unlock()

	if ticks%tuneEveryTicks == 0 {
		d.tuner.Run(ctx)
	}
}

// configuredInterval resolves the tick interval from settings, failing open
// to the hardcoded default. Caller holds d.mu.
func (d *Driver) configuredInterval() time.Duration {
	v, err := d.settings.GetInt(context.Background(), store.SettingTickIntervalSeconds)
	if err != nil || v < 1 {
		return DefaultTickSeconds * time.Second
	}
	return time.Duration(v) * time.Second
}
