package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
)

// TickFunc is one iteration of an interval worker
type TickFunc func(ctx context.Context) error

// IntervalWorker invokes a single callback every interval. The interval can
// be mutated between ticks (live config updates); the next sleep observes
// the new value. Tick errors are logged and the loop continues.
type IntervalWorker struct {
	name        string
	minInterval time.Duration
	interval    atomic.Int64 // nanoseconds
	tick        TickFunc
	clock       shared.Clock
	onTick      func(name string) // metrics hook, may be nil
}

// NewIntervalWorker creates an interval worker. The effective interval is
// floored at minInterval. If clock is nil, uses RealClock.
func NewIntervalWorker(name string, interval, minInterval time.Duration, tick TickFunc, clock shared.Clock) *IntervalWorker {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	w := &IntervalWorker{
		name:        name,
		minInterval: minInterval,
		tick:        tick,
		clock:       clock,
	}
	w.SetInterval(interval)
	return w
}

// SetOnTick installs the per-tick observer (metrics hook)
func (w *IntervalWorker) SetOnTick(fn func(name string)) {
	w.onTick = fn
}

// SetInterval updates the interval for subsequent ticks, floored at the
// worker's minimum.
func (w *IntervalWorker) SetInterval(d time.Duration) {
	if d < w.minInterval {
		d = w.minInterval
	}
	w.interval.Store(int64(d))
}

// Interval returns the current effective interval
func (w *IntervalWorker) Interval() time.Duration {
	return time.Duration(w.interval.Load())
}

// Name returns the worker name
func (w *IntervalWorker) Name() string {
	return w.name
}

// Run executes the tick loop until isRunning returns false or the context
// is cancelled. One failing tick does not stop the worker.
func (w *IntervalWorker) Run(ctx context.Context, isRunning func() bool) error {
	logger := common.LoggerFromContext(ctx)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isRunning != nil && !isRunning() {
			return nil
		}

		if err := w.tick(ctx); err != nil {
			logger.Log("ERROR", fmt.Sprintf("Worker %s tick failed: %v", w.name, err), map[string]interface{}{
				"worker": w.name,
			})
		}
		if w.onTick != nil {
			w.onTick(w.name)
		}

		if err := w.clock.SleepContext(ctx, w.Interval()); err != nil {
			return err
		}
	}
}
