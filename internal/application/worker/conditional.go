package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
)

// ConditionalWorker fetches a batch of items on each pass, filters them with
// a condition, and dispatches the survivors to a callback in order.
type ConditionalWorker[T any] struct {
	name      string
	fetch     func(ctx context.Context) ([]T, error)
	condition func(item T) bool
	onItem    func(ctx context.Context, item T) error
	interval  time.Duration
	clock     shared.Clock
}

// NewConditionalWorker creates a conditional callback worker polling at the
// given interval. If clock is nil, uses RealClock.
func NewConditionalWorker[T any](
	name string,
	interval time.Duration,
	fetch func(ctx context.Context) ([]T, error),
	condition func(item T) bool,
	onItem func(ctx context.Context, item T) error,
	clock shared.Clock,
) *ConditionalWorker[T] {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &ConditionalWorker[T]{
		name:      name,
		fetch:     fetch,
		condition: condition,
		onItem:    onItem,
		interval:  interval,
		clock:     clock,
	}
}

// RunOnce performs a single fetch-filter-dispatch pass and returns the
// number of items dispatched. Item callback errors are logged; the pass
// continues with the remaining items.
func (w *ConditionalWorker[T]) RunOnce(ctx context.Context) (int, error) {
	items, err := w.fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch items: %w", err)
	}

	logger := common.LoggerFromContext(ctx)
	dispatched := 0
	for _, item := range items {
		if w.condition != nil && !w.condition(item) {
			continue
		}
		if err := w.onItem(ctx, item); err != nil {
			logger.Log("ERROR", fmt.Sprintf("Worker %s item callback failed: %v", w.name, err), map[string]interface{}{
				"worker": w.name,
			})
			continue
		}
		dispatched++
	}
	return dispatched, nil
}

// Run executes RunOnce on every interval until isRunning returns false or
// the context is cancelled.
func (w *ConditionalWorker[T]) Run(ctx context.Context, isRunning func() bool) error {
	logger := common.LoggerFromContext(ctx)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isRunning != nil && !isRunning() {
			return nil
		}

		if _, err := w.RunOnce(ctx); err != nil {
			logger.Log("ERROR", fmt.Sprintf("Worker %s pass failed: %v", w.name, err), map[string]interface{}{
				"worker": w.name,
			})
		}

		if err := w.clock.SleepContext(ctx, w.interval); err != nil {
			return err
		}
	}
}
