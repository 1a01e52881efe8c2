package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
)

// RunnerFunc is a long-running worker loop owned by a HybridWorker
type RunnerFunc func(ctx context.Context) error

// HybridWorker registers named runners and starts them as concurrent
// goroutines on Start. Stop cancels all runners and awaits termination, so
// shutdown never leaks goroutines.
type HybridWorker struct {
	mu      sync.Mutex
	runners map[string]RunnerFunc
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewHybridWorker creates an empty hybrid worker
func NewHybridWorker() *HybridWorker {
	return &HybridWorker{runners: make(map[string]RunnerFunc)}
}

// RegisterRunner adds or replaces a named runner. Must be called before Start.
func (h *HybridWorker) RegisterRunner(name string, fn RunnerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runners[name] = fn
}

// Running reports whether the worker set is active
func (h *HybridWorker) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// Start launches every registered runner on its own goroutine. Idempotent.
func (h *HybridWorker) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil
	}
	if len(h.runners) == 0 {
		return fmt.Errorf("no runners registered")
	}

	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.running = true

	logger := common.LoggerFromContext(ctx)
	for name, fn := range h.runners {
		h.wg.Add(1)
		go func(name string, fn RunnerFunc) {
			defer h.wg.Done()
			if err := fn(runCtx); err != nil && runCtx.Err() == nil {
				logger.Log("ERROR", fmt.Sprintf("Runner %s exited: %v", name, err), map[string]interface{}{
					"runner": name,
				})
			}
		}(name, fn)
	}
	return nil
}

// Stop cancels all runners and waits for them to terminate. Idempotent.
func (h *HybridWorker) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	cancel := h.cancel
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	h.wg.Wait()
}
