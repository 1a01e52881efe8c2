package execution

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
	"github.com/guidryheal-create/trader.exe-sub001/pkg/utils"
)

// Status is the lifecycle state of a tracked run
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

const (
	// MaxTracked caps the insertion-order list of execution ids
	MaxTracked = 500
	// ResultSummaryBudget is the byte budget for summarized results
	ResultSummaryBudget = 4000
)

// Record is one tracked asynchronous run
type Record struct {
	ExecutionID string    `json:"execution_id"`
	Mode        string    `json:"mode"`
	Reason      string    `json:"reason"`
	Stage       string    `json:"stage,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Result      string    `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// RunFunc performs the tracked work. The execution id is threaded through so
// pipeline tasks can attach stage markers.
type RunFunc func(ctx context.Context, executionID string) (map[string]interface{}, error)

// FinishObserver is notified when a run reaches a terminal state (metrics hook)
type FinishObserver func(mode string, status Status, elapsed time.Duration)

type inflightRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Tracker tracks queued/running/completed/failed/cancelled async runs with
// summarized results. All maps are guarded by the mutex; runs execute on
// their own goroutines.
type Tracker struct {
	mu       sync.Mutex
	records  map[string]*Record
	order    []string // newest first, capped at MaxTracked
	inflight map[string]*inflightRun
	clock    shared.Clock
	observer FinishObserver
}

// NewTracker creates an empty execution tracker.
// If clock is nil, uses RealClock.
func NewTracker(clock shared.Clock) *Tracker {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Tracker{
		records:  make(map[string]*Record),
		inflight: make(map[string]*inflightRun),
		clock:    clock,
	}
}

// SetObserver installs the terminal-state observer (may be nil)
func (t *Tracker) SetObserver(obs FinishObserver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observer = obs
}

// Launch records a queued execution and starts an asynchronous runner.
// Returns the generated execution id immediately.
func (t *Tracker) Launch(mode, reason string, run RunFunc) string {
	id := uuid.NewString()
	now := t.clock.Now()

	t.mu.Lock()
	t.records[id] = &Record{
		ExecutionID: id,
		Mode:        mode,
		Reason:      reason,
		Status:      StatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.order = append([]string{id}, t.order...)
	if len(t.order) > MaxTracked {
		for _, evicted := range t.order[MaxTracked:] {
			delete(t.records, evicted)
		}
		t.order = t.order[:MaxTracked]
	}

	runCtx, cancel := context.WithCancel(context.Background())
	handle := &inflightRun{cancel: cancel, done: make(chan struct{})}
	t.inflight[id] = handle
	t.mu.Unlock()

	go t.runner(runCtx, id, handle, run)
	return id
}

func (t *Tracker) runner(ctx context.Context, id string, handle *inflightRun, run RunFunc) {
	defer func() {
		t.mu.Lock()
		delete(t.inflight, id)
		t.mu.Unlock()
		close(handle.done)
	}()

	started := t.clock.Now()
	t.transition(id, func(rec *Record) {
		rec.Status = StatusRunning
	})

	result, err := run(ctx, id)
	elapsed := t.clock.Now().Sub(started)

	t.mu.Lock()
	rec, ok := t.records[id]
	if !ok || rec.Status == StatusCancelled {
		// results produced after cancellation are discarded
		t.mu.Unlock()
		return
	}
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
	} else {
		rec.Status = StatusCompleted
		rec.Result = utils.SummarizeDocument(result, ResultSummaryBudget)
	}
	rec.UpdatedAt = t.clock.Now()
	status := rec.Status
	mode := rec.Mode
	obs := t.observer
	t.mu.Unlock()

	if obs != nil {
		obs(mode, status, elapsed)
	}
}

// SetStage attaches a stage marker to an execution
func (t *Tracker) SetStage(id, stage string) {
	t.transition(id, func(rec *Record) {
		rec.Stage = stage
	})
}

// SetState merges arbitrary updates into a record and refreshes updated_at
func (t *Tracker) SetState(id string, mutate func(rec *Record)) {
	t.transition(id, mutate)
}

func (t *Tracker) transition(id string, mutate func(rec *Record)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[id]
	if !ok {
		return
	}
	mutate(rec)
	rec.UpdatedAt = t.clock.Now()
}

// Get returns a copy of the record for the given id
func (t *Tracker) Get(id string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// List returns up to limit records, newest first
func (t *Tracker) List(limit int) []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	if limit <= 0 || limit > len(t.order) {
		limit = len(t.order)
	}
	out := make([]Record, 0, limit)
	for _, id := range t.order[:limit] {
		if rec, ok := t.records[id]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// CancelAll cancels every in-flight run, marks the records cancelled, and
// waits for the runners to terminate. Runner results arriving after the
// cancelled mark are discarded.
func (t *Tracker) CancelAll(ctx context.Context) {
	t.mu.Lock()
	handles := make([]*inflightRun, 0, len(t.inflight))
	for id, handle := range t.inflight {
		if rec, ok := t.records[id]; ok {
			rec.Status = StatusCancelled
			rec.UpdatedAt = t.clock.Now()
		}
		handles = append(handles, handle)
	}
	t.mu.Unlock()

	for _, handle := range handles {
		handle.cancel()
	}
	for _, handle := range handles {
		select {
		case <-handle.done:
		case <-ctx.Done():
			return
		}
	}
}

// InFlight returns the number of currently running executions
func (t *Tracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}
