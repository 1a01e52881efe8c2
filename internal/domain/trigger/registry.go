package trigger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/pipeline"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
)

// ErrUnknownTriggerFlow is the error string surfaced for unregistered ids
const ErrUnknownTriggerFlow = "unknown_trigger_flow"

// MaxHistory caps the in-memory invocation ring
const MaxHistory = 500

// Resolver receives the invocation arguments and dispatches one or more
// pipeline tasks, returning a result document.
type Resolver func(ctx context.Context, args pipeline.Document) (pipeline.Document, error)

// FlowSpec describes one registered trigger flow
type FlowSpec struct {
	TriggerID     string
	Pipeline      string
	SystemName    string
	SchedulerType pipeline.SchedulerType
	Description   string
	InputSchema   pipeline.Document
	Resolver      Resolver
}

// Row is the List projection of a FlowSpec
type Row struct {
	TriggerID     string                 `json:"trigger_id"`
	Pipeline      string                 `json:"pipeline"`
	SystemName    string                 `json:"system_name"`
	SchedulerType pipeline.SchedulerType `json:"scheduler_type"`
	Description   string                 `json:"description"`
}

// HistoryEntry records one trigger invocation
type HistoryEntry struct {
	TriggerID   string    `json:"trigger_id"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// RunObserver is notified after every invocation (metrics hook)
type RunObserver func(triggerID, status string, elapsed time.Duration)

// Registry routes run calls to the registered resolver and keeps a ring of
// the most recent invocations.
type Registry struct {
	mu       sync.Mutex
	flows    map[string]*FlowSpec
	history  []HistoryEntry
	clock    shared.Clock
	observer RunObserver
}

// NewRegistry creates an empty trigger flow registry.
// If clock is nil, uses RealClock.
func NewRegistry(clock shared.Clock) *Registry {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Registry{
		flows: make(map[string]*FlowSpec),
		clock: clock,
	}
}

// SetObserver installs the invocation observer (may be nil)
func (r *Registry) SetObserver(obs RunObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = obs
}

// RegisterMany indexes the flows by trigger id, overwriting duplicates
func (r *Registry) RegisterMany(flows []*FlowSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, flow := range flows {
		if flow == nil || flow.TriggerID == "" {
			return fmt.Errorf("trigger flow requires a trigger_id")
		}
		r.flows[flow.TriggerID] = flow
	}
	return nil
}

// List returns flow metadata sorted by trigger id
func (r *Registry) List() []Row {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := make([]Row, 0, len(r.flows))
	for _, flow := range r.flows {
		rows = append(rows, Row{
			TriggerID:     flow.TriggerID,
			Pipeline:      flow.Pipeline,
			SystemName:    flow.SystemName,
			SchedulerType: flow.SchedulerType,
			Description:   flow.Description,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TriggerID < rows[j].TriggerID })
	return rows
}

// History returns up to limit invocation entries, newest first
func (r *Registry) History(limit int) []HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.history) {
		limit = len(r.history)
	}
	out := make([]HistoryEntry, limit)
	copy(out, r.history[:limit])
	return out
}

// Run looks up the resolver for the trigger id and invokes it. Unknown ids
// and resolver errors produce terminal {status: failed} documents; resolver
// results keep their own status when present and are marked completed
// otherwise. Every invocation appends one history entry.
func (r *Registry) Run(ctx context.Context, triggerID string, args pipeline.Document) pipeline.Document {
	r.mu.Lock()
	flow, ok := r.flows[triggerID]
	r.mu.Unlock()

	started := r.clock.Now()
	if !ok {
		doc := pipeline.Document{
			"status":       pipeline.StatusFailed,
			"error":        ErrUnknownTriggerFlow,
			"trigger_id":   triggerID,
			"started_at":   started.Format(time.RFC3339),
			"completed_at": started.Format(time.RFC3339),
		}
		r.record(triggerID, pipeline.StatusFailed, ErrUnknownTriggerFlow, started, started)
		return doc
	}

	if args == nil {
		args = pipeline.Document{}
	}
	result, err := r.invoke(ctx, flow, args)
	completed := r.clock.Now()

	if err != nil {
		common.LoggerFromContext(ctx).Log("ERROR", fmt.Sprintf("Trigger flow %s failed: %v", triggerID, err), map[string]interface{}{
			"trigger_id": triggerID,
		})
		doc := pipeline.Document{
			"status":       pipeline.StatusFailed,
			"error":        err.Error(),
			"trigger_id":   triggerID,
			"started_at":   started.Format(time.RFC3339),
			"completed_at": completed.Format(time.RFC3339),
		}
		r.record(triggerID, pipeline.StatusFailed, err.Error(), started, completed)
		return doc
	}

	if result == nil {
		result = pipeline.Document{}
	}
	if _, ok := result["status"]; !ok {
		result["status"] = pipeline.StatusCompleted
	}
	result["trigger_id"] = triggerID
	result["started_at"] = started.Format(time.RFC3339)
	result["completed_at"] = completed.Format(time.RFC3339)

	status, _ := result["status"].(string)
	r.record(triggerID, status, "", started, completed)
	return result
}

// invoke shields the registry from resolver panics
func (r *Registry) invoke(ctx context.Context, flow *FlowSpec, args pipeline.Document) (doc pipeline.Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return flow.Resolver(ctx, args)
}

func (r *Registry) record(triggerID, status, errMsg string, started, completed time.Time) {
	r.mu.Lock()
	r.history = append([]HistoryEntry{{
		TriggerID:   triggerID,
		Status:      status,
		Error:       errMsg,
		StartedAt:   started,
		CompletedAt: completed,
	}}, r.history...)
	if len(r.history) > MaxHistory {
		r.history = r.history[:MaxHistory]
	}
	obs := r.observer
	r.mu.Unlock()

	if obs != nil {
		obs(triggerID, status, completed.Sub(started))
	}
}
