package pipeline

import (
	"context"
)

// SchedulerType categorizes how a task flow is normally driven
type SchedulerType string

const (
	SchedulerInterval SchedulerType = "interval"
	SchedulerEvent    SchedulerType = "event"
	SchedulerManual   SchedulerType = "manual"
)

// Status values emitted in task result documents
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Skip reasons emitted alongside StatusSkipped
const (
	ReasonTriggerMismatch  = "trigger_mismatch"
	ReasonDisabled         = "disabled"
	ReasonNoExecutor       = "no_executor"
	ReasonDependencyFailed = "dependency_failed"
)

// Document is an opaque JSON-serializable result or input payload
type Document = map[string]interface{}

// Executor runs a task flow against the given input and returns a result
// document. Errors become {status: failed, error: …} entries; they never
// propagate out of Hub.Run.
type Executor func(ctx context.Context, input Document) (Document, error)

// EnabledPredicate resolves whether a task flow is enabled for this run
type EnabledPredicate func(flags map[string]bool) bool

// TaskSpec describes one registered pipeline task
type TaskSpec struct {
	TaskID        string
	Pipeline      string
	SystemName    string
	TriggerTypes  []string // empty means "accepts any trigger"
	SchedulerType SchedulerType
	Dependencies  []string
	Description   string
	InputSchema   Document
	OutputSchema  Document
	Executor      Executor
	Enabled       EnabledPredicate
}

// AcceptsTrigger reports whether the spec accepts the given trigger type.
// An empty TriggerTypes set accepts anything.
func (s *TaskSpec) AcceptsTrigger(triggerType string) bool {
	if len(s.TriggerTypes) == 0 {
		return true
	}
	for _, t := range s.TriggerTypes {
		if t == triggerType {
			return true
		}
	}
	return false
}

// IsEnabled resolves the enabled status against the flag map. The default
// predicate reads flags[TaskID], defaulting to true when absent.
func (s *TaskSpec) IsEnabled(flags map[string]bool) bool {
	if s.Enabled != nil {
		return s.Enabled(flags)
	}
	if v, ok := flags[s.TaskID]; ok {
		return v
	}
	return true
}

// Row is the List projection of a TaskSpec plus its resolved enabled status
type Row struct {
	TaskID        string        `json:"task_id"`
	Pipeline      string        `json:"pipeline"`
	SystemName    string        `json:"system_name"`
	TriggerTypes  []string      `json:"trigger_types"`
	SchedulerType SchedulerType `json:"scheduler_type"`
	Dependencies  []string      `json:"dependencies"`
	Description   string        `json:"description"`
	Enabled       bool          `json:"enabled"`
}
