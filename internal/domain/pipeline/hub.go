package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
)

// Hub maintains the registry of task flows for one manager and executes a
// selected subset in dependency order for a trigger invocation.
//
// Registration is idempotent (overwrite by task id). Dependency references
// and cycles are validated by RegisterMany; the DFS in resolveOrder keeps a
// visiting guard as a run-time backstop so a bad registry still yields a
// partial order instead of recursing forever.
type Hub struct {
	mu    sync.RWMutex
	specs map[string]*TaskSpec
}

// NewHub creates an empty task flow hub
func NewHub() *Hub {
	return &Hub{specs: make(map[string]*TaskSpec)}
}

// Register adds or overwrites a single spec by task id. Dependency
// references are not validated here so callers can register in any order;
// use RegisterMany (or ValidateGraph) once the full set is known.
func (h *Hub) Register(spec *TaskSpec) error {
	if spec == nil || spec.TaskID == "" {
		return fmt.Errorf("task spec requires a task_id")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.specs[spec.TaskID] = spec
	return nil
}

// RegisterMany registers all specs and then validates the dependency graph.
// Missing dependencies and cycles are registration errors.
func (h *Hub) RegisterMany(specs []*TaskSpec) error {
	for _, spec := range specs {
		if err := h.Register(spec); err != nil {
			return err
		}
	}
	return h.ValidateGraph()
}

// ValidateGraph checks that every dependency references a registered task id
// and that the dependency graph is acyclic.
func (h *Hub) ValidateGraph() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, spec := range h.specs {
		for _, dep := range spec.Dependencies {
			if _, ok := h.specs[dep]; !ok {
				return fmt.Errorf("task %q depends on unregistered task %q", id, dep)
			}
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(h.specs))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("dependency cycle involving task %q", id)
		}
		state[id] = visiting
		for _, dep := range h.specs[id].Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	for id := range h.specs {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the spec registered under the given task id
func (h *Hub) Get(taskID string) (*TaskSpec, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	spec, ok := h.specs[taskID]
	return spec, ok
}

// List returns each registered spec with its resolved enabled status,
// ordered by task id for stable output.
func (h *Hub) List(flags map[string]bool) []Row {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rows := make([]Row, 0, len(h.specs))
	for _, spec := range h.specs {
		rows = append(rows, Row{
			TaskID:        spec.TaskID,
			Pipeline:      spec.Pipeline,
			SystemName:    spec.SystemName,
			TriggerTypes:  append([]string(nil), spec.TriggerTypes...),
			SchedulerType: spec.SchedulerType,
			Dependencies:  append([]string(nil), spec.Dependencies...),
			Description:   spec.Description,
			Enabled:       spec.IsEnabled(flags),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TaskID < rows[j].TaskID })
	return rows
}

// Run resolves an execution order for the selected task ids (nil selects the
// full registry) and runs executors strictly sequentially, producing a status
// document per selected task. Every entry carries a "status" field.
func (h *Hub) Run(ctx context.Context, triggerType string, input Document, flags map[string]bool, selected []string) map[string]Document {
	h.mu.RLock()
	specs := make(map[string]*TaskSpec, len(h.specs))
	for id, spec := range h.specs {
		specs[id] = spec
	}
	h.mu.RUnlock()

	selection := make(map[string]bool)
	if len(selected) == 0 {
		for id := range specs {
			selection[id] = true
		}
	} else {
		for _, id := range selected {
			if _, ok := specs[id]; ok {
				selection[id] = true
			}
		}
	}

	order := resolveOrder(specs, selection)
	logger := common.LoggerFromContext(ctx)
	results := make(map[string]Document, len(order))

	for _, id := range order {
		spec := specs[id]
		switch {
		case !spec.AcceptsTrigger(triggerType):
			results[id] = Document{"status": StatusSkipped, "reason": ReasonTriggerMismatch}
		case !spec.IsEnabled(flags):
			results[id] = Document{"status": StatusSkipped, "reason": ReasonDisabled}
		case spec.Executor == nil:
			results[id] = Document{"status": StatusSkipped, "reason": ReasonNoExecutor}
		case dependencyFailed(spec, results):
			results[id] = Document{"status": StatusSkipped, "reason": ReasonDependencyFailed}
		default:
			doc := runExecutor(ctx, spec, input)
			if doc["status"] == StatusFailed {
				logger.Log("ERROR", fmt.Sprintf("Task flow %s failed: %v", id, doc["error"]), map[string]interface{}{
					"task_id":      id,
					"trigger_type": triggerType,
				})
			}
			results[id] = doc
		}
	}
	return results
}

// runExecutor invokes the executor, converting errors and panics into a
// failed result document so one task cannot break the batch.
func runExecutor(ctx context.Context, spec *TaskSpec, input Document) (doc Document) {
	defer func() {
		if r := recover(); r != nil {
			doc = Document{"status": StatusFailed, "error": fmt.Sprintf("panic: %v", r)}
		}
	}()
	result, err := spec.Executor(ctx, input)
	if err != nil {
		return Document{"status": StatusFailed, "error": err.Error()}
	}
	if result == nil {
		result = Document{}
	}
	if _, ok := result["status"]; !ok {
		result["status"] = StatusCompleted
	}
	return result
}

func dependencyFailed(spec *TaskSpec, results map[string]Document) bool {
	for _, dep := range spec.Dependencies {
		if doc, ok := results[dep]; ok && doc["status"] == StatusFailed {
			return true
		}
	}
	return false
}

// resolveOrder walks the dependency closure of each selected id in
// lexicographic order, appending ids post-order on first completion, so a
// selection implicitly pulls in its dependency closure. A visiting marker
// aborts cyclic visits, yielding a partial order.
func resolveOrder(specs map[string]*TaskSpec, selection map[string]bool) []string {
	roots := make([]string, 0, len(selection))
	for id := range selection {
		roots = append(roots, id)
	}
	sort.Strings(roots)

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(specs))
	order := make([]string, 0, len(selection))

	var visit func(id string)
	visit = func(id string) {
		spec, ok := specs[id]
		if !ok || state[id] != unvisited {
			return
		}
		state[id] = visiting
		for _, dep := range spec.Dependencies {
			if state[dep] == visiting {
				// cycle: abort this visit
				return
			}
			visit(dep)
		}
		state[id] = done
		order = append(order, id)
	}
	for _, id := range roots {
		visit(id)
	}
	return order
}
