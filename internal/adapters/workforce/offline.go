// Package workforce provides the task-tree collaborators the pipeline
// managers submit analysis work to.
package workforce

import (
	"context"
	"sort"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/ports"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
)

// OfflineWorkforce is the built-in collaborator used when no external
// analysis service is configured. It walks the tree in dependency order and
// produces conservative hold decisions, so pipelines stay runnable without
// an analyst attached.
type OfflineWorkforce struct {
	clock shared.Clock
}

// NewOfflineWorkforce creates the offline collaborator.
// If clock is nil, uses RealClock.
func NewOfflineWorkforce(clock shared.Clock) *OfflineWorkforce {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &OfflineWorkforce{clock: clock}
}

// ProcessTask walks the tree nodes in dependency order and emits one
// document per node
func (w *OfflineWorkforce) ProcessTask(ctx context.Context, tree *ports.TaskTree) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nodes := make(map[string]interface{}, len(tree.Nodes))
	for _, node := range orderByDependencies(tree.Nodes) {
		nodes[node.ID] = map[string]interface{}{
			"task_id":  node.ID,
			"type":     node.Type,
			"status":   "completed",
			"decision": "hold",
			"summary":  "offline workforce: no analysis backend configured",
		}
	}

	return map[string]interface{}{
		"root":         tree.Root,
		"processed_at": w.clock.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		"nodes":        nodes,
	}, nil
}

// orderByDependencies sorts nodes so every node follows its dependencies.
// Unknown or cyclic dependencies do not block emission; remaining nodes are
// appended in id order.
func orderByDependencies(nodes []ports.TaskNode) []ports.TaskNode {
	emitted := make(map[string]bool, len(nodes))
	pending := make([]ports.TaskNode, len(nodes))
	copy(pending, nodes)
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })

	ordered := make([]ports.TaskNode, 0, len(nodes))
	for len(pending) > 0 {
		progressed := false
		rest := pending[:0]
		for _, node := range pending {
			ready := true
			for _, dep := range node.DependsOn {
				if !emitted[dep] {
					ready = false
					break
				}
			}
			if ready {
				ordered = append(ordered, node)
				emitted[node.ID] = true
				progressed = true
			} else {
				rest = append(rest, node)
			}
		}
		pending = rest
		if !progressed {
			// cycle or dangling dependency, flush the remainder
			ordered = append(ordered, pending...)
			break
		}
	}
	return ordered
}
