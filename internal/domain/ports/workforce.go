package ports

import "context"

// TaskNode is one opaque unit of work submitted to the workforce. Nodes
// reference each other by id only; the tree shape lives in TaskTree.Layout.
type TaskNode struct {
	ID             string                 `json:"id"`
	Content        string                 `json:"content"`
	Type           string                 `json:"type"`
	DependsOn      []string               `json:"dependencies,omitempty"`
	AdditionalInfo map[string]interface{} `json:"additional_info,omitempty"`
}

// TreeEdge is one parent→child relation in a task tree
type TreeEdge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// TaskTree is a flat node list plus layout, submitted to the workforce as a
// single unit. Root names the entry node.
type TaskTree struct {
	Root   string     `json:"root"`
	Nodes  []TaskNode `json:"nodes"`
	Layout []TreeEdge `json:"layout,omitempty"`
}

// Node returns the node with the given id
func (t *TaskTree) Node(id string) (*TaskNode, bool) {
	for i := range t.Nodes {
		if t.Nodes[i].ID == id {
			return &t.Nodes[i], true
		}
	}
	return nil, false
}

// Workforce capability interfaces. The manager probes them in order:
// AsyncProcessor, then Processor, then Runner. A collaborator implementing
// none of them yields {status: skipped, reason: workforce_no_method}.
type AsyncProcessor interface {
	ProcessTaskAsync(ctx context.Context, tree *TaskTree) (map[string]interface{}, error)
}

type Processor interface {
	ProcessTask(ctx context.Context, tree *TaskTree) (map[string]interface{}, error)
}

type Runner interface {
	Run(ctx context.Context, tree *TaskTree) (map[string]interface{}, error)
}

// SubmitToWorkforce dispatches a task tree through the first supported
// capability. The second return is false when the collaborator exposes no
// known submission method.
func SubmitToWorkforce(ctx context.Context, workforce interface{}, tree *TaskTree) (map[string]interface{}, bool, error) {
	switch wf := workforce.(type) {
	case AsyncProcessor:
		result, err := wf.ProcessTaskAsync(ctx, tree)
		return result, true, err
	case Processor:
		result, err := wf.ProcessTask(ctx, tree)
		return result, true, err
	case Runner:
		result, err := wf.Run(ctx, tree)
		return result, true, err
	default:
		return nil, false, nil
	}
}
