package helpers

import (
	"context"
	"sync"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/ports"
)

// MockWorkforce simulates a task-tree collaborator for testing
type MockWorkforce struct {
	mu sync.Mutex

	result    map[string]interface{}
	err       error
	submitted []*ports.TaskTree
}

// NewMockWorkforce creates a mock workforce returning an empty result
func NewMockWorkforce() *MockWorkforce {
	return &MockWorkforce{result: map[string]interface{}{}}
}

// SetResult configures the result returned by ProcessTask
func (m *MockWorkforce) SetResult(result map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = result
}

// SetError configures ProcessTask to fail
func (m *MockWorkforce) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Submitted returns the trees submitted so far
func (m *MockWorkforce) Submitted() []*ports.TaskTree {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ports.TaskTree, len(m.submitted))
	copy(out, m.submitted)
	return out
}

// ProcessTask records the tree and returns the configured result
func (m *MockWorkforce) ProcessTask(ctx context.Context, tree *ports.TaskTree) (map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, tree)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}
