package pipeline_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/pipeline"
)

func completedExecutor(marker string, calls *[]string) pipeline.Executor {
	return func(ctx context.Context, input pipeline.Document) (pipeline.Document, error) {
		*calls = append(*calls, marker)
		return pipeline.Document{"marker": marker}, nil
	}
}

func TestHub_RunExecutesSelectionWithDependencyClosure(t *testing.T) {
	// Arrange
	hub := pipeline.NewHub()
	var calls []string
	specs := []*pipeline.TaskSpec{
		{TaskID: "fetch", Executor: completedExecutor("fetch", &calls)},
		{TaskID: "analyze", Dependencies: []string{"fetch"}, Executor: completedExecutor("analyze", &calls)},
		{TaskID: "decide", Dependencies: []string{"analyze"}, Executor: completedExecutor("decide", &calls)},
		{TaskID: "unrelated", Executor: completedExecutor("unrelated", &calls)},
	}
	require.NoError(t, hub.RegisterMany(specs))

	// Act
	results := hub.Run(context.Background(), "cycle", pipeline.Document{}, nil, []string{"decide"})

	// Assert
	assert.Equal(t, []string{"fetch", "analyze", "decide"}, calls)
	assert.Len(t, results, 3)
	assert.NotContains(t, results, "unrelated")
	for _, id := range []string{"fetch", "analyze", "decide"} {
		assert.Equal(t, pipeline.StatusCompleted, results[id]["status"])
	}
}

func TestHub_RunNilSelectionRunsEverything(t *testing.T) {
	// Arrange
	hub := pipeline.NewHub()
	var calls []string
	require.NoError(t, hub.RegisterMany([]*pipeline.TaskSpec{
		{TaskID: "a", Executor: completedExecutor("a", &calls)},
		{TaskID: "b", Executor: completedExecutor("b", &calls)},
	}))

	// Act
	results := hub.Run(context.Background(), "cycle", pipeline.Document{}, nil, nil)

	// Assert
	assert.Len(t, results, 2)
	assert.Len(t, calls, 2)
}

func TestHub_RunSkipsTriggerMismatch(t *testing.T) {
	// Arrange
	hub := pipeline.NewHub()
	var calls []string
	require.NoError(t, hub.RegisterMany([]*pipeline.TaskSpec{
		{TaskID: "scoped", TriggerTypes: []string{"watchlist_review"}, Executor: completedExecutor("scoped", &calls)},
	}))

	// Act
	results := hub.Run(context.Background(), "cycle", pipeline.Document{}, nil, nil)

	// Assert
	assert.Empty(t, calls)
	assert.Equal(t, pipeline.StatusSkipped, results["scoped"]["status"])
	assert.Equal(t, pipeline.ReasonTriggerMismatch, results["scoped"]["reason"])
}

func TestHub_RunSkipsDisabledTask(t *testing.T) {
	// Arrange
	hub := pipeline.NewHub()
	var calls []string
	require.NoError(t, hub.RegisterMany([]*pipeline.TaskSpec{
		{TaskID: "task", Executor: completedExecutor("task", &calls)},
	}))

	// Act
	results := hub.Run(context.Background(), "cycle", pipeline.Document{}, map[string]bool{"task": false}, nil)

	// Assert
	assert.Empty(t, calls)
	assert.Equal(t, pipeline.ReasonDisabled, results["task"]["reason"])
}

func TestHub_RunSkipsTaskWithoutExecutor(t *testing.T) {
	// Arrange
	hub := pipeline.NewHub()
	require.NoError(t, hub.RegisterMany([]*pipeline.TaskSpec{
		{TaskID: "empty"},
	}))

	// Act
	results := hub.Run(context.Background(), "cycle", pipeline.Document{}, nil, nil)

	// Assert
	assert.Equal(t, pipeline.StatusSkipped, results["empty"]["status"])
	assert.Equal(t, pipeline.ReasonNoExecutor, results["empty"]["reason"])
}

func TestHub_RunSkipsDependentsOfFailedTask(t *testing.T) {
	// Arrange
	hub := pipeline.NewHub()
	var calls []string
	require.NoError(t, hub.RegisterMany([]*pipeline.TaskSpec{
		{TaskID: "source", Executor: func(ctx context.Context, input pipeline.Document) (pipeline.Document, error) {
			return nil, fmt.Errorf("feed unavailable")
		}},
		{TaskID: "dependent", Dependencies: []string{"source"}, Executor: completedExecutor("dependent", &calls)},
	}))

	// Act
	results := hub.Run(context.Background(), "cycle", pipeline.Document{}, nil, nil)

	// Assert
	assert.Empty(t, calls)
	assert.Equal(t, pipeline.StatusFailed, results["source"]["status"])
	assert.Equal(t, "feed unavailable", results["source"]["error"])
	assert.Equal(t, pipeline.StatusSkipped, results["dependent"]["status"])
	assert.Equal(t, pipeline.ReasonDependencyFailed, results["dependent"]["reason"])
}

func TestHub_RunConvertsPanicToFailedResult(t *testing.T) {
	// Arrange
	hub := pipeline.NewHub()
	require.NoError(t, hub.RegisterMany([]*pipeline.TaskSpec{
		{TaskID: "explosive", Executor: func(ctx context.Context, input pipeline.Document) (pipeline.Document, error) {
			panic("boom")
		}},
	}))

	// Act
	results := hub.Run(context.Background(), "cycle", pipeline.Document{}, nil, nil)

	// Assert
	assert.Equal(t, pipeline.StatusFailed, results["explosive"]["status"])
	assert.Contains(t, results["explosive"]["error"], "boom")
}

func TestHub_RunDefaultsMissingStatusToCompleted(t *testing.T) {
	// Arrange
	hub := pipeline.NewHub()
	require.NoError(t, hub.RegisterMany([]*pipeline.TaskSpec{
		{TaskID: "bare", Executor: func(ctx context.Context, input pipeline.Document) (pipeline.Document, error) {
			return pipeline.Document{"value": 42}, nil
		}},
	}))

	// Act
	results := hub.Run(context.Background(), "cycle", pipeline.Document{}, nil, nil)

	// Assert
	assert.Equal(t, pipeline.StatusCompleted, results["bare"]["status"])
	assert.Equal(t, 42, results["bare"]["value"])
}

func TestHub_RegisterOverwritesByTaskID(t *testing.T) {
	// Arrange
	hub := pipeline.NewHub()
	require.NoError(t, hub.Register(&pipeline.TaskSpec{TaskID: "task", Description: "first"}))

	// Act
	err := hub.Register(&pipeline.TaskSpec{TaskID: "task", Description: "second"})

	// Assert
	require.NoError(t, err)
	spec, ok := hub.Get("task")
	require.True(t, ok)
	assert.Equal(t, "second", spec.Description)
}

func TestHub_RegisterManyRejectsUnknownDependency(t *testing.T) {
	// Arrange
	hub := pipeline.NewHub()

	// Act
	err := hub.RegisterMany([]*pipeline.TaskSpec{
		{TaskID: "orphan", Dependencies: []string{"missing"}},
	})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestHub_RegisterManyRejectsDependencyCycle(t *testing.T) {
	// Arrange
	hub := pipeline.NewHub()

	// Act
	err := hub.RegisterMany([]*pipeline.TaskSpec{
		{TaskID: "a", Dependencies: []string{"b"}},
		{TaskID: "b", Dependencies: []string{"a"}},
	})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestHub_ListResolvesEnabledFlags(t *testing.T) {
	// Arrange
	hub := pipeline.NewHub()
	require.NoError(t, hub.RegisterMany([]*pipeline.TaskSpec{
		{TaskID: "b_task"},
		{TaskID: "a_task"},
	}))

	// Act
	rows := hub.List(map[string]bool{"a_task": false})

	// Assert
	require.Len(t, rows, 2)
	assert.Equal(t, "a_task", rows[0].TaskID)
	assert.False(t, rows[0].Enabled)
	assert.Equal(t, "b_task", rows[1].TaskID)
	assert.True(t, rows[1].Enabled)
}
