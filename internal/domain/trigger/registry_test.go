package trigger_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/pipeline"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/trigger"
)

func newRegistry(t *testing.T) (*trigger.Registry, *shared.MockClock) {
	t.Helper()
	clock := shared.NewMockClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	return trigger.NewRegistry(clock), clock
}

func TestRegistry_RunStampsCompletedResult(t *testing.T) {
	// Arrange
	registry, _ := newRegistry(t)
	require.NoError(t, registry.RegisterMany([]*trigger.FlowSpec{
		{
			TriggerID: "cycle",
			Resolver: func(ctx context.Context, args pipeline.Document) (pipeline.Document, error) {
				return pipeline.Document{"value": 1}, nil
			},
		},
	}))

	// Act
	result := registry.Run(context.Background(), "cycle", nil)

	// Assert
	assert.Equal(t, pipeline.StatusCompleted, result["status"])
	assert.Equal(t, "cycle", result["trigger_id"])
	assert.Equal(t, "2026-01-15T12:00:00Z", result["started_at"])
	assert.NotEmpty(t, result["completed_at"])
}

func TestRegistry_RunKeepsResolverStatus(t *testing.T) {
	// Arrange
	registry, _ := newRegistry(t)
	require.NoError(t, registry.RegisterMany([]*trigger.FlowSpec{
		{
			TriggerID: "scan",
			Resolver: func(ctx context.Context, args pipeline.Document) (pipeline.Document, error) {
				return pipeline.Document{"status": pipeline.StatusSkipped, "reason": "interval_throttle"}, nil
			},
		},
	}))

	// Act
	result := registry.Run(context.Background(), "scan", pipeline.Document{})

	// Assert
	assert.Equal(t, pipeline.StatusSkipped, result["status"])
	assert.Equal(t, "interval_throttle", result["reason"])
}

func TestRegistry_RunUnknownTriggerFailsWithHistoryEntry(t *testing.T) {
	// Arrange
	registry, _ := newRegistry(t)

	// Act
	result := registry.Run(context.Background(), "nonexistent", nil)

	// Assert
	assert.Equal(t, pipeline.StatusFailed, result["status"])
	assert.Equal(t, trigger.ErrUnknownTriggerFlow, result["error"])

	history := registry.History(0)
	require.Len(t, history, 1)
	assert.Equal(t, "nonexistent", history[0].TriggerID)
	assert.Equal(t, pipeline.StatusFailed, history[0].Status)
	assert.Equal(t, trigger.ErrUnknownTriggerFlow, history[0].Error)
}

func TestRegistry_RunResolverErrorProducesFailedDocument(t *testing.T) {
	// Arrange
	registry, _ := newRegistry(t)
	require.NoError(t, registry.RegisterMany([]*trigger.FlowSpec{
		{
			TriggerID: "cycle",
			Resolver: func(ctx context.Context, args pipeline.Document) (pipeline.Document, error) {
				return nil, fmt.Errorf("workforce offline")
			},
		},
	}))

	// Act
	result := registry.Run(context.Background(), "cycle", nil)

	// Assert
	assert.Equal(t, pipeline.StatusFailed, result["status"])
	assert.Equal(t, "workforce offline", result["error"])
}

func TestRegistry_RunRecoversFromResolverPanic(t *testing.T) {
	// Arrange
	registry, _ := newRegistry(t)
	require.NoError(t, registry.RegisterMany([]*trigger.FlowSpec{
		{
			TriggerID: "cycle",
			Resolver: func(ctx context.Context, args pipeline.Document) (pipeline.Document, error) {
				panic("resolver exploded")
			},
		},
	}))

	// Act
	result := registry.Run(context.Background(), "cycle", nil)

	// Assert
	assert.Equal(t, pipeline.StatusFailed, result["status"])
	assert.Contains(t, result["error"], "resolver exploded")
}

func TestRegistry_HistoryNewestFirst(t *testing.T) {
	// Arrange
	registry, clock := newRegistry(t)
	require.NoError(t, registry.RegisterMany([]*trigger.FlowSpec{
		{
			TriggerID: "cycle",
			Resolver: func(ctx context.Context, args pipeline.Document) (pipeline.Document, error) {
				return pipeline.Document{}, nil
			},
		},
	}))

	// Act
	registry.Run(context.Background(), "cycle", nil)
	clock.Advance(time.Minute)
	registry.Run(context.Background(), "cycle", nil)

	// Assert
	history := registry.History(0)
	require.Len(t, history, 2)
	assert.True(t, history[0].StartedAt.After(history[1].StartedAt))
}

func TestRegistry_ObserverSeesEveryInvocation(t *testing.T) {
	// Arrange
	registry, _ := newRegistry(t)
	var observed []string
	registry.SetObserver(func(triggerID, status string, elapsed time.Duration) {
		observed = append(observed, triggerID+":"+status)
	})
	require.NoError(t, registry.RegisterMany([]*trigger.FlowSpec{
		{
			TriggerID: "cycle",
			Resolver: func(ctx context.Context, args pipeline.Document) (pipeline.Document, error) {
				return pipeline.Document{}, nil
			},
		},
	}))

	// Act
	registry.Run(context.Background(), "cycle", nil)
	registry.Run(context.Background(), "unknown", nil)

	// Assert
	assert.Equal(t, []string{"cycle:completed", "unknown:failed"}, observed)
}

func TestRegistry_ListSortedByTriggerID(t *testing.T) {
	// Arrange
	registry, _ := newRegistry(t)
	require.NoError(t, registry.RegisterMany([]*trigger.FlowSpec{
		{TriggerID: "watchlist_review", Pipeline: "dex"},
		{TriggerID: "cycle", Pipeline: "dex"},
	}))

	// Act
	rows := registry.List()

	// Assert
	require.Len(t, rows, 2)
	assert.Equal(t, "cycle", rows[0].TriggerID)
	assert.Equal(t, "watchlist_review", rows[1].TriggerID)
}
