package execution_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/execution"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
)

func waitForTerminal(t *testing.T, tracker *execution.Tracker, id string) execution.Record {
	t.Helper()
	var rec execution.Record
	require.Eventually(t, func() bool {
		r, ok := tracker.Get(id)
		if !ok {
			return false
		}
		rec = r
		return r.Status != execution.StatusQueued && r.Status != execution.StatusRunning
	}, 2*time.Second, 5*time.Millisecond)
	return rec
}

func TestTracker_LaunchCompletesWithSummarizedResult(t *testing.T) {
	// Arrange
	tracker := execution.NewTracker(shared.NewMockClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)))

	// Act
	id := tracker.Launch("long_study", "scheduled_cycle", func(ctx context.Context, executionID string) (map[string]interface{}, error) {
		return map[string]interface{}{"decision": "hold"}, nil
	})

	// Assert
	require.NotEmpty(t, id)
	rec := waitForTerminal(t, tracker, id)
	assert.Equal(t, execution.StatusCompleted, rec.Status)
	assert.Equal(t, "long_study", rec.Mode)
	assert.Equal(t, "scheduled_cycle", rec.Reason)
	assert.Contains(t, rec.Result, "hold")
}

func TestTracker_LaunchErrorMarksFailed(t *testing.T) {
	// Arrange
	tracker := execution.NewTracker(nil)

	// Act
	id := tracker.Launch("manual", "api", func(ctx context.Context, executionID string) (map[string]interface{}, error) {
		return nil, fmt.Errorf("pipeline unavailable")
	})

	// Assert
	rec := waitForTerminal(t, tracker, id)
	assert.Equal(t, execution.StatusFailed, rec.Status)
	assert.Equal(t, "pipeline unavailable", rec.Error)
	assert.Empty(t, rec.Result)
}

func TestTracker_LaunchGeneratesUniqueIDs(t *testing.T) {
	// Arrange
	tracker := execution.NewTracker(nil)
	noop := func(ctx context.Context, executionID string) (map[string]interface{}, error) {
		return nil, nil
	}

	// Act
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[tracker.Launch("manual", "api", noop)] = true
	}

	// Assert
	assert.Len(t, seen, 50)
}

func TestTracker_CancelAllDiscardsLateResults(t *testing.T) {
	// Arrange
	tracker := execution.NewTracker(nil)
	release := make(chan struct{})
	started := make(chan struct{})

	id := tracker.Launch("long_study", "scheduled_cycle", func(ctx context.Context, executionID string) (map[string]interface{}, error) {
		close(started)
		<-release
		return map[string]interface{}{"decision": "buy"}, nil
	})
	<-started

	// Act
	done := make(chan struct{})
	go func() {
		tracker.CancelAll(context.Background())
		close(done)
	}()
	// the record is marked cancelled before the runner finishes
	require.Eventually(t, func() bool {
		rec, ok := tracker.Get(id)
		return ok && rec.Status == execution.StatusCancelled
	}, 2*time.Second, 5*time.Millisecond)
	close(release)
	<-done

	// Assert
	rec, ok := tracker.Get(id)
	require.True(t, ok)
	assert.Equal(t, execution.StatusCancelled, rec.Status)
	assert.Empty(t, rec.Result)
	assert.Equal(t, 0, tracker.InFlight())
}

func TestTracker_SetStageAttachesMarker(t *testing.T) {
	// Arrange
	tracker := execution.NewTracker(nil)
	release := make(chan struct{})
	started := make(chan struct{})
	id := tracker.Launch("manual", "api", func(ctx context.Context, executionID string) (map[string]interface{}, error) {
		close(started)
		<-release
		return nil, nil
	})
	<-started

	// Act
	tracker.SetStage(id, "workforce_submitted")

	// Assert
	rec, ok := tracker.Get(id)
	require.True(t, ok)
	assert.Equal(t, "workforce_submitted", rec.Stage)
	close(release)
	waitForTerminal(t, tracker, id)
}

func TestTracker_ListNewestFirst(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	tracker := execution.NewTracker(clock)
	noop := func(ctx context.Context, executionID string) (map[string]interface{}, error) {
		return nil, nil
	}

	first := tracker.Launch("manual", "one", noop)
	waitForTerminal(t, tracker, first)
	clock.Advance(time.Minute)
	second := tracker.Launch("manual", "two", noop)
	waitForTerminal(t, tracker, second)

	// Act
	records := tracker.List(0)

	// Assert
	require.Len(t, records, 2)
	assert.Equal(t, second, records[0].ExecutionID)
	assert.Equal(t, first, records[1].ExecutionID)
}

func TestTracker_GetUnknownID(t *testing.T) {
	// Arrange
	tracker := execution.NewTracker(nil)

	// Act
	_, ok := tracker.Get("missing")

	// Assert
	assert.False(t, ok)
}

func TestTracker_ObserverSeesTerminalState(t *testing.T) {
	// Arrange
	tracker := execution.NewTracker(nil)
	statuses := make(chan execution.Status, 1)
	tracker.SetObserver(func(mode string, status execution.Status, elapsed time.Duration) {
		statuses <- status
	})

	// Act
	tracker.Launch("manual", "api", func(ctx context.Context, executionID string) (map[string]interface{}, error) {
		return nil, nil
	})

	// Assert
	select {
	case status := <-statuses:
		assert.Equal(t, execution.StatusCompleted, status)
	case <-time.After(2 * time.Second):
		t.Fatal("observer was not notified")
	}
}
