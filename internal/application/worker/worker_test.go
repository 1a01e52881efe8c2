package worker_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidryheal-create/trader.exe-sub001/internal/application/worker"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/feed"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
)

type feedItem struct {
	id    string
	value float64
}

func newItemCache(maxCache, threshold int, clock shared.Clock) *worker.FeedThresholdWorker[feedItem] {
	return worker.NewFeedThresholdWorker(
		maxCache, threshold,
		func(item feedItem) string { return item.id },
		func(item feedItem, existing *feed.Entry, now time.Time) *feed.Entry {
			entry := &feed.Entry{
				ID:       item.id,
				LastSeen: now,
				Data:     map[string]interface{}{"value": item.value},
			}
			if existing != nil {
				entry.FirstSeen = existing.FirstSeen
				entry.Exhausted = existing.Exhausted
			} else {
				entry.FirstSeen = now
			}
			return entry
		},
		nil,
		clock,
	)
}

func TestIntervalWorker_FloorsIntervalAtMinimum(t *testing.T) {
	// Arrange / Act
	w := worker.NewIntervalWorker("cycle", time.Second, time.Minute, func(ctx context.Context) error {
		return nil
	}, nil)

	// Assert
	assert.Equal(t, time.Minute, w.Interval())

	// Act - raising above the floor takes effect
	w.SetInterval(2 * time.Hour)
	assert.Equal(t, 2*time.Hour, w.Interval())

	// Act - dropping below the floor clamps again
	w.SetInterval(time.Millisecond)
	assert.Equal(t, time.Minute, w.Interval())
}

func TestIntervalWorker_RunStopsWhenNotRunning(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	var ticks int32
	w := worker.NewIntervalWorker("cycle", time.Minute, time.Second, func(ctx context.Context) error {
		atomic.AddInt32(&ticks, 1)
		return nil
	}, clock)

	// Act - three passes, then the predicate flips off
	err := w.Run(context.Background(), func() bool {
		return atomic.LoadInt32(&ticks) < 3
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&ticks))
}

func TestIntervalWorker_TickErrorDoesNotStopLoop(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	var ticks int32
	w := worker.NewIntervalWorker("cycle", time.Minute, time.Second, func(ctx context.Context) error {
		atomic.AddInt32(&ticks, 1)
		return fmt.Errorf("tick failed")
	}, clock)

	// Act
	err := w.Run(context.Background(), func() bool {
		return atomic.LoadInt32(&ticks) < 2
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&ticks))
}

func TestIntervalWorker_RunReturnsOnContextCancel(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := worker.NewIntervalWorker("cycle", time.Minute, time.Second, func(ctx context.Context) error {
		return nil
	}, nil)

	// Act
	err := w.Run(ctx, nil)

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConditionalWorker_RunOnceFiltersAndDispatches(t *testing.T) {
	// Arrange
	var dispatched []string
	w := worker.NewConditionalWorker(
		"watchlist",
		time.Minute,
		func(ctx context.Context) ([]feedItem, error) {
			return []feedItem{{"a", 0.02}, {"b", 0.08}, {"c", 0.12}}, nil
		},
		func(item feedItem) bool { return item.value >= 0.05 },
		func(ctx context.Context, item feedItem) error {
			dispatched = append(dispatched, item.id)
			return nil
		},
		nil,
	)

	// Act
	count, err := w.RunOnce(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"b", "c"}, dispatched)
}

func TestConditionalWorker_ItemErrorContinuesPass(t *testing.T) {
	// Arrange
	var dispatched []string
	w := worker.NewConditionalWorker(
		"watchlist",
		time.Minute,
		func(ctx context.Context) ([]feedItem, error) {
			return []feedItem{{"a", 1}, {"b", 1}}, nil
		},
		nil,
		func(ctx context.Context, item feedItem) error {
			if item.id == "a" {
				return fmt.Errorf("exit failed")
			}
			dispatched = append(dispatched, item.id)
			return nil
		},
		nil,
	)

	// Act
	count, err := w.RunOnce(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"b"}, dispatched)
}

func TestConditionalWorker_FetchErrorPropagates(t *testing.T) {
	// Arrange
	w := worker.NewConditionalWorker(
		"watchlist",
		time.Minute,
		func(ctx context.Context) ([]feedItem, error) {
			return nil, fmt.Errorf("upstream down")
		},
		nil,
		func(ctx context.Context, item feedItem) error { return nil },
		nil,
	)

	// Act
	count, err := w.RunOnce(context.Background())

	// Assert
	require.Error(t, err)
	assert.Equal(t, 0, count)
}

func TestFeedThresholdWorker_ReadinessThreshold(t *testing.T) {
	// Arrange
	cache := newItemCache(50, 3, nil)

	// Act / Assert
	cache.Update([]feedItem{{"a", 1}, {"b", 1}})
	assert.False(t, cache.Ready())

	cache.Update([]feedItem{{"c", 1}})
	assert.True(t, cache.Ready())
	assert.Equal(t, 3, cache.Len())
}

func TestFeedThresholdWorker_CacheNeverExceedsBound(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	cache := newItemCache(3, 2, clock)

	// Act - feed more items than the bound, advancing the clock so recency
	// is well defined
	for i := 0; i < 6; i++ {
		cache.Update([]feedItem{{fmt.Sprintf("item-%d", i), 1}})
		clock.Advance(time.Second)
	}

	// Assert - the three most recently seen survive
	assert.Equal(t, 3, cache.Len())
	ids := make(map[string]bool)
	for _, entry := range cache.PendingItems() {
		ids[entry.ID] = true
	}
	assert.True(t, ids["item-3"] && ids["item-4"] && ids["item-5"])
}

func TestFeedThresholdWorker_MarkProcessedDropsEntries(t *testing.T) {
	// Arrange
	cache := newItemCache(50, 2, nil)
	cache.Update([]feedItem{{"a", 1}, {"b", 1}, {"c", 1}})

	// Act
	cache.MarkProcessedKeys([]string{"a", "b"})

	// Assert
	assert.Equal(t, 1, cache.Len())
	assert.False(t, cache.Ready())
}

func TestFeedThresholdWorker_UpdatePreservesFirstSeen(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	cache := newItemCache(50, 1, clock)
	cache.Update([]feedItem{{"a", 1}})
	firstSeen := clock.Now()

	// Act
	clock.Advance(time.Hour)
	cache.Update([]feedItem{{"a", 2}})

	// Assert
	entries := cache.PendingItems()
	require.Len(t, entries, 1)
	assert.Equal(t, firstSeen, entries[0].FirstSeen)
	assert.Equal(t, clock.Now(), entries[0].LastSeen)
}

func TestFeedThresholdWorker_SnapshotRestoreRoundTrip(t *testing.T) {
	// Arrange
	cache := newItemCache(50, 2, nil)
	cache.Update([]feedItem{{"a", 1}, {"b", 2}})

	// Act
	snap := cache.Snapshot()
	restored := newItemCache(50, 2, nil)
	restored.Restore(snap)

	// Assert
	assert.Equal(t, 2, restored.Len())
	assert.True(t, restored.Ready())
}

func TestHybridWorker_StartAndStop(t *testing.T) {
	// Arrange
	h := worker.NewHybridWorker()
	started := make(chan struct{})
	h.RegisterRunner("loop", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	// Act
	require.NoError(t, h.Start(context.Background()))
	<-started

	// Assert
	assert.True(t, h.Running())
	h.Stop()
	assert.False(t, h.Running())
}

func TestHybridWorker_StartWithoutRunnersFails(t *testing.T) {
	// Arrange
	h := worker.NewHybridWorker()

	// Act
	err := h.Start(context.Background())

	// Assert
	require.Error(t, err)
}

func TestHybridWorker_StopIsIdempotent(t *testing.T) {
	// Arrange
	h := worker.NewHybridWorker()
	h.RegisterRunner("loop", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, h.Start(context.Background()))

	// Act / Assert - no panic, no deadlock
	h.Stop()
	h.Stop()
	assert.False(t, h.Running())
}
