package worker

import (
	"sync"
	"time"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/feed"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
)

// EntryBuilder merges an observed item into a cache entry. existing is nil
// on first sight; the builder owns FirstSeen/LastSeen bookkeeping.
type EntryBuilder[T any] func(item T, existing *feed.Entry, now time.Time) *feed.Entry

// FeedThresholdWorker maintains a bounded cache of observed items and gates
// downstream work on a readiness threshold. The cache is single-writer (the
// owning manager); the mutex guards concurrent readers.
type FeedThresholdWorker[T any] struct {
	mu        sync.Mutex
	entries   map[string]*feed.Entry
	maxCache  int
	threshold int
	key       func(item T) string
	build     EntryBuilder[T]
	active    func(*feed.Entry) bool
	clock     shared.Clock
}

// NewFeedThresholdWorker creates a feed cache worker. The active predicate
// defaults to dropping exhausted entries; clock defaults to RealClock.
func NewFeedThresholdWorker[T any](
	maxCache, threshold int,
	key func(item T) string,
	build EntryBuilder[T],
	active func(*feed.Entry) bool,
	clock shared.Clock,
) *FeedThresholdWorker[T] {
	if active == nil {
		active = feed.ActiveNotExhausted
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &FeedThresholdWorker[T]{
		entries:   make(map[string]*feed.Entry),
		maxCache:  maxCache,
		threshold: threshold,
		key:       key,
		build:     build,
		active:    active,
		clock:     clock,
	}
}

// SetLimits updates the cache bound and readiness threshold, then prunes
func (w *FeedThresholdWorker[T]) SetLimits(maxCache, threshold int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.maxCache = maxCache
	w.threshold = threshold
	feed.Prune(w.entries, w.active, w.maxCache)
}

// Update folds observed items into the cache, drops inactive entries, and
// enforces the size bound (most-recently-seen entries win).
func (w *FeedThresholdWorker[T]) Update(items []T) {
	now := w.clock.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, item := range items {
		k := w.key(item)
		if k == "" {
			continue
		}
		entry := w.build(item, w.entries[k], now)
		if entry == nil {
			continue
		}
		w.entries[k] = entry
	}
	feed.Prune(w.entries, w.active, w.maxCache)
}

// PendingItems returns copies of the current cache entries
func (w *FeedThresholdWorker[T]) PendingItems() []feed.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]feed.Entry, 0, len(w.entries))
	for _, e := range w.entries {
		out = append(out, *e)
	}
	return out
}

// Ready reports whether the cache has reached the readiness threshold
func (w *FeedThresholdWorker[T]) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries) >= w.threshold
}

// Len returns the current cache size
func (w *FeedThresholdWorker[T]) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// MarkProcessed flips exhausted on matched keys and prunes them
func (w *FeedThresholdWorker[T]) MarkProcessed(items []T) {
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, w.key(item))
	}
	w.MarkProcessedKeys(keys)
}

// MarkProcessedKeys flips exhausted on the given keys and prunes them
func (w *FeedThresholdWorker[T]) MarkProcessedKeys(keys []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, k := range keys {
		if e, ok := w.entries[k]; ok {
			e.Exhausted = true
		}
	}
	feed.Prune(w.entries, w.active, w.maxCache)
}

// Snapshot exports the cache for the disk mirror
func (w *FeedThresholdWorker[T]) Snapshot() feed.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := feed.Snapshot{SavedAt: w.clock.Now()}
	for _, e := range w.entries {
		snap.Entries = append(snap.Entries, *e)
	}
	return snap
}

// Restore replaces the cache from a disk-mirror snapshot
func (w *FeedThresholdWorker[T]) Restore(snap feed.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = make(map[string]*feed.Entry, len(snap.Entries))
	for i := range snap.Entries {
		e := snap.Entries[i]
		w.entries[e.ID] = &e
	}
	feed.Prune(w.entries, w.active, w.maxCache)
}
