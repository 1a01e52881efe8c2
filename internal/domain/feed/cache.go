package feed

import (
	"sort"
	"time"
)

// Entry is one item tracked by the feed-threshold worker
type Entry struct {
	ID        string                 `json:"id"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
	Exhausted bool                   `json:"exhausted"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Snapshot is the serializable form of a cache, used for the disk mirror
type Snapshot struct {
	SavedAt time.Time `json:"saved_at"`
	Entries []Entry   `json:"entries"`
}

// Prune drops inactive entries and enforces the size bound, keeping the
// maxEntries most-recently-seen entries by LastSeen. The input map is
// mutated in place.
func Prune(entries map[string]*Entry, active func(*Entry) bool, maxEntries int) {
	for id, e := range entries {
		if !active(e) {
			delete(entries, id)
		}
	}
	if maxEntries <= 0 || len(entries) <= maxEntries {
		return
	}
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := entries[ids[i]], entries[ids[j]]
		if !a.LastSeen.Equal(b.LastSeen) {
			return a.LastSeen.After(b.LastSeen)
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids[maxEntries:] {
		delete(entries, id)
	}
}

// ActiveNotExhausted is the default liveness predicate
func ActiveNotExhausted(e *Entry) bool {
	return e != nil && !e.Exhausted
}
