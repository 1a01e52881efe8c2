package common

import (
	"sync"
	"time"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
)

// MaxRingEvents caps the in-memory audit ring
const MaxRingEvents = 500

// Event is one audit entry emitted by a manager operation
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// EventRing keeps the most recent events in memory, newest first.
// It implements EventLogger so it can sit behind a MultiLogger.
type EventRing struct {
	mu     sync.Mutex
	events []Event
	max    int
	clock  shared.Clock
}

// NewEventRing creates a ring holding at most max events.
// If clock is nil, uses RealClock.
func NewEventRing(max int, clock shared.Clock) *EventRing {
	if max <= 0 {
		max = MaxRingEvents
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &EventRing{max: max, clock: clock}
}

// Log appends an event, evicting the oldest entry when full
func (r *EventRing) Log(level, message string, metadata map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append([]Event{{
		Timestamp: r.clock.Now(),
		Level:     level,
		Message:   message,
		Context:   metadata,
	}}, r.events...)
	if len(r.events) > r.max {
		r.events = r.events[:r.max]
	}
}

// List returns up to limit events, newest first
func (r *EventRing) List(limit int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.events) {
		limit = len(r.events)
	}
	out := make([]Event, limit)
	copy(out, r.events[:limit])
	return out
}
