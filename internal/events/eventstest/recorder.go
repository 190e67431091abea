// Package eventstest provides an in-memory events.Publisher for tests that
// assert on emitted notifications.
package eventstest

import (
	"context"
	"sync"

	"threadline/internal/events"
)

// Recorder keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

// Publish implements events.Publisher.
func (r *Recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns the recorded events of one kind.
func (r *Recorder) OfKind(kind events.Kind) []events.Event {
	var out []events.Event
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
