// Package calendar abstracts the all-day event store gigcal reconciles
// against, with an ICS-file backend and an in-memory backend.
package calendar

import (
	"fmt"

	"github.com/gigcal/gigcal/internal/identity"
)

// Event is one all-day calendar event.
type Event struct {
	// ID is the store-assigned event identifier (the ICS UID). Distinct
	// from the gigcal identity embedded in the description.
	ID string

	Title       string
	Location    string
	Description string

	// Day is the event's start day key (YYYY-MM-DD). Events are all-day.
	Day string
}

// Store is the external calendar the reconciler owns the tagged events of.
type Store interface {
	// List returns events with from <= Day < to.
	List(from, to string) ([]Event, error)
	// Create adds an event and returns its store-assigned ID.
	Create(ev Event) (string, error)
	// Update overwrites the mutable fields of the event with the given ID.
	Update(id string, ev Event) error
	// Delete removes the event with the given ID.
	Delete(id string) error
	// Flush persists pending mutations. A no-op for backends that write
	// through.
	Flush() error
}

// RateLimitError reports a mutation rejected by the backend's rate
// limiting. Callers retry with backoff rather than failing the run.
type RateLimitError struct {
	Op string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("calendar rate limit exceeded during %s", e.Op)
}

// Tagged filters events down to those carrying an identity marker and keys
// them by identity. Untagged events are invisible to reconciliation: the
// user's own calendar entries are never touched.
func Tagged(events []Event) map[string]Event {
	tagged := make(map[string]Event)
	for _, ev := range events {
		if id, ok := identity.ExtractMarker(ev.Description); ok {
			tagged[id] = ev
		}
	}
	return tagged
}
