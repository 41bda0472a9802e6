package calendar

import (
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory calendar Store for tests and dry-run plumbing.
// It can be configured to fail mutations with RateLimitError to exercise
// backoff paths.
type MemStore struct {
	mu     sync.Mutex
	events map[string]Event
	nextID int

	// RateLimitEvery fails every Nth mutation with a RateLimitError when
	// positive. Zero disables injection.
	RateLimitEvery int
	mutations      int
}

// NewMemStore returns an empty in-memory calendar.
func NewMemStore() *MemStore {
	return &MemStore{events: make(map[string]Event)}
}

func (s *MemStore) maybeRateLimit(op string) error {
	s.mutations++
	if s.RateLimitEvery > 0 && s.mutations%s.RateLimitEvery == 0 {
		return &RateLimitError{Op: op}
	}
	return nil
}

// List implements Store.
func (s *MemStore) List(from, to string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Event
	for _, ev := range s.events {
		if ev.Day >= from && ev.Day < to {
			out = append(out, ev)
		}
	}
	// Map iteration order is random; callers get a stable order.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create implements Store.
func (s *MemStore) Create(ev Event) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.maybeRateLimit("create"); err != nil {
		return "", err
	}
	s.nextID++
	ev.ID = fmt.Sprintf("mem-%d", s.nextID)
	s.events[ev.ID] = ev
	return ev.ID, nil
}

// Update implements Store.
func (s *MemStore) Update(id string, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.maybeRateLimit("update"); err != nil {
		return err
	}
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("event %s not found", id)
	}
	ev.ID = id
	s.events[id] = ev
	return nil
}

// Delete implements Store.
func (s *MemStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.maybeRateLimit("delete"); err != nil {
		return err
	}
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("event %s not found", id)
	}
	delete(s.events, id)
	return nil
}

// Flush implements Store. The in-memory calendar writes through.
func (s *MemStore) Flush() error { return nil }

// All returns every event regardless of day, for test assertions.
func (s *MemStore) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
