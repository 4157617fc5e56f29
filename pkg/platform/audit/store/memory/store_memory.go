package memory

import (
	"context"
	"slices"
	"sync"

	id "casecheck/pkg/domain"
	audit "casecheck/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.CheckID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.CheckID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.CheckID][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.CheckID] = append(s.events[event.CheckID], event)
	return nil
}

func (s *InMemoryStore) ListByCheck(_ context.Context, checkID id.CheckID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[checkID]...), nil
}

// ListRecent returns the most recent N events across all checks, newest last.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []audit.Event
	for _, events := range s.events {
		all = append(all, events...)
	}
	sortByTimestamp(all)
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func sortByTimestamp(events []audit.Event) {
	slices.SortStableFunc(events, func(a, b audit.Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}
