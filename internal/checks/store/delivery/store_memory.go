// Package delivery remembers provider webhook delivery ids so a redelivered
// event is applied at most once.
package delivery

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore tracks deliveries in process. Expired entries are purged
// lazily on write.
type InMemoryStore struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	nowFunc func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{seen: make(map[string]time.Time), nowFunc: time.Now}
}

func (s *InMemoryStore) MarkDelivered(_ context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	for key, expires := range s.seen {
		if !now.Before(expires) {
			delete(s.seen, key)
		}
	}
	if _, ok := s.seen[deliveryID]; ok {
		return false, nil
	}
	s.seen[deliveryID] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryStore) Forget(_ context.Context, deliveryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, deliveryID)
	return nil
}
