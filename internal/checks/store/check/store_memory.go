// Package check persists checks in memory or in PostgreSQL.
package check

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"casecheck/internal/checks/models"
	id "casecheck/pkg/domain"
	"casecheck/pkg/platform/sentinel"
)

// InMemoryStore keeps checks in a map. Stored and returned values are deep
// copies so callers cannot mutate shared state.
type InMemoryStore struct {
	mu     sync.RWMutex
	checks map[id.CheckID]*models.Check
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{checks: make(map[id.CheckID]*models.Check)}
}

func (s *InMemoryStore) Create(_ context.Context, check *models.Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.checks[check.ID]; exists {
		return fmt.Errorf("check %s: %w", check.ID, sentinel.ErrConflict)
	}
	s.checks[check.ID] = check.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, checkID id.CheckID) (*models.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	check, ok := s.checks[checkID]
	if !ok {
		return nil, fmt.Errorf("check %s: %w", checkID, sentinel.ErrNotFound)
	}
	return check.Clone(), nil
}

// Update replaces the stored check. Recorded outcomes are append-only: an
// update that drops or reorders an existing outcome is rejected.
func (s *InMemoryStore) Update(_ context.Context, check *models.Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.checks[check.ID]
	if !ok {
		return fmt.Errorf("check %s: %w", check.ID, sentinel.ErrNotFound)
	}
	if !outcomesExtend(existing.Outcomes, check.Outcomes) {
		return fmt.Errorf("check %s: outcomes are append-only: %w", check.ID, sentinel.ErrConflict)
	}
	s.checks[check.ID] = check.Clone()
	return nil
}

func (s *InMemoryStore) ListByMatter(_ context.Context, matterID id.MatterID) ([]*models.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Check
	for _, check := range s.checks {
		if check.MatterID == matterID {
			out = append(out, check.Clone())
		}
	}
	sortByCreated(out)
	return out, nil
}

func sortByCreated(checks []*models.Check) {
	slices.SortFunc(checks, func(a, b *models.Check) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
}

// outcomesExtend reports whether next starts with every outcome of prev, in order.
func outcomesExtend(prev, next []models.TaskOutcome) bool {
	if len(next) < len(prev) {
		return false
	}
	for i, o := range prev {
		if next[i].TaskType != o.TaskType || next[i].Result != o.Result {
			return false
		}
	}
	return true
}
