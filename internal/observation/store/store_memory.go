package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"cropwatch/internal/observation"
	"cropwatch/pkg/platform/sentinel"
)

// MemoryStore is the in-memory staging store used in unit tests. Reference
// joins come back empty; only the observation fields are populated.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*observation.StagedObservation
	dedup  map[string]uuid.UUID
	FailOn error // when set, every call fails with this error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[uuid.UUID]*observation.StagedObservation),
		dedup: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Create(_ context.Context, obs *observation.StagedObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailOn != nil {
		return s.FailOn
	}
	if obs.DedupKey != "" {
		if _, exists := s.dedup[obs.DedupKey]; exists {
			return sentinel.ErrDuplicate
		}
	}
	if obs.ID == uuid.Nil {
		obs.ID = uuid.New()
	}
	if obs.CreatedAt.IsZero() {
		obs.CreatedAt = time.Now()
	}
	copied := *obs
	s.byID[obs.ID] = &copied
	if obs.DedupKey != "" {
		s.dedup[obs.DedupKey] = obs.ID
	}
	return nil
}

func (s *MemoryStore) GetForReview(_ context.Context, id uuid.UUID) (*observation.StagedObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailOn != nil {
		return nil, s.FailOn
	}
	obs, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *obs
	return &copied, nil
}

func (s *MemoryStore) ApplyReview(_ context.Context, id uuid.UUID, status observation.Status, notes *string, reviewedAt time.Time, reviewedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailOn != nil {
		return s.FailOn
	}
	obs, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if obs.Status.IsTerminal() {
		return sentinel.ErrConflict
	}
	obs.Status = status
	obs.AdminNotes = notes
	obs.ReviewedAt = &reviewedAt
	obs.ReviewedBy = &reviewedBy
	return nil
}

func (s *MemoryStore) ListQueue(_ context.Context, status *observation.Status, limit int) ([]ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailOn != nil {
		return nil, s.FailOn
	}

	var items []ReviewItem
	for _, obs := range s.byID {
		if status != nil {
			if obs.Status != *status {
				continue
			}
		} else if obs.Status.IsTerminal() {
			continue
		}
		items = append(items, ReviewItem{StagedObservation: *obs})
	}

	// Flagged first, then newest observed_at, matching the postgres ordering.
	sort.Slice(items, func(i, j int) bool {
		if items[i].Status != items[j].Status {
			return items[i].Status == observation.StatusFlagged
		}
		return items[i].ObservedAt.After(items[j].ObservedAt)
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
