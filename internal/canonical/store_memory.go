package canonical

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore is the in-memory canonical store for unit tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []PriceRecord
	FailOn  error // when set, every call fails with this error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, record *PriceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailOn != nil {
		return s.FailOn
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.records = append(s.records, *record)
	return nil
}

func (s *MemoryStore) RecentApproved(_ context.Context, productID, locationID int64, since time.Time, limit int) ([]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailOn != nil {
		return nil, s.FailOn
	}

	matched := s.filter(productID, locationID, since)
	sort.Slice(matched, func(i, j int) bool { return matched[i].Time.After(matched[j].Time) })

	var prices []decimal.Decimal
	for _, r := range matched {
		if len(prices) == limit {
			break
		}
		prices = append(prices, r.Price)
	}
	return prices, nil
}

func (s *MemoryStore) ListRecent(_ context.Context, filter ListFilter) ([]PriceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailOn != nil {
		return nil, s.FailOn
	}

	var matched []PriceRecord
	for _, r := range s.records {
		if filter.ProductID != nil && r.ProductID != *filter.ProductID {
			continue
		}
		if filter.LocationID != nil && r.LocationID != *filter.LocationID {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Time.After(matched[j].Time) })

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// All returns a copy of every record, for test assertions.
func (s *MemoryStore) All() []PriceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PriceRecord{}, s.records...)
}

func (s *MemoryStore) filter(productID, locationID int64, since time.Time) []PriceRecord {
	var matched []PriceRecord
	for _, r := range s.records {
		if r.ProductID == productID && r.LocationID == locationID && r.Time.After(since) {
			matched = append(matched, r)
		}
	}
	return matched
}
