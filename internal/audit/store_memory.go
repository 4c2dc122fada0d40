package audit

import (
	"context"
	"sort"
	"sync"

	id "agrocert/pkg/domain"
	"agrocert/pkg/platform/sentinel"
)

// InMemoryStore keeps audit results in process memory. Insert-only: results
// are never updated, matching the immutability rule.
type InMemoryStore struct {
	mu      sync.RWMutex
	results map[id.AuditResultID]Result
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{results: make(map[id.AuditResultID]Result)}
}

func (s *InMemoryStore) Save(_ context.Context, result *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.results[result.ID]; exists {
		return sentinel.ErrConflict
	}
	s.results[result.ID] = *result
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, resultID id.AuditResultID) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[resultID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copy := result
	return &copy, nil
}

func (s *InMemoryStore) ListByFarm(_ context.Context, tenantID id.TenantID, farmID id.FarmID) ([]*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Result
	for _, result := range s.results {
		if result.TenantID == tenantID && result.FarmID == farmID {
			copy := result
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AuditDate.After(out[j].AuditDate) })
	return out, nil
}
