package nonconformity

import (
	"context"
	"sort"
	"sync"

	id "agrocert/pkg/domain"
	"agrocert/pkg/platform/sentinel"
)

// InMemoryStore keeps non-conformities in process memory. Used in tests and
// when no database is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.NonConformityID]NonConformity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.NonConformityID]NonConformity)}
}

func (s *InMemoryStore) Save(_ context.Context, nc *NonConformity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[nc.ID] = *nc
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, ncID id.NonConformityID) (*NonConformity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nc, ok := s.records[ncID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copy := nc
	return &copy, nil
}

func (s *InMemoryStore) ListByFarm(_ context.Context, tenantID id.TenantID, farmID id.FarmID) ([]*NonConformity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*NonConformity
	for _, nc := range s.records {
		if nc.TenantID == tenantID && nc.FarmID == farmID {
			copy := nc
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.Before(out[j].DetectedAt) })
	return out, nil
}
