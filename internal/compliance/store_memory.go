package compliance

import (
	"context"
	"sync"

	id "agrocert/pkg/domain"
	"agrocert/pkg/platform/sentinel"
)

type farmKey struct {
	tenantID id.TenantID
	farmID   id.FarmID
}

// InMemoryRecordStore keeps one current record per (tenant, farm) with the
// same optimistic-concurrency contract as the PostgreSQL store.
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records map[farmKey]ComplianceRecord
}

func NewInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{records: make(map[farmKey]ComplianceRecord)}
}

func (s *InMemoryRecordStore) Save(_ context.Context, record *ComplianceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := farmKey{tenantID: record.TenantID, farmID: record.FarmID}
	current, exists := s.records[key]
	if exists && current.Version != record.Version {
		return sentinel.ErrConflict
	}
	if !exists && record.Version != 0 {
		return sentinel.ErrConflict
	}

	stored := *record
	stored.Version = record.Version + 1
	s.records[key] = stored
	record.Version = stored.Version
	return nil
}

func (s *InMemoryRecordStore) FindByFarm(_ context.Context, tenantID id.TenantID, farmID id.FarmID) (*ComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[farmKey{tenantID: tenantID, farmID: farmID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copy := record
	return &copy, nil
}
