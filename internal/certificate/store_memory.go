package certificate

import (
	"context"
	"sync"

	id "agrocert/pkg/domain"
	"agrocert/pkg/platform/sentinel"
)

// InMemoryStore keeps certificates and renewals in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	certs    map[id.CertificateID]Certificate
	renewals map[id.RenewalID]Renewal
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		certs:    make(map[id.CertificateID]Certificate),
		renewals: make(map[id.RenewalID]Renewal),
	}
}

func (s *InMemoryStore) Save(_ context.Context, cert *Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs[cert.ID] = *cert
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, certID id.CertificateID) (*Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cert, ok := s.certs[certID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copy := cert
	return &copy, nil
}

func (s *InMemoryStore) FindCurrentByFarm(_ context.Context, tenantID id.TenantID, farmID id.FarmID) (*Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest *Certificate
	for _, cert := range s.certs {
		if cert.TenantID != tenantID || cert.FarmID != farmID {
			continue
		}
		if newest == nil || cert.CreatedAt.After(newest.CreatedAt) {
			copy := cert
			newest = &copy
		}
	}
	if newest == nil {
		return nil, sentinel.ErrNotFound
	}
	return newest, nil
}

// ListExpirable returns certificates whose expiry state can still change:
// active ones and those already flagged renewal_required, which must still
// derive expired once their validity lapses.
func (s *InMemoryStore) ListExpirable(_ context.Context) ([]*Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Certificate
	for _, cert := range s.certs {
		if cert.Status == StatusActive || cert.Status == StatusRenewalRequired {
			copy := cert
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *InMemoryStore) SaveRenewal(_ context.Context, renewal *Renewal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renewals[renewal.ID] = *renewal
	return nil
}

func (s *InMemoryStore) FindRenewalByID(_ context.Context, renewalID id.RenewalID) (*Renewal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	renewal, ok := s.renewals[renewalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copy := renewal
	return &copy, nil
}
