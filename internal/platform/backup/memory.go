package backup

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store, used in tests and as the scratch tier
// when no Redis is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	envelopes map[string]*Envelope
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{envelopes: make(map[string]*Envelope)}
}

func (s *MemoryStore) Save(_ context.Context, billID string, discount map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelopes[billID] = newEnvelope(billID, discount)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, billID string) (*Envelope, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	env, ok := s.envelopes[billID]
	if !ok {
		return nil, false, nil
	}
	return env, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, billID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.envelopes, billID)
	return nil
}
