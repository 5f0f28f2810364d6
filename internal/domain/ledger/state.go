package ledger

import (
	"sync"
)

// State tracks the per-bill ledger lifecycle. Populating is only reachable
// once a load has completed; a populate requested mid-load is queued as a
// continuation instead of racing the load.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateLoaded
	StateLoadFailed
	StatePopulating
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateLoadFailed:
		return "load-failed"
	case StatePopulating:
		return "populating"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// session is the serialization point for one bill's in-memory ledger.
// Remote calls happen outside the lock; every apply re-checks generation
// so a stale load for a superseded request is discarded.
type session struct {
	mu              sync.Mutex
	state           State
	generation      uint64
	summary         *Summary
	visitCode       string
	discountDirty   bool
	pendingPopulate bool
	pendingMeds     []MedicationLine
}

func newSession(billID string) *session {
	return &session{state: StateUninitialized, summary: NewSummary(billID)}
}

// beginLoad bumps the generation and moves to loading. The returned
// generation must match at apply time or the load result is stale.
func (s *session) beginLoad(visitCode string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state = StateLoading
	if visitCode != "" {
		s.visitCode = visitCode
	}
	return s.generation
}

// current reports whether gen is still the live request generation.
func (s *session) current(gen uint64) bool {
	return s.generation == gen
}

type sessions struct {
	mu    sync.Mutex
	items map[string]*session
}

func newSessions() *sessions {
	return &sessions{items: make(map[string]*session)}
}

func (s *sessions) get(billID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[billID]
	if !ok {
		sess = newSession(billID)
		s.items[billID] = sess
	}
	return sess
}

func (s *sessions) drop(billID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, billID)
}
