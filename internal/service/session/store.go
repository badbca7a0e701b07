package session

import (
	"sync"

	"github.com/careersim/interview-skill/backend/internal/model/interview"
)

// ContextStore keeps per-session interview contexts in memory. Contexts may
// be stored for sessions that have no live transport yet; those are parked
// in a separate pending map until a transport registers.
type ContextStore struct {
	mu       sync.RWMutex
	contexts map[string]interview.Context
	pending  map[string]interview.Context
}

// NewContextStore bootstraps the in-memory store.
func NewContextStore() *ContextStore {
	return &ContextStore{
		contexts: make(map[string]interview.Context),
		pending:  make(map[string]interview.Context),
	}
}

// Store upserts the context for a session, overwriting any prior value.
func (s *ContextStore) Store(sessionID string, ctx interview.Context) {
	s.mu.Lock()
	s.contexts[sessionID] = ctx
	s.mu.Unlock()
}

// Get looks up the context for a session. Unknown ids report absence, never
// an error.
func (s *ContextStore) Get(sessionID string) (interview.Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctx, ok := s.contexts[sessionID]
	return ctx, ok
}

// Clear removes the context and any pending entry. Clearing an absent id is
// a no-op.
func (s *ContextStore) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.contexts, sessionID)
	delete(s.pending, sessionID)
	s.mu.Unlock()
}

// SetPending parks a context for a session whose transport has not
// registered yet. At most one pending context exists per id.
func (s *ContextStore) SetPending(sessionID string, ctx interview.Context) {
	s.mu.Lock()
	s.pending[sessionID] = ctx
	s.mu.Unlock()
}

// TakePending consumes the pending context for a session. The entry is
// removed, so a second take reports absence.
func (s *ContextStore) TakePending(sessionID string) (interview.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, ok := s.pending[sessionID]
	if ok {
		delete(s.pending, sessionID)
	}
	return ctx, ok
}
