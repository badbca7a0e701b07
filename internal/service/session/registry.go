package session

import "sync"

// Registry maps session ids to their currently live transport. At most one
// transport is registered per id; a later registration replaces the former
// and hands the previous transport back to the caller.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry bootstraps an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register records the transport for a session and returns the transport it
// replaced, if any. An empty session id is rejected before any mutation.
func (r *Registry) Register(sessionID string, conn Conn) (Conn, error) {
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[sessionID]
	r.conns[sessionID] = conn
	return prev, nil
}

// Get returns the live transport for a session.
func (r *Registry) Get(sessionID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[sessionID]
	return conn, ok
}

// Remove drops the registry entry for a session. Idempotent.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	delete(r.conns, sessionID)
	r.mu.Unlock()
}

// RemoveConn drops the entry only if the given transport is still the one
// registered, so a close racing a re-registration cannot evict the
// replacement.
func (r *Registry) RemoveConn(sessionID string, conn Conn) {
	r.mu.Lock()
	if current, ok := r.conns[sessionID]; ok && current == conn {
		delete(r.conns, sessionID)
	}
	r.mu.Unlock()
}
