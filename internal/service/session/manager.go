package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careersim/interview-skill/backend/internal/model/interview"
)

// Manager reconciles the two independently-arriving resources of a session:
// its interview context and its live transport. Either may show up first;
// registration always re-checks the pending store at the moment it runs.
type Manager struct {
	store    *ContextStore
	registry *Registry

	mu     sync.RWMutex
	states map[string]*sessionState

	// realtimeContext is the server-side default for pushing context
	// messages over a live transport; callers may opt in per store call.
	realtimeContext bool
}

type sessionState struct {
	phase         interview.Phase
	questionAsked bool
	turns         []interview.Turn
}

// NewManager wires the manager onto caller-owned store and registry
// instances so tests can run isolated copies.
func NewManager(store *ContextStore, registry *Registry, realtimeContext bool) *Manager {
	return &Manager{
		store:           store,
		registry:        registry,
		states:          make(map[string]*sessionState),
		realtimeContext: realtimeContext,
	}
}

// StoreContext upserts the context for a session. With no live transport the
// context is additionally parked as pending so the next registration can
// consume it. With a live transport the context takes effect immediately and
// is pushed over the wire when realtime is set. The return value reports
// whether a realtime push happened.
func (m *Manager) StoreContext(sessionID string, ctx interview.Context, realtime bool) (bool, error) {
	if sessionID == "" {
		return false, ErrMissingSessionID
	}

	m.store.Store(sessionID, ctx)

	conn, live := m.registry.Get(sessionID)
	if !live {
		m.store.SetPending(sessionID, ctx)
		return false, nil
	}

	if !realtime {
		return false, nil
	}
	if err := conn.Send(MsgContext, ctx); err != nil {
		log.Printf("[session] realtime context push failed session=%s: %v", sessionID, err)
		return false, nil
	}
	return true, nil
}

// RealtimeContext reports the server-side default for realtime context
// delivery. Transport handlers pass it to StoreContext when the caller did
// not choose for themselves.
func (m *Manager) RealtimeContext() bool {
	return m.realtimeContext
}

// RegisterTransport records the live transport for a session, consuming any
// pending context exactly once. A replaced transport is closed unless the
// registration is a re-register of the same connection. Returns the live
// context, if one is attached.
func (m *Manager) RegisterTransport(sessionID string, conn Conn) (interview.Context, bool, error) {
	prev, err := m.registry.Register(sessionID, conn)
	if err != nil {
		return interview.Context{}, false, err
	}
	if prev != nil && prev != conn {
		log.Printf("[session] replacing transport for session=%s, closing previous", sessionID)
		if closeErr := prev.Close(); closeErr != nil {
			log.Printf("[session] close of replaced transport failed: %v", closeErr)
		}
	}

	m.ensureState(sessionID)

	// The pending copy was already written through to the store; taking it
	// marks the reconciliation done so it happens exactly once.
	if _, ok := m.store.TakePending(sessionID); ok {
		log.Printf("[session] consumed pending context for session=%s", sessionID)
	}

	ctx, ok := m.store.Get(sessionID)
	return ctx, ok, nil
}

// DetachTransport removes the registry entry when a transport closes. The
// session's context deliberately survives; only an explicit end discards it.
func (m *Manager) DetachTransport(sessionID string, conn Conn) {
	if sessionID == "" {
		return
	}
	m.registry.RemoveConn(sessionID, conn)
}

// Transport returns the live transport for a session.
func (m *Manager) Transport(sessionID string) (Conn, bool) {
	return m.registry.Get(sessionID)
}

// Context returns the stored context for a session.
func (m *Manager) Context(sessionID string) (interview.Context, bool) {
	return m.store.Get(sessionID)
}

// ClearContext removes the stored context only. Idempotent.
func (m *Manager) ClearContext(sessionID string) {
	m.store.Clear(sessionID)
}

// EndSession removes every resource associated with a session: context,
// pending entry, transport mapping, phase and turn log. Idempotent.
func (m *Manager) EndSession(sessionID string) {
	if sessionID == "" {
		return
	}
	m.store.Clear(sessionID)
	m.registry.Remove(sessionID)
	m.mu.Lock()
	delete(m.states, sessionID)
	m.mu.Unlock()
}

// Phase reports the conversation phase for a session, defaulting to
// greeting for unknown ids.
func (m *Manager) Phase(sessionID string) interview.Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if state, ok := m.states[sessionID]; ok {
		return state.phase
	}
	return interview.PhaseGreeting
}

// SetPhase moves a session to the given phase.
func (m *Manager) SetPhase(sessionID string, phase interview.Phase) {
	m.mu.Lock()
	m.ensureStateLocked(sessionID).phase = phase
	m.mu.Unlock()
}

// MarkQuestionAsked flags the initial question as consumed and reports
// whether it had been consumed before.
func (m *Manager) MarkQuestionAsked(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.ensureStateLocked(sessionID)
	already := state.questionAsked
	state.questionAsked = true
	return already
}

// AppendTurn records an utterance on the session's append-only turn log.
func (m *Manager) AppendTurn(sessionID string, speaker interview.Speaker, text string) {
	m.mu.Lock()
	state := m.ensureStateLocked(sessionID)
	state.turns = append(state.turns, interview.Turn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Speaker:   speaker,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
	m.mu.Unlock()
}

// Turns returns a copy of the session's turn log.
func (m *Manager) Turns(sessionID string) []interview.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[sessionID]
	if !ok {
		return nil
	}
	copied := make([]interview.Turn, len(state.turns))
	copy(copied, state.turns)
	return copied
}

func (m *Manager) ensureState(sessionID string) {
	m.mu.Lock()
	m.ensureStateLocked(sessionID)
	m.mu.Unlock()
}

func (m *Manager) ensureStateLocked(sessionID string) *sessionState {
	state, ok := m.states[sessionID]
	if !ok {
		state = &sessionState{phase: interview.PhaseGreeting}
		m.states[sessionID] = state
	}
	return state
}
