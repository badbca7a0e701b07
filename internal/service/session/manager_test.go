package session_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/careersim/interview-skill/backend/internal/model/interview"
	"github.com/careersim/interview-skill/backend/internal/service/session"
)

type sentMessage struct {
	name    string
	payload any
}

type fakeConn struct {
	mu     sync.Mutex
	sends  []sentMessage
	closed bool
}

func (c *fakeConn) Send(name string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return session.ErrTransportClosed
	}
	c.sends = append(c.sends, sentMessage{name: name, payload: payload})
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) sent() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make([]sentMessage, len(c.sends))
	copy(copied, c.sends)
	return copied
}

func newManager(realtime bool) (*session.Manager, *session.ContextStore) {
	store := session.NewContextStore()
	return session.NewManager(store, session.NewRegistry(), realtime), store
}

func TestRegisterConsumesPendingExactlyOnce(t *testing.T) {
	mgr, store := newManager(false)

	if _, err := mgr.StoreContext("s1", sampleContext("Riley"), false); err != nil {
		t.Fatalf("StoreContext err: %v", err)
	}

	ctx, ok, err := mgr.RegisterTransport("s1", &fakeConn{})
	if err != nil {
		t.Fatalf("RegisterTransport err: %v", err)
	}
	if !ok || ctx.Name != "Riley" {
		t.Fatalf("expected live context after registration, got ok=%t name=%s", ok, ctx.Name)
	}

	if _, ok := store.TakePending("s1"); ok {
		t.Fatal("pending context must be consumed by registration")
	}
}

func TestRegisterBeforeContextIsSilent(t *testing.T) {
	mgr, _ := newManager(false)
	conn := &fakeConn{}

	_, ok, err := mgr.RegisterTransport("s1", conn)
	if err != nil {
		t.Fatalf("RegisterTransport err: %v", err)
	}
	if ok {
		t.Fatal("expected no context before it is stored")
	}
	if len(conn.sent()) != 0 {
		t.Fatalf("expected no messages before context is stored, got %d", len(conn.sent()))
	}
}

func TestRegisterRequiresSessionID(t *testing.T) {
	mgr, _ := newManager(false)

	_, _, err := mgr.RegisterTransport("", &fakeConn{})
	if !errors.Is(err, session.ErrMissingSessionID) {
		t.Fatalf("expected ErrMissingSessionID, got %v", err)
	}
}

func TestStoreContextRealtimePush(t *testing.T) {
	mgr, _ := newManager(false)
	conn := &fakeConn{}

	if _, _, err := mgr.RegisterTransport("s1", conn); err != nil {
		t.Fatalf("RegisterTransport err: %v", err)
	}

	delivered, err := mgr.StoreContext("s1", sampleContext("Riley"), true)
	if err != nil {
		t.Fatalf("StoreContext err: %v", err)
	}
	if !delivered {
		t.Fatal("expected realtime delivery over the live transport")
	}

	sends := conn.sent()
	if len(sends) != 1 || sends[0].name != session.MsgContext {
		t.Fatalf("expected one context message, got %+v", sends)
	}
}

func TestStoreContextDefaultIsWriteThroughOnly(t *testing.T) {
	mgr, _ := newManager(false)
	conn := &fakeConn{}

	if _, _, err := mgr.RegisterTransport("s1", conn); err != nil {
		t.Fatalf("RegisterTransport err: %v", err)
	}

	delivered, err := mgr.StoreContext("s1", sampleContext("Riley"), false)
	if err != nil {
		t.Fatalf("StoreContext err: %v", err)
	}
	if delivered {
		t.Fatal("realtime delivery must be opt-in")
	}
	if len(conn.sent()) != 0 {
		t.Fatalf("expected no push, got %+v", conn.sent())
	}

	if _, ok := mgr.Context("s1"); !ok {
		t.Fatal("context must still be attached for later lookups")
	}
}

func TestStoreContextRealtimeWithoutTransportParksPending(t *testing.T) {
	mgr, store := newManager(false)

	delivered, err := mgr.StoreContext("s1", sampleContext("Riley"), true)
	if err != nil {
		t.Fatalf("StoreContext err: %v", err)
	}
	if delivered {
		t.Fatal("nothing can be delivered without a live transport")
	}
	if _, ok := store.TakePending("s1"); !ok {
		t.Fatal("context must be parked for the next registration")
	}
}

func TestRealtimeContextReportsServerDefault(t *testing.T) {
	mgr, _ := newManager(true)
	if !mgr.RealtimeContext() {
		t.Fatal("expected the configured realtime default")
	}
	mgr, _ = newManager(false)
	if mgr.RealtimeContext() {
		t.Fatal("realtime default must be off unless configured")
	}
}

func TestReplaceTransportClosesPrevious(t *testing.T) {
	mgr, _ := newManager(false)
	first := &fakeConn{}
	second := &fakeConn{}

	if _, _, err := mgr.RegisterTransport("s1", first); err != nil {
		t.Fatalf("first register err: %v", err)
	}
	if _, _, err := mgr.RegisterTransport("s1", second); err != nil {
		t.Fatalf("second register err: %v", err)
	}

	if !first.closed {
		t.Fatal("replaced transport must be closed")
	}
	if conn, ok := mgr.Transport("s1"); !ok || conn != session.Conn(second) {
		t.Fatal("registry must hold the replacement transport")
	}
}

func TestDetachKeepsContext(t *testing.T) {
	mgr, _ := newManager(false)
	conn := &fakeConn{}

	if _, err := mgr.StoreContext("s1", sampleContext("Riley"), false); err != nil {
		t.Fatalf("StoreContext err: %v", err)
	}
	if _, _, err := mgr.RegisterTransport("s1", conn); err != nil {
		t.Fatalf("RegisterTransport err: %v", err)
	}

	mgr.DetachTransport("s1", conn)

	if _, ok := mgr.Transport("s1"); ok {
		t.Fatal("transport mapping must be removed on detach")
	}
	if _, ok := mgr.Context("s1"); !ok {
		t.Fatal("context must survive a transport close")
	}
}

func TestDetachIgnoresStaleTransport(t *testing.T) {
	mgr, _ := newManager(false)
	stale := &fakeConn{}
	current := &fakeConn{}

	if _, _, err := mgr.RegisterTransport("s1", stale); err != nil {
		t.Fatalf("register err: %v", err)
	}
	if _, _, err := mgr.RegisterTransport("s1", current); err != nil {
		t.Fatalf("register err: %v", err)
	}

	mgr.DetachTransport("s1", stale)

	if conn, ok := mgr.Transport("s1"); !ok || conn != session.Conn(current) {
		t.Fatal("a stale close must not evict the replacement transport")
	}
}

func TestEndSessionIdempotent(t *testing.T) {
	mgr, _ := newManager(false)
	conn := &fakeConn{}

	if _, err := mgr.StoreContext("s1", sampleContext("Riley"), false); err != nil {
		t.Fatalf("StoreContext err: %v", err)
	}
	if _, _, err := mgr.RegisterTransport("s1", conn); err != nil {
		t.Fatalf("RegisterTransport err: %v", err)
	}
	mgr.AppendTurn("s1", interview.SpeakerUser, "hello")

	mgr.EndSession("s1")
	mgr.EndSession("s1")

	if _, ok := mgr.Context("s1"); ok {
		t.Fatal("context must be cleared by session end")
	}
	if _, ok := mgr.Transport("s1"); ok {
		t.Fatal("transport must be removed by session end")
	}
	if turns := mgr.Turns("s1"); len(turns) != 0 {
		t.Fatalf("turn log must be cleared, got %d turns", len(turns))
	}
	if mgr.Phase("s1") != interview.PhaseGreeting {
		t.Fatalf("ended session must report the default phase, got %s", mgr.Phase("s1"))
	}
}

func TestTurnLogIsAppendOnlyCopy(t *testing.T) {
	mgr, _ := newManager(false)

	mgr.AppendTurn("s1", interview.SpeakerUser, "first")
	mgr.AppendTurn("s1", interview.SpeakerAssistant, "second")

	turns := mgr.Turns("s1")
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Speaker != interview.SpeakerUser || turns[0].Text != "first" {
		t.Fatalf("unexpected first turn: %+v", turns[0])
	}

	turns[0].Text = "mutated"
	if mgr.Turns("s1")[0].Text != "first" {
		t.Fatal("Turns must return a defensive copy")
	}
}

func TestMarkQuestionAsked(t *testing.T) {
	mgr, _ := newManager(false)

	if already := mgr.MarkQuestionAsked("s1"); already {
		t.Fatal("question must not be marked before the first call")
	}
	if already := mgr.MarkQuestionAsked("s1"); !already {
		t.Fatal("question must stay marked after the first call")
	}
}
