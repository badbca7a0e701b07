package session

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	ErrMissingSessionID = errors.New("session id is required")
	ErrTransportClosed  = errors.New("transport is not open")
)

// Outbound message names shared by the websocket and REST transports.
const (
	MsgConnection   = "connection"
	MsgSessionStart = "sessionStart"
	MsgConversation = "conversation"
	MsgContext      = "context"
	MsgSessionEnd   = "sessionEnd"
	MsgError        = "error"
)

// Conn is the transport-agnostic send capability attached to a logical
// session. Implementations exist for a live websocket and for a synchronous
// HTTP response cycle; callers never touch the underlying socket directly.
type Conn interface {
	Send(name string, payload any) error
	Close() error
}

// Envelope is the wire framing for every realtime message.
type Envelope struct {
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// WSConn adapts a gorilla websocket connection to Conn. Sends are
// serialized because delayed deliveries and the ping loop run on their own
// goroutines.
type WSConn struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewWSConn wraps an upgraded websocket connection.
func NewWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

func (c *WSConn) Send(name string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrTransportClosed
	}
	return c.conn.WriteJSON(Envelope{Name: name, Payload: payload})
}

// Close marks the transport closed and closes the socket. Later sends fail
// with ErrTransportClosed instead of writing to a dead connection.
func (c *WSConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// WriteControl exposes control-frame writes for close handshakes.
func (c *WSConn) WriteControl(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrTransportClosed
	}
	return c.conn.WriteMessage(messageType, data)
}
