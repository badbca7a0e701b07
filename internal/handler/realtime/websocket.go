package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/careersim/interview-skill/backend/internal/model/interview"
	conversationservice "github.com/careersim/interview-skill/backend/internal/service/conversation"
	sessionservice "github.com/careersim/interview-skill/backend/internal/service/session"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Handler routes the realtime message protocol onto the session manager and
// the conversation engine.
type Handler struct {
	engine   *conversationservice.Engine
	sessions *sessionservice.Manager
	upgrader websocket.Upgrader
}

// New creates the websocket handler.
func New(engine *conversationservice.Engine, sessions *sessionservice.Manager) *Handler {
	return &Handler{
		engine:   engine,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts both protocol variants: /ws carries the session id
// inside message envelopes, /ws/session requires it as a query parameter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleSocket)
	r.Get("/ws/session", h.handleSessionSocket)
}

type inboundEnvelope struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// kind normalizes the two envelope dialects onto canonical message names.
func (e *inboundEnvelope) kind() string {
	name := e.Name
	if name == "" {
		name = e.Type
	}
	switch name {
	case "start_session":
		return sessionservice.MsgSessionStart
	case "user_message":
		return sessionservice.MsgConversation
	case "end_session":
		return sessionservice.MsgSessionEnd
	}
	return name
}

type sessionStartPayload struct {
	SessionID string             `json:"sessionId"`
	Context   *interview.Context `json:"context"`
}

type conversationPayload struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

type sessionEndPayload struct {
	SessionID string `json:"sessionId"`
}

type contextPayload struct {
	SessionID string             `json:"sessionId"`
	Context   *interview.Context `json:"context"`
}

type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (h *Handler) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	// sessionId may arrive either in the handshake query or later inside a
	// sessionStart envelope.
	h.serve(r, conn, r.URL.Query().Get("sessionId"))
}

func (h *Handler) handleSessionSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}

	if sessionID == "" {
		closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "sessionId query parameter is required")
		if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
			log.Printf("[websocket] close write failed: %v", err)
		}
		conn.Close()
		return
	}

	h.serve(r, conn, sessionID)
}

func (h *Handler) serve(r *http.Request, raw *websocket.Conn, sessionID string) {
	conn := sessionservice.NewWSConn(raw)
	defer func() {
		if sessionID != "" {
			h.sessions.DetachTransport(sessionID, conn)
			log.Printf("[websocket] removed transport for session=%s", sessionID)
		}
		conn.Close()
	}()

	log.Printf("[websocket] new connection session=%q", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	raw.SetReadDeadline(time.Now().Add(readTimeout))
	raw.SetPongHandler(func(string) error {
		raw.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	if err := conn.Send(sessionservice.MsgConnection, map[string]string{"status": "connected"}); err != nil {
		log.Printf("[websocket] connection ack failed: %v", err)
		return
	}

	if sessionID != "" {
		if err := h.engine.AttachTransport(sessionID, conn); err != nil {
			h.sendError(conn, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var env inboundEnvelope
			if err := raw.ReadJSON(&env); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					log.Printf("[websocket] read error: %v", err)
				}
				return
			}

			raw.SetReadDeadline(time.Now().Add(readTimeout))

			if err := h.handleEnvelope(ctx, conn, &sessionID, &env); err != nil {
				h.sendError(conn, err)
			}
		}
	}
}

func (h *Handler) handleEnvelope(ctx context.Context, conn *sessionservice.WSConn, sessionID *string, env *inboundEnvelope) error {
	switch env.kind() {
	case sessionservice.MsgSessionStart:
		return h.handleSessionStart(conn, sessionID, env.Payload)
	case sessionservice.MsgConversation:
		return h.handleConversation(ctx, conn, sessionID, env.Payload)
	case sessionservice.MsgSessionEnd:
		return h.handleSessionEnd(conn, sessionID, env.Payload)
	case sessionservice.MsgContext:
		return h.handleContext(sessionID, env.Payload)
	default:
		log.Printf("[websocket] message name not recognized: %s", env.kind())
		return nil
	}
}

func (h *Handler) handleSessionStart(conn *sessionservice.WSConn, sessionID *string, raw json.RawMessage) error {
	var payload sessionStartPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if payload.SessionID == "" {
		return sessionservice.ErrMissingSessionID
	}
	*sessionID = payload.SessionID

	if payload.Context != nil {
		if _, err := h.sessions.StoreContext(payload.SessionID, *payload.Context, h.sessions.RealtimeContext()); err != nil {
			return err
		}
	}

	if err := h.engine.OnSessionStart(payload.SessionID, conn); err != nil {
		return err
	}

	return conn.Send(sessionservice.MsgSessionStart, map[string]any{
		"status":    "success",
		"sessionId": payload.SessionID,
		"message":   "Session registered successfully",
	})
}

func (h *Handler) handleConversation(ctx context.Context, conn *sessionservice.WSConn, sessionID *string, raw json.RawMessage) error {
	var payload conversationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}

	// A conversation message may register the transport implicitly when the
	// socket was opened without a session id.
	if *sessionID == "" && payload.SessionID != "" {
		*sessionID = payload.SessionID
		if err := h.engine.AttachTransport(payload.SessionID, conn); err != nil {
			return err
		}
	}
	if *sessionID == "" {
		return sessionservice.ErrMissingSessionID
	}

	replies, err := h.engine.HandleMessage(ctx, *sessionID, payload.Text)
	if err != nil {
		return err
	}

	conversationservice.Deliver(conn, *sessionID, replies)
	return nil
}

func (h *Handler) handleSessionEnd(conn *sessionservice.WSConn, sessionID *string, raw json.RawMessage) error {
	var payload sessionEndPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}

	endID := payload.SessionID
	if endID == "" {
		endID = *sessionID
	}

	reply, err := h.engine.OnSessionEnd(endID)
	if err != nil {
		return err
	}

	conversationservice.Deliver(conn, endID, []conversationservice.Reply{reply})
	h.engine.ReleaseSession(endID)
	return nil
}

func (h *Handler) handleContext(sessionID *string, raw json.RawMessage) error {
	var payload contextPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if payload.Context == nil {
		return nil
	}

	storeID := payload.SessionID
	if storeID == "" {
		storeID = *sessionID
	}
	if storeID == "" {
		return sessionservice.ErrMissingSessionID
	}

	_, err := h.sessions.StoreContext(storeID, *payload.Context, h.sessions.RealtimeContext())
	return err
}

// sendError reports a handler failure over the socket and leaves the
// connection open; only a transport-level failure is logged and swallowed.
func (h *Handler) sendError(conn *sessionservice.WSConn, cause error) {
	payload := errorPayload{
		Message: "Error processing message",
		Error:   cause.Error(),
	}
	if err := conn.Send(sessionservice.MsgError, payload); err != nil {
		log.Printf("[websocket] error report failed: %v", err)
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *sessionservice.WSConn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
