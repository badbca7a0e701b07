package conversation

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	conversationservice "github.com/careersim/interview-skill/backend/internal/service/conversation"
	sessionservice "github.com/careersim/interview-skill/backend/internal/service/session"
	"github.com/careersim/interview-skill/backend/pkg/utils"
)

// Handler runs the conversation engine over the synchronous REST transport:
// the first engine reply becomes the HTTP response body.
type Handler struct {
	engine   *conversationservice.Engine
	sessions *sessionservice.Manager
}

// New creates the execute handler.
func New(engine *conversationservice.Engine, sessions *sessionservice.Manager) *Handler {
	return &Handler{engine: engine, sessions: sessions}
}

// RegisterRoutes mounts the execute endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/execute", h.handleExecute)
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("x-session-id")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "missing session ID")
		return
	}

	var payload struct {
		Text      string         `json:"text"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	replies, err := h.engine.HandleMessage(r.Context(), sessionID, payload.Text)
	if err != nil {
		if errors.Is(err, sessionservice.ErrMissingSessionID) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[execute] engine failed session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if len(replies) == 0 {
		utils.RespondError(w, http.StatusInternalServerError, "no response produced")
		return
	}

	conn := newRESTConn(w)
	conversationservice.Deliver(conn, sessionID, replies[:1])

	// The HTTP response carries a single message. Remaining replies (the
	// delayed initial question) ride the session's live websocket when one
	// is registered; otherwise they are dropped like the REST-only mode of
	// the avatar platform expects.
	if len(replies) > 1 {
		if live, ok := h.sessions.Transport(sessionID); ok {
			conversationservice.Deliver(live, sessionID, replies[1:])
		} else {
			log.Printf("[execute] dropping %d follow-up replies, no live transport session=%s", len(replies)-1, sessionID)
		}
	}
}

// restConn adapts one HTTP response cycle to the transport interface. The
// first send writes the body; every later send fails with
// ErrTransportClosed.
type restConn struct {
	mu    sync.Mutex
	w     http.ResponseWriter
	wrote bool
}

func newRESTConn(w http.ResponseWriter) *restConn {
	return &restConn{w: w}
}

func (c *restConn) Send(_ string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wrote {
		return sessionservice.ErrTransportClosed
	}
	c.wrote = true
	utils.RespondJSON(c.w, http.StatusOK, payload)
	return nil
}

func (c *restConn) Close() error {
	c.mu.Lock()
	c.wrote = true
	c.mu.Unlock()
	return nil
}
