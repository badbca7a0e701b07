package session

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careersim/interview-skill/backend/internal/model/interview"
	sessionservice "github.com/careersim/interview-skill/backend/internal/service/session"
	"github.com/careersim/interview-skill/backend/pkg/utils"
)

// Handler exposes the REST surface for per-session interview context.
type Handler struct {
	sessions *sessionservice.Manager
}

// New creates the session context handler.
func New(sessions *sessionservice.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes mounts the context endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session/context", h.handleStoreContext)
	r.Get("/session/context/{sessionID}", h.handleGetContext)
	r.Delete("/session/context/{sessionID}", h.handleClearContext)
}

func (h *Handler) handleStoreContext(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string             `json:"sessionId"`
		Context   *interview.Context `json:"context"`
		// UseWebSocket opts the caller into realtime delivery; the push
		// still requires a live transport to be registered.
		UseWebSocket bool `json:"useWebSocket"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Context == nil {
		utils.RespondError(w, http.StatusBadRequest, "context is required")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	realtime := payload.UseWebSocket || h.sessions.RealtimeContext()
	delivered, err := h.sessions.StoreContext(sessionID, *payload.Context, realtime)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("[session] stored context session=%s realtime=%t", sessionID, delivered)

	message := "Context stored for REST API delivery"
	if delivered {
		message = "Context delivered in real-time via WebSocket"
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sessionId": sessionID,
		"message":   message,
	})
}

func (h *Handler) handleGetContext(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	ctx, ok := h.sessions.Context(sessionID)
	if !ok {
		utils.RespondJSON(w, http.StatusOK, map[string]any{"context": nil})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"context": ctx})
}

func (h *Handler) handleClearContext(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.sessions.ClearContext(sessionID)
	utils.RespondJSON(w, http.StatusOK, map[string]any{"success": true})
}
