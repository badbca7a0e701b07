package skill

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/careersim/interview-skill/backend/pkg/utils"
)

// Handler acknowledges the avatar platform's skill lifecycle calls. Nothing
// is provisioned per project, so both endpoints are accepted trivially.
type Handler struct{}

// New creates the skill lifecycle handler.
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes mounts the platform endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/init", h.handleInit)
	r.Delete("/end-project/{projectID}", h.handleEndProject)
}

func (h *Handler) handleInit(w http.ResponseWriter, r *http.Request) {
	log.Printf("[skill] init request received")
	utils.RespondAccepted(w)
}

func (h *Handler) handleEndProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	log.Printf("[skill] end project request project=%s", projectID)
	utils.RespondAccepted(w)
}
