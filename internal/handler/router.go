package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	conversationHandler "github.com/careersim/interview-skill/backend/internal/handler/conversation"
	"github.com/careersim/interview-skill/backend/internal/handler/realtime"
	sessionHandler "github.com/careersim/interview-skill/backend/internal/handler/session"
	"github.com/careersim/interview-skill/backend/internal/handler/skill"
	middlewarePkg "github.com/careersim/interview-skill/backend/internal/middleware"
	conversationService "github.com/careersim/interview-skill/backend/internal/service/conversation"
	sessionService "github.com/careersim/interview-skill/backend/internal/service/session"
	"github.com/careersim/interview-skill/backend/pkg/utils"
)

// NewRouter wires HTTP and websocket routes to the core services.
func NewRouter(sessions *sessionService.Manager, engine *conversationService.Engine) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		sessionHandler.New(sessions).RegisterRoutes(api)
		conversationHandler.New(engine, sessions).RegisterRoutes(api)
		skill.New().RegisterRoutes(api)
	})

	realtime.New(engine, sessions).RegisterRoutes(r)

	return r
}
