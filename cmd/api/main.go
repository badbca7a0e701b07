package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/careersim/interview-skill/backend/internal/config"
	"github.com/careersim/interview-skill/backend/internal/handler"
	"github.com/careersim/interview-skill/backend/internal/service/ai"
	"github.com/careersim/interview-skill/backend/internal/service/conversation"
	"github.com/careersim/interview-skill/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := session.NewContextStore()
	registry := session.NewRegistry()
	sessions := session.NewManager(store, registry, cfg.Session.RealtimeContext)

	// The engine answers with the canned script unless Ark credentials give
	// it a real response generator.
	var responder conversation.Responder = conversation.NewScriptedResponder()
	if cfg.AI.Enabled() {
		aiResponder, err := ai.NewResponder(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI responder: %v", err)
			log.Println("continuing with scripted responses only")
		} else {
			log.Println("AI responder initialized successfully")
			responder = aiResponder
		}
	} else {
		log.Println("Ark credentials not configured, using scripted responses")
	}

	engine := conversation.NewEngine(sessions, responder, cfg.Session.QuestionDelay)
	router := handler.NewRouter(sessions, engine)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Interview skill backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
