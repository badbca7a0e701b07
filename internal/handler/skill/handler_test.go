package skill

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New().RegisterRoutes(r)
	return r
}

func TestInitAccepted(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/init", nil))

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
	if body := resp.Body.String(); body != "{}\n" {
		t.Fatalf("expected empty JSON acknowledgment, got %q", body)
	}
}

func TestEndProjectAccepted(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/end-project/p1", nil))

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != "{}\n" {
		t.Fatalf("expected empty JSON acknowledgment, got %q", body)
	}
}
