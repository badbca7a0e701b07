package conversation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/careersim/interview-skill/backend/internal/model/interview"
	conversationservice "github.com/careersim/interview-skill/backend/internal/service/conversation"
	sessionservice "github.com/careersim/interview-skill/backend/internal/service/session"
)

func setupRouter() (*chi.Mux, *sessionservice.Manager) {
	manager := sessionservice.NewManager(sessionservice.NewContextStore(), sessionservice.NewRegistry(), false)
	engine := conversationservice.NewEngine(manager, nil, 0)
	handler := New(engine, manager)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, manager
}

func executeRequest(sessionID, text string) *http.Request {
	body, _ := json.Marshal(map[string]any{"text": text, "variables": map[string]any{}})
	req := httptest.NewRequest(http.MethodPost, "/execute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("x-session-id", sessionID)
	}
	return req
}

func TestExecuteRequiresSessionHeader(t *testing.T) {
	r, _ := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, executeRequest("", "hello"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestExecuteStartInterview(t *testing.T) {
	r, manager := setupRouter()
	if _, err := manager.StoreContext("s1", interview.Context{
		Name:       "Riley",
		JobTitle:   "Backend Engineer",
		Company:    "Acme",
		Stage:      interview.StageBehavioral,
		Difficulty: interview.DifficultyIntermediate,
	}, false); err != nil {
		t.Fatalf("StoreContext err: %v", err)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, executeRequest("s1", "start interview"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body conversationservice.Payload
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.SessionID != "s1" {
		t.Fatalf("unexpected session id: %s", body.SessionID)
	}
	if !strings.Contains(body.Text, "Hello Riley!") || !strings.Contains(body.Text, "past experiences") {
		t.Fatalf("unexpected greeting: %s", body.Text)
	}
	if manager.Phase("s1") != interview.PhaseInterview {
		t.Fatalf("expected interview phase, got %s", manager.Phase("s1"))
	}
}

func TestExecuteWithoutContext(t *testing.T) {
	r, _ := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, executeRequest("s1", "start interview"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body conversationservice.Payload
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !strings.Contains(body.Text, "I don't have your interview context yet") {
		t.Fatalf("expected the no-context notice, got: %s", body.Text)
	}
}

func TestRESTConnSingleWrite(t *testing.T) {
	recorder := httptest.NewRecorder()
	conn := newRESTConn(recorder)

	if err := conn.Send("conversation", map[string]string{"text": "first"}); err != nil {
		t.Fatalf("first send err: %v", err)
	}
	if err := conn.Send("conversation", map[string]string{"text": "second"}); err != sessionservice.ErrTransportClosed {
		t.Fatalf("expected ErrTransportClosed on second send, got %v", err)
	}
}
