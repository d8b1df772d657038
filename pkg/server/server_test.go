package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/openalgoflow/engine/pkg/config"
	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/logging"
	"github.com/openalgoflow/engine/pkg/observer"
	"github.com/openalgoflow/engine/pkg/orchestrator"
	"github.com/openalgoflow/engine/pkg/scheduler"
	"github.com/openalgoflow/engine/pkg/security"
	"github.com/openalgoflow/engine/pkg/storage"
	"github.com/openalgoflow/engine/pkg/traverser"
)

func buildTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Testing()
	logger := logging.New(logging.DefaultConfig())
	registry := handlers.RegisterAll()
	tr := traverser.New(registry, cfg, logger)
	store := storage.NewInMemoryStore()
	orch := orchestrator.New(tr, store, cfg, logger, nil, nil, nil)
	sched := scheduler.New(func(ctx context.Context, workflowID string) {}, logger)

	signer := security.NewTokenSigner([]byte("test-secret-test-secret-32bytes"))
	cipherKey, err := security.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	gwCipher, err := security.NewGatewayKeyCipher(cipherKey)
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	srv, err := New(DefaultConfig(), Deps{
		Store:        store,
		Orchestrator: orch,
		Scheduler:    sched,
		Registry:     registry,
		Gateway:      nil,
		Stream:       nil,
		Signer:       signer,
		Cipher:       gwCipher,
		EngineConfig: cfg,
		Observers:    observer.NewManager(),
		Logger:       logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func TestAuthStatusPublicBeforeSetup(t *testing.T) {
	srv := buildTestServer(t)
	mux := srv.Handler()

	req := httptest.NewRequest("GET", "/auth/status", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["is_setup_complete"] != false {
		t.Fatalf("expected is_setup_complete=false, got %v", body["is_setup_complete"])
	}
}

func TestAuthSetupThenLogin(t *testing.T) {
	srv := buildTestServer(t)
	mux := srv.Handler()

	setupBody, _ := json.Marshal(map[string]string{"password": "correct-horse"})
	req := httptest.NewRequest("POST", "/auth/setup", bytes.NewReader(setupBody))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("setup: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Second setup attempt must be rejected.
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest("POST", "/auth/setup", bytes.NewReader(setupBody))
	mux.ServeHTTP(w2, req2)
	if w2.Code != 409 {
		t.Fatalf("expected 409 on repeat setup, got %d", w2.Code)
	}

	loginBody, _ := json.Marshal(map[string]string{"password": "correct-horse"})
	req3 := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(loginBody))
	w3 := httptest.NewRecorder()
	mux.ServeHTTP(w3, req3)
	if w3.Code != 200 {
		t.Fatalf("login: expected 200, got %d", w3.Code)
	}
	var tokenBody tokenResponse
	if err := json.NewDecoder(w3.Body).Decode(&tokenBody); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	if tokenBody.Token == "" {
		t.Fatal("expected non-empty token")
	}
}

func TestWorkflowCRUDAndExecuteRequiresAuth(t *testing.T) {
	srv := buildTestServer(t)
	mux := srv.Handler()

	req := httptest.NewRequest("GET", "/workflows", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestWorkflowCreateGetExecute(t *testing.T) {
	srv := buildTestServer(t)
	mux := srv.Handler()
	token := mustIssueToken(t, srv)

	graph := map[string]interface{}{
		"nodes": []map[string]interface{}{
			{"id": "start", "kind": "start", "type": "start", "data": map[string]interface{}{}},
			{"id": "math", "kind": "action", "type": "mathExpression", "data": map[string]interface{}{"expression": "2+2", "variable": "result"}},
		},
		"edges": []map[string]interface{}{
			{"id": "e1", "source": "start", "target": "math"},
		},
	}
	createBody, _ := json.Marshal(map[string]interface{}{"name": "test workflow", "graph": graph})
	req := httptest.NewRequest("POST", "/workflows", bytes.NewReader(createBody))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != 201 {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode created workflow: %v", err)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("expected workflow id")
	}

	execReq := httptest.NewRequest("POST", "/workflows/"+id+"/execute", nil)
	execReq.Header.Set("Authorization", "Bearer "+token)
	execReq.SetPathValue("id", id)
	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, execReq)
	if w2.Code != 200 {
		t.Fatalf("execute: expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
}

func mustIssueToken(t *testing.T, srv *Server) string {
	t.Helper()
	token, err := srv.deps.Signer.Issue("admin")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}
