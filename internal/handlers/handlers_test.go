package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mysft/internal/handlers"
	"mysft/internal/models"
	"mysft/internal/routes"
	"mysft/internal/services"
	"mysft/internal/storage"
)

type apiTest struct {
	store  *storage.MemStore
	server *httptest.Server
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()
	store := storage.NewMemStore()
	log := zap.NewNop()
	sessions := services.NewSessions(store, log)
	audit := services.NewAudit(store, sessions, log)
	identity := services.NewIdentity(store, sessions, audit, log)
	profiles := services.NewProfiles(store, sessions, audit, log)
	health := services.NewHealth(store, sessions, log)
	training := services.NewTraining(store, sessions, health, log)

	r := chi.NewRouter()
	routes.Setup(r,
		handlers.NewAuthHandler(identity, sessions),
		handlers.NewProfileHandler(profiles, sessions),
		handlers.NewHealthDeclHandler(health),
		handlers.NewTrainingHandler(training),
		handlers.NewAdminHandler(profiles, audit, health),
	)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &apiTest{store: store, server: srv}
}

// do issues a request with a JSON body and decodes the response envelope.
func (a *apiTest) do(t *testing.T, method, path string, body any) (int, handlers.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var envelope handlers.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, envelope
}

func (a *apiTest) register(t *testing.T, email, password string) {
	t.Helper()
	status, _ := a.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": email, "password": password, "fullName": "Test User",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, status)
	}
}

func (a *apiTest) login(t *testing.T, email, password string) {
	t.Helper()
	status, _ := a.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d", email, status)
	}
}

func (a *apiTest) submitFit(t *testing.T) {
	t.Helper()
	status, _ := a.do(t, http.MethodPost, "/api/health-declaration", map[string]any{
		"answers": models.RequiredAnswers,
	})
	if status != http.StatusOK {
		t.Fatalf("submit declaration: status %d", status)
	}
}

func TestRegisterLoginMeFlow(t *testing.T) {
	api := newAPITest(t)
	api.register(t, "alice@example.com", "pw12345")
	api.login(t, "Alice@Example.com", "pw12345")

	status, envelope := api.do(t, http.MethodGet, "/api/auth/me", nil)
	if status != http.StatusOK || !envelope.Success {
		t.Fatalf("me: status %d envelope %+v", status, envelope)
	}
	me, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("me data = %T", envelope.Data)
	}
	if me["email"] != "alice@example.com" {
		t.Fatalf("me email = %v", me["email"])
	}
	if _, leaked := me["password"]; leaked {
		t.Fatal("credential leaked through /api/auth/me")
	}

	if status, _ = api.do(t, http.MethodPost, "/api/auth/logout", nil); status != http.StatusOK {
		t.Fatalf("logout: status %d", status)
	}
	if status, _ = api.do(t, http.MethodGet, "/api/auth/me", nil); status != http.StatusUnauthorized {
		t.Fatalf("me after logout: status %d", status)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	api := newAPITest(t)
	api.register(t, "alice@example.com", "pw12345")

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown user", http.MethodPost, "/api/auth/login",
			map[string]string{"email": "ghost@example.com", "password": "x"}, http.StatusNotFound},
		{"wrong password", http.MethodPost, "/api/auth/login",
			map[string]string{"email": "alice@example.com", "password": "nope"}, http.StatusUnauthorized},
		{"duplicate email", http.MethodPost, "/api/auth/register",
			map[string]string{"email": "Alice@Example.com", "password": "pw"}, http.StatusConflict},
		{"start without login", http.MethodPost, "/api/training/start",
			map[string]string{"trainingType": "Run"}, http.StatusUnauthorized},
		{"admin as anonymous", http.MethodGet, "/api/admin/users", nil, http.StatusUnauthorized},
	}
	for _, c := range cases {
		status, envelope := api.do(t, c.method, c.path, c.body)
		if status != c.want {
			t.Errorf("%s: status %d, want %d (%s)", c.name, status, c.want, envelope.Message)
		}
		if envelope.Success {
			t.Errorf("%s: success envelope on error", c.name)
		}
	}
}

func TestTrainingFlowOverHTTP(t *testing.T) {
	api := newAPITest(t)
	api.register(t, "alice@example.com", "pw12345")
	api.login(t, "alice@example.com", "pw12345")

	// Gated until a fresh declaration exists.
	status, _ := api.do(t, http.MethodPost, "/api/training/start",
		map[string]string{"trainingType": "Run"})
	if status != http.StatusPreconditionRequired {
		t.Fatalf("ungated start: status %d", status)
	}

	api.submitFit(t)

	status, envelope := api.do(t, http.MethodPost, "/api/training/start",
		map[string]string{"trainingType": "Run"})
	if status != http.StatusCreated {
		t.Fatalf("start: status %d (%s)", status, envelope.Message)
	}

	// Second start conflicts.
	if status, _ = api.do(t, http.MethodPost, "/api/training/start",
		map[string]string{"trainingType": "Gym"}); status != http.StatusConflict {
		t.Fatalf("double start: status %d", status)
	}

	if status, _ = api.do(t, http.MethodPost, "/api/training/end", nil); status != http.StatusOK {
		t.Fatalf("end: status %d", status)
	}

	status, envelope = api.do(t, http.MethodGet, "/api/training/records", nil)
	if status != http.StatusOK {
		t.Fatalf("records: status %d", status)
	}
	records, ok := envelope.Data.([]any)
	if !ok || len(records) != 1 {
		t.Fatalf("records data = %#v", envelope.Data)
	}
	rec := records[0].(map[string]any)
	if rec["trainingType"] != "Run" {
		t.Fatalf("record = %v", rec)
	}
	if dur, _ := rec["duration"].(string); !strings.Contains(dur, ":") {
		t.Fatalf("duration = %v", rec["duration"])
	}
}

func TestUnfitSubmissionBlocksTraining(t *testing.T) {
	api := newAPITest(t)
	api.register(t, "alice@example.com", "pw12345")
	api.login(t, "alice@example.com", "pw12345")

	answers := append([]string(nil), models.RequiredAnswers...)
	answers[7] = models.AnswerNo // required Yes
	status, envelope := api.do(t, http.MethodPost, "/api/health-declaration",
		map[string]any{"answers": answers})
	if status != http.StatusOK {
		t.Fatalf("unfit submit: status %d", status)
	}
	result, ok := envelope.Data.(map[string]any)
	if !ok || result["isFit"] != false {
		t.Fatalf("result = %#v", envelope.Data)
	}

	// An unfit outcome leaves no declaration behind, so the gate stays shut.
	if status, _ = api.do(t, http.MethodPost, "/api/training/start",
		map[string]string{"trainingType": "Run"}); status != http.StatusPreconditionRequired {
		t.Fatalf("start after unfit: status %d", status)
	}
}

func TestQuestionsEndpointIsPublic(t *testing.T) {
	api := newAPITest(t)
	status, envelope := api.do(t, http.MethodGet, "/api/health-declaration/questions", nil)
	if status != http.StatusOK {
		t.Fatalf("questions: status %d", status)
	}
	questions, ok := envelope.Data.([]any)
	if !ok || len(questions) != len(models.Questions) {
		t.Fatalf("questions data = %#v", envelope.Data)
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	api := newAPITest(t)
	req, err := http.NewRequest(http.MethodPost, api.server.URL+"/api/auth/login",
		strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := api.server.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAdminEndpointsForbiddenForNonAdmin(t *testing.T) {
	api := newAPITest(t)
	api.register(t, "alice@example.com", "pw12345")
	api.login(t, "alice@example.com", "pw12345")

	for _, path := range []string{
		"/api/admin/users",
		"/api/admin/records/today",
		"/api/admin/audit",
		"/api/admin/unfit-log",
	} {
		if status, _ := api.do(t, http.MethodGet, path, nil); status != http.StatusForbidden {
			t.Errorf("%s: status %d, want 403", path, status)
		}
	}
}
