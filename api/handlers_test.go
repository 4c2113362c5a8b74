package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/auth-service/auth"
	"github.com/skillsenselab/auth-service/logger"
	"github.com/skillsenselab/auth-service/observability"
	"github.com/skillsenselab/auth-service/password"
	"github.com/skillsenselab/auth-service/secrets"
	"github.com/skillsenselab/auth-service/store"
	"github.com/skillsenselab/auth-service/token"
)

type captureNotifier struct {
	mu        sync.Mutex
	lastToken string
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, _, _, tok string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastToken = tok
	return nil
}

func (n *captureNotifier) SendWelcome(_ context.Context, _, _ string) error { return nil }

func (n *captureNotifier) token() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastToken
}

func newTestRouter(t *testing.T) (*gin.Engine, *captureNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cache := secrets.NewCache(secrets.NewStatic("api-test-secret"), time.Minute)
	tokens, err := token.NewService(token.Config{NonExpiring: true}, cache)
	if err != nil {
		t.Fatalf("token.NewService() error = %v", err)
	}

	notifier := &captureNotifier{}
	users := store.NewMemory()
	svc, err := auth.NewService(users, password.NewBcryptHasher(password.WithCost(4)), tokens, notifier, nil, logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("auth.NewService() error = %v", err)
	}

	gate := auth.NewGate(tokens, auth.GateConfig{}, nil)
	t.Cleanup(gate.Close)

	r := gin.New()
	RegisterRoutes(r, NewHandler(svc), gate, "auth-service", "test", cache, users)
	return r, notifier
}

func post(r *gin.Engine, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v; body = %s", err, w.Body.String())
	}
	return body
}

func TestRegister_Endpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := post(r, "/auth/register", `{"email":"alice@example.com","password":"Secur3!Pass","name":"Alice"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["email"] != "alice@example.com" || body["name"] != "Alice" {
		t.Errorf("body = %v", body)
	}
	if body["userId"] == "" || body["userId"] == nil {
		t.Error("userId missing from response")
	}
	if strings.Contains(strings.ToLower(w.Body.String()), "hash") {
		t.Error("response must not carry the password hash")
	}

	// Duplicate registration.
	w = post(r, "/auth/register", `{"email":"ALICE@example.com","password":"An0ther!Pass","name":"Dup"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate status = %d, want 400", w.Code)
	}
}

func TestRegister_Endpoint_Validation(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"bad email", `{"email":"nope","password":"Secur3!Pass","name":"X"}`},
		{"weak password", `{"email":"x@example.com","password":"weak","name":"X"}`},
		{"missing name", `{"email":"x@example.com","password":"Secur3!Pass"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := post(r, "/auth/register", tt.body, ""); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestLogin_Endpoint_GenericDenial(t *testing.T) {
	r, _ := newTestRouter(t)
	post(r, "/auth/register", `{"email":"alice@example.com","password":"Secur3!Pass","name":"Alice"}`, "")

	wrong := post(r, "/auth/login", `{"email":"alice@example.com","password":"Wr0ng!Pass"}`, "")
	unknown := post(r, "/auth/login", `{"email":"ghost@example.com","password":"Secur3!Pass"}`, "")

	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d/%d, want 401/401", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Errorf("denial bodies differ:\n%s\n%s", wrong.Body.String(), unknown.Body.String())
	}
}

func TestVerify_Endpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	post(r, "/auth/register", `{"email":"alice@example.com","password":"Secur3!Pass","name":"Alice"}`, "")

	login := post(r, "/auth/login", `{"email":"alice@example.com","password":"Secur3!Pass"}`, "")
	if login.Code != http.StatusOK {
		t.Fatalf("login status = %d; body = %s", login.Code, login.Body.String())
	}
	bearer, _ := decode(t, login)["token"].(string)
	if bearer == "" {
		t.Fatal("login returned no token")
	}

	w := post(r, "/auth/verify", `{}`, bearer)
	if w.Code != http.StatusOK {
		t.Fatalf("verify status = %d; body = %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["valid"] != true || body["email"] != "alice@example.com" {
		t.Errorf("verify body = %v", body)
	}

	for name, header := range map[string]string{
		"no header":     "",
		"garbage token": "garbage",
	} {
		if w := post(r, "/auth/verify", `{}`, header); w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, w.Code)
		}
	}
}

func TestForgotPassword_Endpoint_IdenticalResponses(t *testing.T) {
	r, _ := newTestRouter(t)
	post(r, "/auth/register", `{"email":"alice@example.com","password":"Secur3!Pass","name":"Alice"}`, "")

	known := post(r, "/auth/forgot-password", `{"email":"alice@example.com"}`, "")
	unknown := post(r, "/auth/forgot-password", `{"email":"ghost@example.com"}`, "")

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("statuses = %d/%d, want 200/200", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Errorf("forgot-password bodies differ:\n%s\n%s", known.Body.String(), unknown.Body.String())
	}
}

func TestResetPassword_Endpoint_FullFlow(t *testing.T) {
	r, notifier := newTestRouter(t)
	post(r, "/auth/register", `{"email":"alice@example.com","password":"Secur3!Pass","name":"Alice"}`, "")
	post(r, "/auth/forgot-password", `{"email":"alice@example.com"}`, "")

	tok := notifier.token()
	if tok == "" {
		t.Fatal("no reset token handed to notifier")
	}

	w := post(r, "/auth/reset-password", `{"token":"`+tok+`","newPassword":"NewSecur3!"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d; body = %s", w.Code, w.Body.String())
	}

	// Token is single-use.
	if w := post(r, "/auth/reset-password", `{"token":"`+tok+`","newPassword":"Third!Pass9"}`, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("second redemption status = %d, want 401", w.Code)
	}

	// Old password no longer works; the new one does.
	if w := post(r, "/auth/login", `{"email":"alice@example.com","password":"Secur3!Pass"}`, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("old password login status = %d, want 401", w.Code)
	}
	if w := post(r, "/auth/login", `{"email":"alice@example.com","password":"NewSecur3!"}`, ""); w.Code != http.StatusOK {
		t.Errorf("new password login status = %d, want 200", w.Code)
	}
}

func TestResetPassword_Endpoint_InvalidToken(t *testing.T) {
	r, _ := newTestRouter(t)

	if w := post(r, "/auth/reset-password", `{"token":"never-issued","newPassword":"NewSecur3!"}`, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if w := post(r, "/auth/reset-password", `{"token":"x","newPassword":"weak"}`, ""); w.Code != http.StatusBadRequest {
		t.Errorf("weak password status = %d, want 400", w.Code)
	}
}

func getHealth(r *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth_Endpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := getHealth(r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decode(t, w)
	if body["status"] != "up" {
		t.Errorf("health status = %v, want up", body["status"])
	}
	components, _ := body["components"].([]any)
	if len(components) != 2 {
		t.Errorf("components = %v, want secret cache and store reports", body["components"])
	}
}

type downChecker struct{}

func (downChecker) CheckHealth(_ context.Context) observability.Health {
	return observability.Health{
		Name:    "store",
		Status:  observability.HealthStatusDown,
		Message: "table unreachable",
	}
}

func TestHealth_Endpoint_ComponentDown(t *testing.T) {
	r, _ := newTestRouter(t)
	gin.SetMode(gin.TestMode)

	gate := auth.NewGate(nil, auth.GateConfig{}, nil)
	t.Cleanup(gate.Close)
	down := gin.New()
	RegisterRoutes(down, NewHandler(nil), gate, "auth-service", "test", downChecker{})

	w := getHealth(down)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	body := decode(t, w)
	if body["status"] != "down" {
		t.Errorf("health status = %v, want down", body["status"])
	}

	// The healthy router is unaffected.
	if w := getHealth(r); w.Code != http.StatusOK {
		t.Errorf("healthy router status = %d, want 200", w.Code)
	}
}
