package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/config"
	"github.com/jonathan/jobni/internal/db/memdb"
	"github.com/jonathan/jobni/internal/events"
	"github.com/jonathan/jobni/internal/observability"
	"github.com/jonathan/jobni/internal/server/ratelimit"
	"github.com/jonathan/jobni/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*Server
	store   *memdb.Store
	events  *events.Memory
	handler http.Handler
}

func testConfig() Config {
	return Config{
		Addr:         "127.0.0.1:0",
		NotifyLocale: "en",
		JWT:          &config.JWTConfig{Secret: testSecret, ExpirationHours: 1},
		Passwords:    &config.PasswordConfig{BcryptCost: 4},
		RateLimit:    &ratelimit.Config{Enabled: false},
	}
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithConfig(t, testConfig())
}

func newTestServerWithConfig(t *testing.T, cfg Config) *testServer {
	t.Helper()
	store := memdb.New()
	published := events.NewMemory()
	s, err := New(cfg, store, published, observability.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(s.limiter.Stop)
	return &testServer{Server: s, store: store, events: published, handler: s.Handler()}
}

// do sends a request through the full middleware stack.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, w)["detail"].(string)
}

type account struct {
	ID    uuid.UUID
	Token string
}

func (ts *testServer) register(t *testing.T, email string, role types.Role) account {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "User " + email, "email": email, "password": "password123", "role": role,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[types.LoginResponse](t, w)
	return account{ID: resp.User.ID, Token: resp.AccessToken}
}

func (ts *testServer) admin(t *testing.T) account {
	t.Helper()
	_, err := ts.users.EnsureAdmin(context.Background(), "admin@example.com", "adminpass1", "Admin")
	require.NoError(t, err)
	w := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "adminpass1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[types.LoginResponse](t, w)
	return account{ID: resp.User.ID, Token: resp.AccessToken}
}

func TestNew_RequiresSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.JWT = nil
	_, err := New(cfg, memdb.New(), nil, observability.DiscardLogger())
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/jobs", "", nil)

	w := ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jobni_http_requests_total")
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", "", nil)
	_, err := uuid.Parse(w.Header().Get(requestIDHeader))
	assert.NoError(t, err, "a request id is generated when absent")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/jobs", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	cfg := testConfig()
	cfg.CORSOrigins = []string{"https://app.example.com"}
	restricted := newTestServerWithConfig(t, cfg)

	w = httptest.NewRecorder()
	restricted.handler.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	other := httptest.NewRequest(http.MethodGet, "/health", nil)
	other.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	restricted.handler.ServeHTTP(w, other)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, restricted.allowedOrigin(other))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/api/auth/login", Method: "POST", Limit: 2, Window: time.Minute, Burst: 2},
		},
	}
	ts := newTestServerWithConfig(t, cfg)
	creds := map[string]string{"email": "nobody@example.com", "password": "whatever1"}

	for i := 0; i < 2; i++ {
		w := ts.do(t, http.MethodPost, "/api/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := ts.do(t, http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, detail(t, w), "Rate limit exceeded")

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", "", nil).Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	ts := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
