// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/analyst-tui/internal/backend"
	"github.com/jeranaias/analyst-tui/internal/config"
)

// =============================================================================
// HELPERS
// =============================================================================

// fakeEngine records the last request and answers with a fixed status/body.
type fakeEngine struct {
	status int
	body   string

	mu     sync.Mutex
	method string
	path   string
	got    string
	reqID  string
}

func (f *fakeEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.method = r.Method
	f.path = r.URL.Path
	f.reqID = r.Header.Get(RequestIDHeader)
	f.got = string(data)
	f.mu.Unlock()
	w.WriteHeader(f.status)
	io.WriteString(w, f.body)
}

// last returns method, path, body and request ID of the latest request.
func (f *fakeEngine) last() (method, path, body, reqID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.method, f.path, f.got, f.reqID
}

func newTestProxy(t *testing.T, engine http.Handler, mutate func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	upstream := httptest.NewServer(engine)
	t.Cleanup(upstream.Close)

	cfg := config.Default()
	cfg.Engine.URL = upstream.URL
	cfg.Proxy.RateLimit = 0
	if mutate != nil {
		mutate(cfg)
	}
	srv := NewServer(cfg)
	front := httptest.NewServer(srv.Handler())
	t.Cleanup(front.Close)
	return srv, front
}

func doRequest(t *testing.T, method, url, body string, header http.Header) (*http.Response, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

// =============================================================================
// PASS-THROUGH
// =============================================================================

func TestForward_Routes(t *testing.T) {
	tests := []struct {
		method   string
		path     string
		body     string
		upstream string
	}{
		{http.MethodPost, "/api/chat", `{"question":"why churn?"}`, "/chat"},
		{http.MethodPost, "/api/ingest", `{"items":[]}`, "/ingest"},
		{http.MethodGet, "/api/health", "", "/"},
		{http.MethodGet, "/api/global-themes", "", "/global-themes"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			engine := &fakeEngine{status: http.StatusOK, body: `{"ok":true}`}
			_, front := newTestProxy(t, engine, nil)

			resp, body := doRequest(t, tt.method, front.URL+tt.path, tt.body, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `{"ok":true}`, body)
			method, path, got, _ := engine.last()
			assert.Equal(t, tt.method, method)
			assert.Equal(t, tt.upstream, path)
			assert.Equal(t, tt.body, got)
		})
	}
}

func TestForward_UpstreamErrorForwarded(t *testing.T) {
	engine := &fakeEngine{status: http.StatusTooManyRequests, body: `{"detail":"Rate limit exceeded"}`}
	_, front := newTestProxy(t, engine, nil)

	resp, body := doRequest(t, http.MethodPost, front.URL+"/api/chat", `{"question":"q"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"Rate limit exceeded"}`, body)
}

func TestForward_UpstreamErrorNotJSON(t *testing.T) {
	engine := &fakeEngine{status: http.StatusBadGateway, body: "<html>bad gateway</html>"}
	_, front := newTestProxy(t, engine, nil)

	resp, body := doRequest(t, http.MethodPost, front.URL+"/api/chat", `{"question":"q"}`, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.JSONEq(t, `{}`, body)
}

func TestForward_InvalidSuccessBody(t *testing.T) {
	engine := &fakeEngine{status: http.StatusOK, body: "not json"}
	srv, front := newTestProxy(t, engine, nil)

	resp, body := doRequest(t, http.MethodPost, front.URL+"/api/chat", `{"question":"q"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Failed to connect to AI Engine"}`, body)
	assert.Equal(t, int64(1), srv.Stats().UpstreamFailures.Load())
}

func TestForward_EngineUnreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	_, front := newTestProxy(t, http.NotFoundHandler(), func(c *config.Config) {
		c.Engine.URL = deadURL
	})

	resp, body := doRequest(t, http.MethodGet, front.URL+"/api/health", "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Failed to connect to AI Engine"}`, body)
}

func TestForward_WrongMethod(t *testing.T) {
	engine := &fakeEngine{status: http.StatusOK, body: `{}`}
	_, front := newTestProxy(t, engine, nil)

	resp, _ := doRequest(t, http.MethodGet, front.URL+"/api/chat", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	_, path, _, _ := engine.last()
	assert.Empty(t, path, "engine must not be called")
}

func TestForward_BodyTooLarge(t *testing.T) {
	engine := &fakeEngine{status: http.StatusOK, body: `{}`}
	_, front := newTestProxy(t, engine, func(c *config.Config) {
		c.Proxy.MaxBodyBytes = 1024
	})

	big := `{"question":"` + strings.Repeat("x", 2048) + `"}`
	resp, body := doRequest(t, http.MethodPost, front.URL+"/api/chat", big, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Contains(t, body, "too large")
	_, path, _, _ := engine.last()
	assert.Empty(t, path)
}

func TestSetEngineURL(t *testing.T) {
	first := &fakeEngine{status: http.StatusOK, body: `{"engine":1}`}
	srv, front := newTestProxy(t, first, nil)

	second := httptest.NewServer(&fakeEngine{status: http.StatusOK, body: `{"engine":2}`})
	defer second.Close()

	srv.SetEngineURL(second.URL + "/")
	assert.Equal(t, second.URL, srv.EngineURL())

	_, body := doRequest(t, http.MethodGet, front.URL+"/api/health", "", nil)
	assert.JSONEq(t, `{"engine":2}`, body)
}

func TestReload_UpdatesEngineAndToken(t *testing.T) {
	engine := &fakeEngine{status: http.StatusOK, body: `{}`}
	srv, front := newTestProxy(t, engine, nil)

	cfg := config.Default()
	cfg.Engine.URL = srv.EngineURL()
	cfg.Proxy.Token = "s3cret"
	srv.Reload(cfg)

	resp, _ := doRequest(t, http.MethodGet, front.URL+"/api/health", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestRequestID_PropagatedAndEchoed(t *testing.T) {
	engine := &fakeEngine{status: http.StatusOK, body: `{}`}
	_, front := newTestProxy(t, engine, nil)

	resp, _ := doRequest(t, http.MethodGet, front.URL+"/api/health", "", http.Header{RequestIDHeader: {"req-42"}})
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
	_, _, _, reqID := engine.last()
	assert.Equal(t, "req-42", reqID)

	resp, _ = doRequest(t, http.MethodGet, front.URL+"/api/health", "", nil)
	generated := resp.Header.Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	_, _, _, reqID = engine.last()
	assert.Equal(t, generated, reqID)
}

func TestSecurityHeaders(t *testing.T) {
	engine := &fakeEngine{status: http.StatusOK, body: `{}`}
	_, front := newTestProxy(t, engine, nil)

	resp, _ := doRequest(t, http.MethodGet, front.URL+"/api/health", "", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestAuthMiddleware(t *testing.T) {
	engine := &fakeEngine{status: http.StatusOK, body: `{"ok":true}`}
	_, front := newTestProxy(t, engine, func(c *config.Config) {
		c.Proxy.Token = "s3cret"
	})

	resp, body := doRequest(t, http.MethodGet, front.URL+"/api/health", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, body)

	resp, _ = doRequest(t, http.MethodGet, front.URL+"/api/health", "", http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodGet, front.URL+"/api/health", "", http.Header{"Authorization": {"Bearer s3cret"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidateBearerToken(t *testing.T) {
	assert.True(t, ValidateBearerToken("abc", "abc"))
	assert.False(t, ValidateBearerToken("abc", "abd"))
	assert.False(t, ValidateBearerToken("", ""))
	assert.False(t, ValidateBearerToken("abc", ""))
}

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, rl.Allow("10.0.0.2"), "other clients have their own bucket")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "one token refilled")
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(2 * visitorTTL)
	rl.Allow("10.0.0.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestRateLimitMiddleware(t *testing.T) {
	engine := &fakeEngine{status: http.StatusOK, body: `{}`}
	_, front := newTestProxy(t, engine, func(c *config.Config) {
		c.Proxy.RateLimit = 0.001
		c.Proxy.RateBurst = 1
	})

	resp, _ := doRequest(t, http.MethodGet, front.URL+"/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doRequest(t, http.MethodGet, front.URL+"/api/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too Many Requests"}`, body)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(mark("a"), mark("b"), mark("c"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "c", "handler"}, order)
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.1.9:5123"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "192.168.1.9", GetClientIP(r))

	r.RemoteAddr = "[::1]:80"
	assert.Equal(t, "::1", GetClientIP(r))
}

// =============================================================================
// END TO END
// =============================================================================

func TestBackendClientThroughProxy(t *testing.T) {
	engine := http.NewServeMux()
	engine.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
		var req backend.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]any{"answer": "echo: " + req.Question, "trace": []string{"layer1"}})
	})
	engine.HandleFunc("POST /ingest", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"Neo4j unavailable"}`)
	})
	_, front := newTestProxy(t, engine, nil)

	client := backend.NewClient(front.URL + "/api")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Chat(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", resp.Text())

	_, err = client.Ingest(ctx, nil)
	require.Error(t, err)
	assert.True(t, backend.IsServerFault(err))
}
