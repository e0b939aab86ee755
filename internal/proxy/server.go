// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/analyst-tui/internal/config"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// ConnectFailedMessage is returned when the engine cannot be reached or
	// answers with something that is not JSON.
	ConnectFailedMessage = "Failed to connect to AI Engine"

	// DefaultMaxRequestBodySize caps request bodies when the config leaves
	// it unset.
	DefaultMaxRequestBodySize = 8 << 20

	// MaxUpstreamResponseSize caps how much of an engine response is read.
	MaxUpstreamResponseSize = 32 << 20
)

// route maps a proxy path to an engine path.
type route struct {
	pattern  string
	method   string
	upstream string
}

var routes = []route{
	{pattern: "POST /api/chat", method: http.MethodPost, upstream: "/chat"},
	{pattern: "POST /api/ingest", method: http.MethodPost, upstream: "/ingest"},
	{pattern: "GET /api/health", method: http.MethodGet, upstream: "/"},
	{pattern: "GET /api/global-themes", method: http.MethodGet, upstream: "/global-themes"},
}

// ============================================================================
// STATS
// ============================================================================

// Stats counts forwarded requests.
type Stats struct {
	Forwarded        atomic.Int64
	UpstreamErrors   atomic.Int64
	UpstreamFailures atomic.Int64
}

// ============================================================================
// SERVER
// ============================================================================

// Server forwards /api requests to the AI engine.
type Server struct {
	listen  string
	router  *http.ServeMux
	server  *http.Server
	client  *http.Client
	limiter *RateLimiter
	stats   *Stats

	mu        sync.RWMutex
	engineURL string
	timeout   time.Duration
	token     string
	maxBody   int64
}

// NewServer creates a Server from cfg. A nil cfg uses config.Default().
func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		listen: cfg.Proxy.Listen,
		router: http.NewServeMux(),
		client: &http.Client{},
		stats:  &Stats{},
	}
	if cfg.Proxy.RateLimit > 0 {
		s.limiter = NewRateLimiter(cfg.Proxy.RateLimit, cfg.Proxy.RateBurst)
	}
	s.Reload(cfg)
	s.setupRoutes()
	return s
}

// WithHTTPClient sets the client used to reach the engine.
func (s *Server) WithHTTPClient(hc *http.Client) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = hc
	return s
}

// Reload applies the engine and auth settings of cfg. The listen address and
// rate limits are fixed for the life of the server.
func (s *Server) Reload(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engineURL = strings.TrimRight(cfg.Engine.URL, "/")
	s.timeout = cfg.EngineTimeout()
	s.token = cfg.Proxy.Token
	s.maxBody = cfg.Proxy.MaxBodyBytes
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxRequestBodySize
	}
}

// WatchConfig reloads engine settings whenever the config file at path changes.
func (s *Server) WatchConfig(path string) (*config.Watcher, error) {
	return config.Watch(path, config.DefaultWatchDebounce, s.Reload)
}

// SetEngineURL swaps the engine base URL.
func (s *Server) SetEngineURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.engineURL
	s.engineURL = strings.TrimRight(u, "/")
	if old != s.engineURL {
		log.Printf("PROXY_ENGINE_CHANGED | from=%s to=%s", old, s.engineURL)
	}
}

// EngineURL returns the current engine base URL.
func (s *Server) EngineURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engineURL
}

// Listen returns the configured listen address.
func (s *Server) Listen() string {
	return s.listen
}

// Stats returns the live request counters.
func (s *Server) Stats() *Stats {
	return s.stats
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	for _, rt := range routes {
		s.router.HandleFunc(rt.pattern, s.forward(rt.method, rt.upstream))
	}
}

// forward returns a handler that relays the request to the engine path.
func (s *Server) forward(method, upstreamPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		base, timeout, maxBody, client := s.engineURL, s.timeout, s.maxBody, s.client
		s.mu.RUnlock()

		var body io.Reader
		if method == http.MethodPost {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
			data, err := io.ReadAll(r.Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
					return
				}
				writeError(w, http.StatusBadRequest, "Failed to read request body")
				return
			}
			body = bytes.NewReader(data)
		}

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		req, err := http.NewRequestWithContext(ctx, method, base+upstreamPath, body)
		if err != nil {
			s.upstreamFailed(w, r, err)
			return
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if id := RequestIDFromContext(r.Context()); id != "" {
			req.Header.Set(RequestIDHeader, id)
		}

		resp, err := client.Do(req)
		if err != nil {
			s.upstreamFailed(w, r, err)
			return
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxUpstreamResponseSize))
		if err != nil {
			s.upstreamFailed(w, r, err)
			return
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			s.stats.UpstreamErrors.Add(1)
			log.Printf("PROXY_UPSTREAM_ERROR | path=%s status=%d", upstreamPath, resp.StatusCode)
			if !json.Valid(raw) {
				raw = []byte("{}")
			}
			writeRaw(w, resp.StatusCode, raw)
			return
		}

		if !json.Valid(raw) {
			s.upstreamFailed(w, r, errors.New("engine returned invalid JSON"))
			return
		}
		s.stats.Forwarded.Add(1)
		writeRaw(w, http.StatusOK, raw)
	}
}

func (s *Server) upstreamFailed(w http.ResponseWriter, r *http.Request, err error) {
	s.stats.UpstreamFailures.Add(1)
	log.Printf("PROXY_UPSTREAM_FAILED | path=%s error=%v", r.URL.Path, err)
	writeError(w, http.StatusInternalServerError, ConnectFailedMessage)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mws := []func(http.Handler) http.Handler{
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		RequestIDMiddleware(),
		LoggingMiddleware(log.Default()),
	}
	if s.limiter != nil {
		mws = append(mws, RateLimitMiddleware(s.limiter))
	}
	mws = append(mws, AuthMiddleware(s.currentToken))
	return Chain(mws...)(s.router)
}

func (s *Server) currentToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	engine := s.engineURL
	s.mu.Unlock()

	log.Printf("PROXY_START | addr=%s engine=%s", ln.Addr(), engine)
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	log.Printf("PROXY_SHUTDOWN | forwarded=%d upstream_errors=%d upstream_failures=%d",
		s.stats.Forwarded.Load(), s.stats.UpstreamErrors.Load(), s.stats.UpstreamFailures.Load())
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func writeRaw(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
