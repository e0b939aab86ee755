// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/analyst-tui/internal/feedback"
)

const (
	// DefaultBaseURL is the local proxy's API prefix.
	DefaultBaseURL = "http://127.0.0.1:3000/api"

	// MaxResponseSize bounds how much of a response body is read.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024

	userAgent = "analyst/1.0"
)

// sharedTransport pools connections across clients.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// Client talks to the engine API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	verbose    bool
}

// NewClient creates a client for baseURL. There is no request timeout by
// default; ingest runs as long as the engine needs and callers bound it
// with a context.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Transport: sharedTransport},
	}
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout sets a per-request timeout. Zero disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	hc := *c.httpClient
	hc.Timeout = timeout
	c.httpClient = &hc
	return c
}

// WithToken sends token as a bearer credential, for proxies started with
// proxy.token.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

// WithVerbose enables request logging.
func (c *Client) WithVerbose(verbose bool) *Client {
	c.verbose = verbose
	return c
}

// BaseURL returns the API prefix requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Chat asks the analyst a question.
func (c *Client) Chat(ctx context.Context, question string) (*ChatResponse, error) {
	var resp ChatResponse
	if _, err := c.do(ctx, http.MethodPost, "/chat", ChatRequest{Question: question}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ingest uploads feedback items for analysis and graph storage.
func (c *Client) Ingest(ctx context.Context, items []feedback.Item) (*IngestSummary, error) {
	if items == nil {
		items = []feedback.Item{}
	}
	var summary IngestSummary
	raw, err := c.do(ctx, http.MethodPost, "/ingest", IngestRequest{Items: items}, &summary)
	if err != nil {
		return nil, err
	}
	summary.Raw = raw
	return &summary, nil
}

// Health checks that the engine is reachable.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if _, err := c.do(ctx, http.MethodGet, "/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GlobalThemes fetches the engine's aggregated theme report.
func (c *Client) GlobalThemes(ctx context.Context) (*ThemesReport, error) {
	var report ThemesReport
	if _, err := c.do(ctx, http.MethodGet, "/global-themes", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do sends one request and decodes a 2xx JSON body into out. It returns the
// raw body on success.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (json.RawMessage, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if c.verbose {
		log.Printf("BACKEND_REQUEST | method=%s path=%s status=%d bytes=%d duration=%s",
			method, path, resp.StatusCode, len(data), time.Since(start).Round(time.Millisecond))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: data}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return json.RawMessage(data), nil
}

// readBody reads at most MaxResponseSize bytes.
func readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxResponseSize {
		return nil, errors.New("response body exceeds size limit")
	}
	return data, nil
}
