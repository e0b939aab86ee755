// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/analyst-tui/internal/feedback"
)

// =============================================================================
// RESPONSE TEXT
// =============================================================================

func TestChatResponse_Text(t *testing.T) {
	tests := []struct {
		name string
		resp *ChatResponse
		want string
	}{
		{"answer", &ChatResponse{Answer: "Top theme: pricing"}, "Top theme: pricing"},
		{"answer wins", &ChatResponse{Answer: "a", Messages: []ChatMessage{{Content: "b"}}}, "a"},
		{"last message", &ChatResponse{Messages: []ChatMessage{{Content: "first"}, {Content: "last"}}}, "last"},
		{"empty messages", &ChatResponse{Messages: []ChatMessage{}}, NoResponseText},
		{"nothing", &ChatResponse{}, NoResponseText},
		{"nil", nil, NoResponseText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resp.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// CLIENT
// =============================================================================

func TestClient_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "why churn?", req.Question)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"Pricing.","trace":["Pricing."]}`))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL + "/api/").Chat(context.Background(), "why churn?")
	require.NoError(t, err)
	assert.Equal(t, "Pricing.", resp.Text())
	assert.Equal(t, []string{"Pricing."}, resp.Trace)
}

func TestClient_Ingest(t *testing.T) {
	body := `{"message":"✅ RLM Analysis Complete!","processed_chunks":4,` +
		`"rlm_analysis":{"themes":["login","price"],"critical_issues":["login"],"summary":"s","entities_stored":7},` +
		`"status":"success"}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ingest", r.URL.Path)
		var req IngestRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Items, 2)
		assert.Equal(t, "csv-upload", req.Items[0].Source)
		w.Write([]byte(body))
	}))
	defer server.Close()

	items := []feedback.Item{
		{Source: "csv-upload", Content: "a", Rating: 3, Metadata: map[string]string{"content": "a"}},
		{Source: "csv-upload", Content: "b", Rating: 5, Metadata: map[string]string{"content": "b"}},
	}
	summary, err := NewClient(server.URL).Ingest(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.ProcessedChunks)
	require.NotNil(t, summary.Analysis)
	assert.Equal(t, []string{"login", "price"}, summary.Analysis.Themes)
	assert.Equal(t, 7, summary.Analysis.EntitiesStored)
	assert.JSONEq(t, body, string(summary.Raw))
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		status      int
		body        string
		serverFault bool
		message     string
	}{
		{500, `{"detail":"graph store down"}`, true, "graph store down"},
		{503, `{}`, true, ""},
		{429, `{"detail":"Rate limit"}`, false, "Rate limit"},
		{400, `not json`, false, "not json"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Chat(context.Background(), "q")
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "err = %v", err)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.serverFault, apiErr.ServerFault())
			assert.Equal(t, tt.serverFault, IsServerFault(err))
			assert.Equal(t, tt.message, apiErr.Message())
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url).Chat(context.Background(), "q")
	assert.ErrorIs(t, err, ErrTransport)
	assert.False(t, IsServerFault(err))
}

func TestClient_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Chat(context.Background(), "q")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL).Chat(ctx, "q")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_HealthAndThemes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"AI Engine Online","layers_active":[1,2,3,4,5]}`))
	})
	mux.HandleFunc("GET /global-themes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"report":"1. Login failures\n2. Pricing"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL)
	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AI Engine Online", health.Status)
	assert.Len(t, health.LayersActive, 5)

	report, err := client.GlobalThemes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1. Login failures\n2. Pricing", report.Text())
}

func TestClient_WithToken(t *testing.T) {
	var got []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Health(context.Background())
	require.NoError(t, err)
	_, err = NewClient(server.URL).WithToken("s3cret").Health(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer s3cret"}, got)
}

func TestThemesReport_TextStructured(t *testing.T) {
	r := &ThemesReport{Report: json.RawMessage(`{"themes":["a"]}`)}
	assert.JSONEq(t, `{"themes":["a"]}`, r.Text())
}
