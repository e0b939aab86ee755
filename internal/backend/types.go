// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"encoding/json"

	"github.com/jeranaias/analyst-tui/internal/feedback"
)

// NoResponseText is shown when a chat response carries no usable text.
const NoResponseText = "No response content"

// =============================================================================
// CHAT
// =============================================================================

// ChatRequest is the body of a chat call.
type ChatRequest struct {
	Question string `json:"question"`
}

// ChatMessage is one entry of an agent's message list. Roles are whatever
// the engine reports.
type ChatMessage struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

// ChatResponse is the body of a chat answer.
type ChatResponse struct {
	Answer   string        `json:"answer,omitempty"`
	Messages []ChatMessage `json:"messages,omitempty"`
	Trace    []string      `json:"trace,omitempty"`
}

// Text returns the answer, else the last message's content, else
// NoResponseText.
func (r *ChatResponse) Text() string {
	if r == nil {
		return NoResponseText
	}
	if r.Answer != "" {
		return r.Answer
	}
	if n := len(r.Messages); n > 0 && r.Messages[n-1].Content != "" {
		return r.Messages[n-1].Content
	}
	return NoResponseText
}

// =============================================================================
// INGEST
// =============================================================================

// IngestRequest is the body of an ingest call.
type IngestRequest struct {
	Items []feedback.Item `json:"items"`
}

// RLMAnalysis is the engine's analysis of an ingested batch.
type RLMAnalysis struct {
	Themes         []string `json:"themes"`
	CriticalIssues []string `json:"critical_issues"`
	Summary        string   `json:"summary"`
	EntitiesStored int      `json:"entities_stored"`
}

// IngestSummary is the result of an ingest call. Raw holds the body exactly
// as received.
type IngestSummary struct {
	Message         string          `json:"message"`
	ProcessedChunks int             `json:"processed_chunks"`
	Analysis        *RLMAnalysis    `json:"rlm_analysis,omitempty"`
	Status          string          `json:"status"`
	Raw             json.RawMessage `json:"-"`
}

// =============================================================================
// HEALTH / THEMES
// =============================================================================

// HealthStatus is the engine's liveness answer.
type HealthStatus struct {
	Status       string `json:"status"`
	LayersActive []int  `json:"layers_active,omitempty"`
}

// ThemesReport is the engine's cross-batch theme aggregation.
type ThemesReport struct {
	Report json.RawMessage `json:"report"`
}

// Text returns the report as text: a JSON string is unquoted, anything
// else is returned as indented JSON.
func (t *ThemesReport) Text() string {
	if t == nil || len(t.Report) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(t.Report, &s); err == nil {
		return s
	}
	var v any
	if err := json.Unmarshal(t.Report, &v); err == nil {
		if out, err := json.MarshalIndent(v, "", "  "); err == nil {
			return string(out)
		}
	}
	return string(t.Report)
}
