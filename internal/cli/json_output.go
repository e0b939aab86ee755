// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for --json mode.
package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the envelope every command prints in JSON mode.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Error     *string     `json:"error"`
	Timestamp string      `json:"timestamp"`
	Command   string      `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates an error response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response, indented, to w.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// StatusData is the data of "analyst status".
type StatusData struct {
	ProxyURL      string `json:"proxy_url"`
	EngineURL     string `json:"engine_url"`
	ProxyOK       bool   `json:"proxy_ok"`
	EngineOK      bool   `json:"engine_ok"`
	EngineStatus  string `json:"engine_status,omitempty"`
	EngineError   string `json:"engine_error,omitempty"`
	Storage       string `json:"storage"`
	StoragePath   string `json:"storage_path"`
	Conversations int    `json:"conversations"`
}

// AskData is the data of "analyst ask".
type AskData struct {
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
	Reply          string `json:"reply"`
	Attempts       int    `json:"attempts"`
}

// ConversationSummary is one row of "analyst history list".
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  int       `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
	Current   bool      `json:"current"`
}

// =============================================================================
// HELPERS
// =============================================================================

func jsonIndent(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// indentRaw pretty-prints a JSON document, returning it unchanged when it
// does not parse.
func indentRaw(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return raw
	}
	return buf.Bytes()
}
