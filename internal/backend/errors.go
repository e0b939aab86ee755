// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrTransport wraps failures that happened before any HTTP status was
	// received (connection refused, DNS, reset, timeout).
	ErrTransport = errors.New("backend unreachable")

	// ErrDecode wraps a 2xx answer whose body is not the expected JSON.
	ErrDecode = errors.New("invalid backend response")
)

// APIError is a non-2xx answer.
type APIError struct {
	Status int
	Body   []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, msg)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// ServerFault reports a 5xx status.
func (e *APIError) ServerFault() bool {
	return e.Status >= http.StatusInternalServerError
}

// RateLimited reports a 429 status.
func (e *APIError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// Message extracts "detail" or "error" from a JSON body, or returns the
// trimmed body text.
func (e *APIError) Message() string {
	var body struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &body); err == nil {
		if s, ok := body.Detail.(string); ok && s != "" {
			return s
		}
		if body.Error != "" {
			return body.Error
		}
		if body.Detail != nil {
			out, _ := json.Marshal(body.Detail)
			return string(out)
		}
		return ""
	}
	text := strings.TrimSpace(string(e.Body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}

// IsServerFault reports whether err is an APIError with a 5xx status.
func IsServerFault(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ServerFault()
}
