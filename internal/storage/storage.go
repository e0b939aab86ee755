// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/analyst-tui/internal/model"
)

// HistoryKey names the stored collection.
const HistoryKey = "chat_history"

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a conversation doesn't exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// CorruptError reports a stored document that could not be decoded.
type CorruptError struct {
	Source string
	Err    error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt history in %s: %v", e.Source, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// =============================================================================
// BACKEND SELECTION
// =============================================================================

// Persister is a history.Persister that holds resources.
type Persister interface {
	Load() ([]model.Conversation, error)
	Save(conversations []model.Conversation) error
	Close() error
}

// DataDir returns ~/.analyst.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".analyst"), nil
}

// DefaultPath returns the default location for a backend.
func DefaultPath(backend string) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	switch backend {
	case BackendSQLite:
		return filepath.Join(dir, "analyst.db"), nil
	default:
		return filepath.Join(dir, HistoryKey+".json"), nil
	}
}

// Open returns the named backend at path, or at its default location when
// path is empty.
func Open(backend, path string) (Persister, error) {
	if backend == "" {
		backend = BackendFile
	}
	if backend != BackendFile && backend != BackendSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if path == "" {
		p, err := DefaultPath(backend)
		if err != nil {
			return nil, err
		}
		path = p
	}
	if backend == BackendSQLite {
		return OpenSQLite(path)
	}
	return NewFileStore(path), nil
}

// =============================================================================
// ENCODING
// =============================================================================

func encode(conversations []model.Conversation) ([]byte, error) {
	if conversations == nil {
		conversations = []model.Conversation{}
	}
	return json.Marshal(conversations)
}

func decode(source string, data []byte) ([]model.Conversation, error) {
	var convs []model.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		return nil, &CorruptError{Source: source, Err: err}
	}
	for i, c := range convs {
		if c.ID == "" {
			return nil, &CorruptError{Source: source, Err: fmt.Errorf("conversation %d has no id", i)}
		}
	}
	return convs, nil
}
