// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jeranaias/analyst-tui/internal/model"
	"github.com/jeranaias/analyst-tui/internal/util"
)

// FileStore keeps the collection in a single JSON file.
type FileStore struct {
	Path string
}

// NewFileStore creates a file backend. The file is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the collection. A missing or empty file yields (nil, nil).
func (f *FileStore) Load() ([]model.Conversation, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return decode(f.Path, data)
}

// Save replaces the file contents.
func (f *FileStore) Save(conversations []model.Conversation) error {
	data, err := encode(conversations)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	// SECURITY: conversations may contain customer feedback; owner-only.
	if err := util.AtomicWriteFile(f.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// Close is a no-op.
func (f *FileStore) Close() error { return nil }
