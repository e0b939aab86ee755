// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the conversation collection and renders it for
// export.
//
// The collection is stored as one JSON document under the key
// "chat_history". Two backends implement history.Persister:
//
//   - FileStore: ~/.analyst/chat_history.json, written atomically
//   - SQLiteStore: a single-row key/value table in ~/.analyst/analyst.db
//
// # Usage
//
//	p, err := storage.Open(storage.BackendFile, "")
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//	store := history.New(p)
//
// Export helpers turn a conversation into Markdown or indented JSON, and
// FormatConversationList prints the table used by "analyst history list".
package storage
