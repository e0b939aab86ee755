// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history owns the collection of conversations and the pointer to
// the one the user is looking at.
//
// The Store is the single writer for conversation state. It loads the
// collection once through a Persister, keeps it newest-first in memory, and
// writes the whole collection back after every mutation. Readers get copies;
// writers go through the Store's methods.
//
// # Key Types
//
//   - Store: in-memory collection, current selection, persistence hook
//   - Persister: load/save port implemented by package storage
//   - Option: construction-time configuration (clock, ids, change hook)
//
// # Usage
//
//	store := history.New(storage.NewFileStore(path))
//	id := store.EnsureConversation()
//	store.AppendMessage(id, model.UserMessage("Which themes are trending?"))
//
// # Concurrency
//
// Every method is safe for concurrent use. UpdateConversationFunc applies a
// change against the messages present at apply time, so a chat reply and an
// upload notice landing at the same moment are both kept.
package history
