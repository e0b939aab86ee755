// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// These are plain values: a Conversation's message list is replaced as a
// whole on every update and never edited in place, so a Conversation handed
// out by the history store can be read without holding any lock.
//
// # Key Types
//
//   - Role: sender of a message (user, assistant, system)
//   - Message: a role and its text content
//   - Conversation: an identified, titled, timestamped list of messages
//
// # Usage
//
//	conv := model.NewConversation(id, time.Now())
//	msgs := append(conv.CloneMessages(), model.UserMessage("What are users asking for?"))
//	conv.SetMessages(msgs, time.Now())
//	fmt.Println(conv.Title) // "What are users asking for?"
package model
