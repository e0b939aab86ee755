// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one chat turn: record the question, ask the engine
// with bounded retry, record the answer.
//
// A send never fails from the caller's point of view. Every outcome,
// including an engine that stays unreachable, ends as an assistant message
// in the conversation.
//
// # Key Types
//
//   - Controller: Send with retry and backoff
//   - RetryPolicy: attempts and backoff bounds
//   - Result: what was appended and how many attempts it took
//   - ReplyMsg: Bubble Tea message carrying a Result
//
// # Usage
//
//	ctrl := session.NewController(store, client)
//	res := ctrl.Send(ctx, "Which feature requests come up most?")
//	fmt.Println(res.Reply.Content)
//
// From a Bubble Tea model:
//
//	return m, ctrl.SendCmd(ctx, input)
package session
