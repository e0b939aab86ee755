// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/analyst-tui/internal/util"
)

const (
	// PlaceholderTitle is the title of a conversation nobody has asked
	// anything in yet.
	PlaceholderTitle = "New Chat"

	// TitleMaxRunes is how much of the first question becomes the title.
	TitleMaxRunes = 50

	// Greeting seeds every new conversation.
	Greeting = "Hello! I am your AI Analyst. You can ask me questions or upload a feedback CSV with /upload <file>."
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a titled chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewConversation creates a conversation seeded with the greeting.
func NewConversation(id string, now time.Time) Conversation {
	now = Timestamp(now)
	return Conversation{
		ID:        id,
		Title:     PlaceholderTitle,
		Messages:  []Message{AssistantMessage(Greeting)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Timestamp normalizes t to the precision and zone stored on disk, so a
// conversation compares equal to itself after a save/load round trip.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// SetMessages replaces the message list, refreshes UpdatedAt, and applies
// the one-shot title rule.
func (c *Conversation) SetMessages(messages []Message, now time.Time) {
	c.Messages = append([]Message(nil), messages...)
	c.UpdatedAt = Timestamp(now)
	if c.Title == PlaceholderTitle && len(c.Messages) > 1 {
		if title, ok := DeriveTitle(c.Messages); ok {
			c.Title = title
		}
	}
}

// DeriveTitle builds a title from the first user message. It reports false
// when there is no user message yet.
func DeriveTitle(messages []Message) (string, bool) {
	for _, m := range messages {
		if m.Role == RoleUser {
			return util.CutRunes(m.Content, TitleMaxRunes), true
		}
	}
	return "", false
}

// Clone returns a deep copy that shares nothing with c.
func (c Conversation) Clone() Conversation {
	c.Messages = c.CloneMessages()
	return c
}

// CloneMessages returns a copy of the message list.
func (c Conversation) CloneMessages() []Message {
	out := make([]Message, len(c.Messages))
	copy(out, c.Messages)
	return out
}

// LastMessage returns the most recent message, or false if there is none.
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// CountByRole returns how many messages each role has sent.
func (c Conversation) CountByRole() map[Role]int {
	counts := make(map[Role]int, 3)
	for _, m := range c.Messages {
		counts[m.Role]++
	}
	return counts
}

// HasPlaceholderTitle reports whether the title is still "New Chat".
func (c Conversation) HasPlaceholderTitle() bool {
	return c.Title == PlaceholderTitle
}
