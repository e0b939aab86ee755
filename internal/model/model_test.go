// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversation(t *testing.T) {
	conv := NewConversation("c1", epoch)

	if conv.Title != PlaceholderTitle {
		t.Errorf("Title = %q, want %q", conv.Title, PlaceholderTitle)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Role != RoleAssistant {
		t.Fatalf("Messages = %+v, want one assistant greeting", conv.Messages)
	}
	if !conv.CreatedAt.Equal(conv.UpdatedAt) {
		t.Errorf("CreatedAt %v != UpdatedAt %v", conv.CreatedAt, conv.UpdatedAt)
	}
}

func TestSetMessages_DerivesTitleOnce(t *testing.T) {
	conv := NewConversation("c1", epoch)

	msgs := append(conv.CloneMessages(), UserMessage("Summarize the onboarding complaints"))
	conv.SetMessages(msgs, epoch.Add(time.Second))
	if conv.Title != "Summarize the onboarding complaints" {
		t.Fatalf("Title = %q after first question", conv.Title)
	}
	if !conv.UpdatedAt.Equal(epoch.Add(time.Second)) {
		t.Errorf("UpdatedAt = %v, want %v", conv.UpdatedAt, epoch.Add(time.Second))
	}

	msgs = append(conv.CloneMessages(), UserMessage("Something else entirely"))
	conv.SetMessages(msgs, epoch.Add(2*time.Second))
	if conv.Title != "Summarize the onboarding complaints" {
		t.Errorf("Title changed to %q, want it fixed after first derivation", conv.Title)
	}
}

func TestSetMessages_LongTitleIsCut(t *testing.T) {
	conv := NewConversation("c1", epoch)
	question := strings.Repeat("x", 60)

	conv.SetMessages(append(conv.CloneMessages(), UserMessage(question)), epoch)

	want := strings.Repeat("x", 50) + "..."
	if conv.Title != want {
		t.Errorf("Title = %q, want %q", conv.Title, want)
	}
}

func TestSetMessages_NoUserMessageKeepsPlaceholder(t *testing.T) {
	conv := NewConversation("c1", epoch)
	msgs := append(conv.CloneMessages(), SystemMessage("📂 Uploading **a.csv**..."))

	conv.SetMessages(msgs, epoch)
	if conv.Title != PlaceholderTitle {
		t.Errorf("Title = %q, want placeholder", conv.Title)
	}

	// The rule runs again on the next update.
	conv.SetMessages(append(conv.CloneMessages(), UserMessage("hi")), epoch)
	if conv.Title != "hi" {
		t.Errorf("Title = %q, want %q", conv.Title, "hi")
	}
}

func TestClone_IsIndependent(t *testing.T) {
	conv := NewConversation("c1", epoch)
	clone := conv.Clone()
	clone.Messages[0].Content = "changed"

	if conv.Messages[0].Content == "changed" {
		t.Error("Clone shares its message slice with the original")
	}
}

func TestConversation_JSONRoundTrip(t *testing.T) {
	conv := NewConversation("c1", time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.Local))
	conv.SetMessages(append(conv.CloneMessages(), UserMessage("q")), epoch)

	data, err := json.Marshal(conv)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{`"id"`, `"title"`, `"messages"`, `"createdAt"`, `"updatedAt"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("JSON %s missing key %s", data, key)
		}
	}

	var back Conversation
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.CreatedAt != conv.CreatedAt || back.UpdatedAt != conv.UpdatedAt {
		t.Errorf("timestamps changed: %v/%v vs %v/%v", back.CreatedAt, back.UpdatedAt, conv.CreatedAt, conv.UpdatedAt)
	}
	if back.Title != conv.Title || len(back.Messages) != len(conv.Messages) {
		t.Errorf("round trip mismatch: %+v vs %+v", back, conv)
	}
}

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_UnmarshalRejectsUnknown(t *testing.T) {
	var m Message
	if err := json.Unmarshal([]byte(`{"role":"tool","content":"x"}`), &m); err == nil {
		t.Error("expected error for unknown role")
	}
	if err := json.Unmarshal([]byte(`{"role":"system","content":"x"}`), &m); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRole_DisplayName(t *testing.T) {
	if RoleAssistant.DisplayName() != "Analyst" {
		t.Errorf("DisplayName = %q", RoleAssistant.DisplayName())
	}
	if Role("other").DisplayName() != "other" {
		t.Errorf("unknown role display = %q", Role("other").DisplayName())
	}
}
