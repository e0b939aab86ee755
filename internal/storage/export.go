// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/analyst-tui/internal/model"
	"github.com/jeranaias/analyst-tui/internal/util"
)

// =============================================================================
// LOOKUP
// =============================================================================

// Find returns the conversation whose ID equals ref, or the single one whose
// ID starts with ref, or the one at the 1-based position ref in the list.
func Find(convs []model.Conversation, ref string) (model.Conversation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Conversation{}, ErrNotFound
	}
	for _, c := range convs {
		if c.ID == ref {
			return c, nil
		}
	}

	var match []model.Conversation
	for _, c := range convs {
		if strings.HasPrefix(c.ID, ref) {
			match = append(match, c)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
	default:
		return model.Conversation{}, fmt.Errorf("%q matches %d conversations", ref, len(match))
	}

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(convs) {
		return convs[n-1], nil
	}
	return model.Conversation{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatConversationList renders conversations as a table, marking the
// current one with "*".
func FormatConversationList(convs []model.Conversation, currentID string) string {
	if len(convs) == 0 {
		return "No conversations yet."
	}

	var sb strings.Builder
	sb.WriteString("  " + util.PadWidth("#", 4) + util.PadWidth("ID", 10) + util.PadWidth("Updated", 18) + util.PadWidth("Msgs", 6) + "Title\n")
	sb.WriteString("  " + strings.Repeat("-", 70) + "\n")
	for i, c := range convs {
		marker := "  "
		if c.ID == currentID {
			marker = "* "
		}
		id := c.ID
		if len(id) > 8 {
			id = id[len(id)-8:]
		}
		sb.WriteString(marker +
			util.PadWidth(strconv.Itoa(i+1), 4) +
			util.PadWidth(id, 10) +
			util.PadWidth(c.UpdatedAt.Local().Format("2006-01-02 15:04"), 18) +
			util.PadWidth(strconv.Itoa(len(c.Messages)), 6) +
			util.TruncateWidth(c.Title, 40) + "\n")
	}
	sb.WriteString(fmt.Sprintf("\n%d %s\n", len(convs), util.Plural(len(convs), "conversation")))
	return sb.String()
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders a conversation as Markdown.
func ExportMarkdown(c model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("# " + c.Title + "\n\n")
	sb.WriteString("- ID: `" + c.ID + "`\n")
	sb.WriteString("- Created: " + c.CreatedAt.Format(time.RFC3339) + "\n")
	sb.WriteString("- Updated: " + c.UpdatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range c.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "**\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// ExportJSON renders a conversation as indented JSON.
func ExportJSON(c model.Conversation) ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
