// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/analyst-tui/internal/model"
	"github.com/jeranaias/analyst-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one conversation message.
type MessageBubble struct {
	Message  model.Message
	Width    int
	Markdown *MarkdownRenderer
	theme    *styles.Theme
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(msg model.Message, theme *styles.Theme, md *MarkdownRenderer) *MessageBubble {
	return &MessageBubble{Message: msg, Width: 80, Markdown: md, theme: theme}
}

// View renders the role label and the styled content.
func (b *MessageBubble) View() string {
	style := b.theme.BubbleFor(b.Message.Role)

	// Width() covers content and padding; margins and borders come on top.
	inner := b.Width - style.GetHorizontalMargins() - style.GetHorizontalBorderSize()
	if inner < 10 {
		inner = 10
	}
	textWidth := inner - style.GetHorizontalPadding()

	content := b.Message.Content
	if b.Message.Role == model.RoleAssistant && b.Markdown.Enabled() {
		content = b.Markdown.Render(content, textWidth)
	}

	label := b.theme.RoleLabel.Render(b.Message.Role.DisplayName())
	bubble := style.Width(inner).Render(content)

	if b.Message.Role == model.RoleUser {
		// user messages sit on the right
		label = lipgloss.PlaceHorizontal(b.Width, lipgloss.Right, label)
	}
	return label + "\n" + bubble
}

// RenderConversation renders all messages separated by blank lines.
func RenderConversation(messages []model.Message, width int, theme *styles.Theme, md *MarkdownRenderer) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		b := NewMessageBubble(msg, theme, md)
		b.Width = width
		parts = append(parts, b.View())
	}
	return strings.Join(parts, "\n\n")
}
