// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer renders message content with glamour. The underlying
// renderer is rebuilt only when the wrap width changes.
type MarkdownRenderer struct {
	style   string
	enabled bool

	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer using a glamour standard style
// ("dark", "light", "notty", ...). A disabled renderer returns text as is.
func NewMarkdownRenderer(style string, enabled bool) *MarkdownRenderer {
	if style == "" {
		style = "dark"
	}
	return &MarkdownRenderer{style: style, enabled: enabled}
}

// Enabled reports whether markdown is rendered.
func (m *MarkdownRenderer) Enabled() bool {
	return m != nil && m.enabled
}

// Render formats content wrapped at width columns. It falls back to the raw
// content when rendering fails.
func (m *MarkdownRenderer) Render(content string, width int) string {
	if !m.Enabled() || strings.TrimSpace(content) == "" {
		return content
	}
	if width < 20 {
		width = 20
	}
	if m.renderer == nil || m.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		m.renderer = r
		m.width = width
	}

	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}
