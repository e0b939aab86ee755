// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/analyst-tui/internal/util"
)

// ThinkingText is shown while a chat send is pending.
const ThinkingText = "Thinking..."

// View renders the chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	main := m.renderMain()
	body := main
	if m.visibleSidebarWidth() > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderStatusBar(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	left := m.theme.HeaderTitle.Render("AI Analyst")
	if conv := m.store.CurrentConversation(); conv != nil {
		left += m.theme.HeaderSubtitle.Render("  " + util.TruncateWidth(conv.Title, m.width/2))
	}

	right := ""
	if m.engineState != "" {
		right = m.theme.HeaderSubtitle.Render(m.engineState)
	}

	gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// MAIN PANE
// =============================================================================

func (m Model) renderMain() string {
	parts := []string{m.viewport.View()}

	if m.progress.Visible() {
		parts = append(parts, m.progress.View())
	}
	if m.thinking {
		parts = append(parts, m.spinner.View()+" "+m.theme.ThinkingText.Render(ThinkingText))
	}

	parts = append(parts, m.theme.InputContainer.Width(m.mainWidth()).Render(m.input.View()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	content := m.statusMsg
	if content == "" {
		var hints []string
		for _, b := range m.keyMap.ShortHelp() {
			h := b.Help()
			hints = append(hints, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
		}
		content = strings.Join(hints, "  ")
	}
	return m.theme.StatusBar.Width(m.width).Render(content)
}
