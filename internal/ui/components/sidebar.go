// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/analyst-tui/internal/model"
	"github.com/jeranaias/analyst-tui/internal/ui/styles"
	"github.com/jeranaias/analyst-tui/internal/util"
)

// =============================================================================
// CONVERSATION SIDEBAR
// =============================================================================

// EmptySidebarText is shown when there are no conversations.
const EmptySidebarText = "No conversations yet"

// Sidebar lists conversations newest first and highlights the current one.
type Sidebar struct {
	Conversations []model.Conversation
	CurrentID     string
	Width         int
	Height        int

	theme *styles.Theme
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme, width int) *Sidebar {
	return &Sidebar{Width: width, Height: 20, theme: theme}
}

// SetConversations replaces the listed conversations.
func (s *Sidebar) SetConversations(convs []model.Conversation, currentID string) {
	s.Conversations = convs
	s.CurrentID = currentID
}

// CurrentIndex returns the position of the current conversation, or -1.
func (s *Sidebar) CurrentIndex() int {
	for i, c := range s.Conversations {
		if c.ID == s.CurrentID {
			return i
		}
	}
	return -1
}

// Footer returns the "N conversation(s)" line.
func (s *Sidebar) Footer() string {
	n := len(s.Conversations)
	return fmt.Sprintf("%d %s", n, util.Plural(n, "conversation"))
}

// View renders the sidebar to exactly Height lines where possible.
func (s *Sidebar) View() string {
	inner := s.Width - 2 // border and padding
	if inner < 8 {
		inner = 8
	}

	var lines []string
	lines = append(lines, s.theme.SidebarTitle.Render(util.TruncateWidth("Conversations", inner)))

	if len(s.Conversations) == 0 {
		lines = append(lines, s.theme.SidebarEmpty.Render(util.TruncateWidth(EmptySidebarText, inner-1)))
	} else {
		// title (2 with margin) + footer (2 with gap)
		rows := s.Height - 4
		if rows < 1 {
			rows = 1
		}
		start, end := s.window(rows)
		for i := start; i < end; i++ {
			lines = append(lines, s.renderItem(s.Conversations[i], inner))
		}
	}

	body := strings.Join(lines, "\n")
	if pad := s.Height - lipgloss.Height(body) - 1; pad > 0 {
		body += strings.Repeat("\n", pad)
	}
	body += "\n" + s.theme.SidebarFooter.Render(s.Footer())

	return s.theme.Sidebar.Width(s.Width - 1).Render(body)
}

// window picks the visible slice of rows, keeping the current item in view.
func (s *Sidebar) window(rows int) (int, int) {
	n := len(s.Conversations)
	if n <= rows {
		return 0, n
	}
	cur := s.CurrentIndex()
	if cur < 0 {
		cur = 0
	}
	start := cur - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}

func (s *Sidebar) renderItem(c model.Conversation, width int) string {
	title := c.Title
	if title == "" {
		title = model.PlaceholderTitle
	}
	title = util.PadWidth(util.FirstLine(title), width-1)
	if c.ID == s.CurrentID {
		return s.theme.SidebarItemSelected.Render(title)
	}
	return s.theme.SidebarItem.Render(title)
}
