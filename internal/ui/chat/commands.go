// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/analyst-tui/internal/ui/styles"
)

// NoConversationText fills the chat pane when nothing is selected.
const NoConversationText = "No conversation selected. Press Ctrl+N or type a question to start one."

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// SlashCommand describes one command accepted in the input line.
type SlashCommand struct {
	Name  string
	Usage string
	Help  string
}

// SlashCommands lists the commands in help order.
var SlashCommands = []SlashCommand{
	{Name: "/new", Usage: "/new", Help: "start a new conversation"},
	{Name: "/delete", Usage: "/delete", Help: "delete the current conversation"},
	{Name: "/switch", Usage: "/switch N", Help: "open conversation N from the sidebar"},
	{Name: "/upload", Usage: "/upload FILE.csv", Help: "upload a feedback CSV for analysis"},
	{Name: "/help", Usage: "/help", Help: "list commands"},
	{Name: "/quit", Usage: "/quit", Help: "exit"},
}

// ParseCommand splits "/name rest of line" into its name and argument.
func ParseCommand(text string) (name, arg string) {
	text = strings.TrimSpace(text)
	name, arg, _ = strings.Cut(text, " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

// runCommand executes a slash command.
func (m Model) runCommand(text string) (tea.Model, tea.Cmd) {
	name, arg := ParseCommand(text)
	switch name {
	case "/new":
		m.newChat()
		return m, nil

	case "/delete":
		id := m.store.CurrentConversationID()
		if id == "" {
			m.statusMsg = styles.RenderWarning("No conversation to delete")
			return m, nil
		}
		m.store.DeleteConversation(id)
		m.statusMsg = styles.RenderInfo("Conversation deleted")
		m.refresh()
		return m, nil

	case "/switch":
		n, err := strconv.Atoi(arg)
		convs := m.store.Conversations()
		if err != nil || n < 1 || n > len(convs) {
			m.statusMsg = styles.RenderWarning("Usage: /switch N (1-" + strconv.Itoa(len(convs)) + ")")
			return m, nil
		}
		m.store.SetCurrentConversationID(convs[n-1].ID)
		m.statusMsg = ""
		m.refresh()
		return m, nil

	case "/upload":
		if arg == "" {
			m.statusMsg = styles.RenderWarning("Usage: /upload FILE.csv")
			return m, nil
		}
		if m.uploading || m.pipeline.Running() {
			m.statusMsg = styles.RenderWarning("An upload is already in progress")
			return m, nil
		}
		path := ExpandPath(arg)
		m.uploading = true
		m.statusMsg = ""
		m.progress.FileName = filepath.Base(path)
		return m, m.uploadCmd(path)

	case "/help":
		parts := make([]string, 0, len(SlashCommands))
		for _, c := range SlashCommands {
			parts = append(parts, c.Usage)
		}
		m.statusMsg = styles.RenderInfo(strings.Join(parts, "  "))
		return m, nil

	case "/quit", "/exit":
		m.quitting = true
		m.cancel()
		return m, tea.Quit
	}

	m.statusMsg = styles.RenderWarning("Unknown command " + name + " (try /help)")
	return m, nil
}

// ExpandPath resolves a leading "~/" and surrounding quotes.
func ExpandPath(p string) string {
	p = strings.Trim(p, `"'`)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
