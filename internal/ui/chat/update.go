// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/analyst-tui/internal/session"
	"github.com/jeranaias/analyst-tui/internal/ui/components"
	"github.com/jeranaias/analyst-tui/internal/ui/styles"
	"github.com/jeranaias/analyst-tui/internal/upload"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StoreChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case StageMsg:
		m.progress.Set(msg.Stage)
		m.layout()
		m.refresh()
		return m, waitForStage(m.stages)

	case session.ReplyMsg:
		return m.handleReply(msg), nil

	case UploadDoneMsg:
		return m.handleUploadDone(msg), nil

	case HealthMsg:
		if msg.Err != nil {
			m.engineState = "engine offline"
			log.Printf("ENGINE_HEALTH_FAILED | err=%v", msg.Err)
		} else if msg.Status != nil && msg.Status.Status != "" {
			m.engineState = msg.Status.Status
		} else {
			m.engineState = "engine online"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.thinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.quitting = true
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.NewChat):
		m.newChat()
		return m, nil

	case key.Matches(msg, m.keyMap.PrevChat):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keyMap.NextChat):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp), key.Matches(msg, m.keyMap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input as a question or runs it as a slash command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.runCommand(text)
	}
	if m.thinking {
		m.statusMsg = "Waiting for the analyst to answer..."
		return m, nil
	}

	m.input.Reset()
	m.thinking = true
	m.statusMsg = ""
	m.layout()
	return m, tea.Batch(m.controller.SendCmd(m.ctx, text), m.spinner.Tick)
}

// =============================================================================
// RESULTS
// =============================================================================

func (m Model) handleReply(msg session.ReplyMsg) Model {
	m.thinking = false
	if msg.Result.Err != nil {
		m.statusMsg = styles.RenderError(fmt.Sprintf("Chat failed after %d attempt(s)", msg.Result.Attempts))
	}
	m.layout()
	m.refresh()
	return m
}

func (m Model) handleUploadDone(msg UploadDoneMsg) Model {
	m.uploading = false
	name := filepath.Base(msg.File)
	switch {
	case msg.Err == nil:
		chunks := 0
		if msg.Summary != nil {
			chunks = msg.Summary.ProcessedChunks
		}
		m.statusMsg = styles.RenderSuccess(fmt.Sprintf("Uploaded %s (%d chunks)", name, chunks))
	case errors.Is(msg.Err, upload.ErrUploadInProgress):
		m.statusMsg = styles.RenderWarning(msg.Err.Error())
	default:
		m.statusMsg = styles.RenderError("Upload of " + name + " failed")
	}
	m.layout()
	m.refresh()
	return m
}

// =============================================================================
// CONVERSATION SELECTION
// =============================================================================

func (m *Model) newChat() {
	m.store.CreateNewConversation()
	m.statusMsg = ""
	m.refresh()
}

// moveSelection selects the conversation delta rows away in the sidebar.
func (m *Model) moveSelection(delta int) {
	convs := m.store.Conversations()
	if len(convs) == 0 {
		return
	}
	idx := m.store.IndexOf(m.store.CurrentConversationID())
	next := idx + delta
	if idx < 0 {
		next = 0
	}
	if next < 0 {
		next = 0
	}
	if next >= len(convs) {
		next = len(convs) - 1
	}
	m.store.SetCurrentConversationID(convs[next].ID)
	m.refresh()
}

// =============================================================================
// LAYOUT AND REFRESH
// =============================================================================

// mainWidth is the width of the conversation pane.
func (m *Model) mainWidth() int {
	return m.width - m.visibleSidebarWidth()
}

// visibleSidebarWidth hides the sidebar on narrow terminals.
func (m *Model) visibleSidebarWidth() int {
	if m.width < m.sidebarWidth+40 {
		return 0
	}
	return m.sidebarWidth
}

// layout sizes the viewport around the fixed rows.
func (m *Model) layout() {
	w := m.mainWidth()
	m.progress.Width = w - 1
	m.progress.Compact = w < 50

	fixed := 1 + 1 + 2 // header, status bar, input with border
	if m.progress.Visible() {
		fixed += strings.Count(m.progress.View(), "\n") + 1
	}
	if m.thinking {
		fixed++
	}

	m.viewport.Width = w
	m.viewport.Height = m.height - fixed
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.input.Width = w - 4

	m.sidebar.Width = m.sidebarWidth
	m.sidebar.Height = m.height - 2
}

// refresh re-reads the store into the sidebar and the viewport.
func (m *Model) refresh() {
	current := m.store.CurrentConversationID()
	m.sidebar.SetConversations(m.store.Conversations(), current)

	conv := m.store.CurrentConversation()
	if conv == nil {
		m.viewport.SetContent(m.theme.InputDisabled.Render(NoConversationText))
		return
	}
	m.viewport.SetContent(components.RenderConversation(conv.Messages, m.mainWidth()-1, m.theme, m.markdown))
	m.viewport.GotoBottom()
}
