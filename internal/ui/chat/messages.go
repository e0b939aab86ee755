// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/analyst-tui/internal/backend"
	"github.com/jeranaias/analyst-tui/internal/upload"
)

// =============================================================================
// BACKGROUND MESSAGES
// =============================================================================

// StoreChangedMsg is sent when the history store reports a mutation.
type StoreChangedMsg struct{}

// StageMsg carries one upload stage transition.
type StageMsg struct {
	Stage upload.Stage
}

// UploadDoneMsg is sent when an upload finishes, successfully or not. The
// outcome is already recorded in the conversation.
type UploadDoneMsg struct {
	File    string
	Summary *backend.IngestSummary
	Err     error
}

// HealthMsg carries the result of the startup engine check.
type HealthMsg struct {
	Status *backend.HealthStatus
	Err    error
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// NewChangeNotifier returns a callback for history.WithOnChange and the
// channel the model listens on. Bursts of changes collapse into one signal.
func NewChangeNotifier() (func(), <-chan struct{}) {
	ch := make(chan struct{}, 1)
	notify := func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return notify, ch
}

// waitForChange delivers the next store change.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return StoreChangedMsg{}
	}
}

// waitForStage delivers the next pipeline stage.
func waitForStage(ch <-chan upload.Stage) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return StageMsg{Stage: s}
	}
}
