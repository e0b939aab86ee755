// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea model for the analyst TUI.

The screen has a conversation sidebar on the left and the current
conversation on the right, with the upload progress, the "Thinking..."
indicator and the input line underneath. All state lives in the history
store; the model only re-reads it whenever the store reports a change or a
background command finishes.

# Key Components

## Model (model.go)

Owns the session controller, the upload pipeline and the UI components.
Network calls and pipeline delays run as tea.Cmd values off the update loop.

## Update (update.go)

Key handling, store change notifications, stage transitions from the
pipeline observer, and chat replies.

## Commands (commands.go)

Slash commands typed into the input: /new, /delete, /switch N,
/upload FILE, /help, /quit.

## View (view.go)

Header, sidebar, messages viewport, progress, status bar.

# Usage

	notify, changes := chat.NewChangeNotifier()
	store := history.New(persister, history.WithOnChange(notify))
	m := chat.New(chat.Deps{Store: store, Backend: client, Config: cfg, Changes: changes})
	tea.NewProgram(m, tea.WithAltScreen()).Run()
*/
package chat
