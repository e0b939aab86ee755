// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual pieces of the analyst TUI.

Components are plain structs with a View method; the chat model owns them and
feeds them state from the history store and the upload pipeline.

# Components

	Sidebar        (sidebar.go)  - conversation list with current highlight and count footer
	MessageBubble  (message.go)  - one message, markdown for analyst replies
	StageProgress  (progress.go) - four-step upload indicator
	MarkdownRenderer (markdown.go) - glamour wrapper cached per width
	Highlight      (highlight.go) - chroma colouring for JSON output

# Usage

	sb := components.NewSidebar(theme, 28)
	sb.SetConversations(store.Conversations(), store.CurrentConversationID())
	left := sb.View()
*/
package components
