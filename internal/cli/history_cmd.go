// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - Conversation history management.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/analyst-tui/internal/history"
	"github.com/jeranaias/analyst-tui/internal/storage"
	"github.com/jeranaias/analyst-tui/internal/ui/chat"
	"github.com/jeranaias/analyst-tui/internal/ui/components"
	"github.com/jeranaias/analyst-tui/internal/util"
)

// Export formats accepted by "history export".
const (
	FormatMarkdown = "md"
	FormatJSON     = "json"
)

// runHistory dispatches the history subcommands. Deletions are always
// written back, even when they leave the collection empty.
func (a *App) runHistory(ctx context.Context) error {
	store, closeStore, err := a.openStore(history.WithPersistEmpty(true))
	if err != nil {
		return err
	}
	defer closeStore()

	switch a.Args.Subcommand {
	case "list", "ls":
		return a.historyList(store)
	case "show":
		return a.historyShow(store)
	case "delete", "rm":
		return a.historyDelete(store)
	case "clear", "delete-all":
		return a.historyClear(store)
	case "export":
		return a.historyExport(store)
	default:
		return NewUsageError("history "+a.Args.Subcommand, "analyst history list|show REF|delete REF|clear|export REF")
	}
}

func pluralConversations(n int) string {
	return fmt.Sprintf("%d %s", n, util.Plural(n, "conversation"))
}

func (a *App) historyList(store *history.Store) error {
	convs := store.Conversations()
	current := store.CurrentConversationID()

	if a.Args.JSON {
		rows := make([]ConversationSummary, 0, len(convs))
		for _, c := range convs {
			rows = append(rows, ConversationSummary{
				ID:        c.ID,
				Title:     c.Title,
				Messages:  len(c.Messages),
				UpdatedAt: c.UpdatedAt,
				Current:   c.ID == current,
			})
		}
		return NewJSONResponse("history list", rows).Write(a.Stdout)
	}

	a.printf("%s", storage.FormatConversationList(convs, current))
	return nil
}

// lookup resolves the REF argument.
func (a *App) lookup(store *history.Store, action string) (string, error) {
	if a.Args.Target == "" {
		return "", NewUsageError("history "+action, "analyst history "+action+" REF")
	}
	conv, err := storage.Find(store.Conversations(), a.Args.Target)
	if err != nil {
		return "", err
	}
	return conv.ID, nil
}

func (a *App) historyShow(store *history.Store) error {
	id, err := a.lookup(store, "show")
	if err != nil {
		return err
	}
	conv := store.Get(id)

	if a.Args.JSON {
		return NewJSONResponse("history show", conv).Write(a.Stdout)
	}
	a.println(a.markdown().Render(storage.ExportMarkdown(*conv), TerminalWidth()))
	return nil
}

func (a *App) confirmOpts() ConfirmationOptions {
	return ConfirmationOptions{
		ConfirmFlag: a.Args.Confirm,
		JSONMode:    a.Args.JSON,
		Interactive: a.Interactive,
	}
}

func (a *App) historyDelete(store *history.Store) error {
	id, err := a.lookup(store, "delete")
	if err != nil {
		return err
	}
	title := store.Get(id).Title

	if err := RequireConfirmation(fmt.Sprintf("delete %q", title), a.confirmOpts(), a.Prompt); err != nil {
		return a.cancelled(err)
	}
	store.DeleteConversation(id)

	if a.Args.JSON {
		return NewJSONResponse("history delete", map[string]string{"id": id}).Write(a.Stdout)
	}
	a.printf("%s Deleted %q\n", SuccessStyle.Render("[OK]"), title)
	return nil
}

func (a *App) historyClear(store *history.Store) error {
	n := store.Len()
	if n == 0 {
		if a.Args.JSON {
			return NewJSONResponse("history clear", map[string]int{"deleted": 0}).Write(a.Stdout)
		}
		a.println("No conversations yet.")
		return nil
	}

	if err := RequireConfirmation("delete "+pluralConversations(n), a.confirmOpts(), a.Prompt); err != nil {
		return a.cancelled(err)
	}
	for _, c := range store.Conversations() {
		store.DeleteConversation(c.ID)
	}

	if a.Args.JSON {
		return NewJSONResponse("history clear", map[string]int{"deleted": n}).Write(a.Stdout)
	}
	a.printf("%s Deleted %s\n", SuccessStyle.Render("[OK]"), pluralConversations(n))
	return nil
}

// cancelled reports a declined confirmation and passes other errors on.
func (a *App) cancelled(err error) error {
	if errors.Is(err, ErrCancelled) && !a.Args.JSON {
		a.println("Cancelled.")
	}
	return err
}

func (a *App) historyExport(store *history.Store) error {
	id, err := a.lookup(store, "export")
	if err != nil {
		return err
	}
	conv := *store.Get(id)

	format := strings.ToLower(a.Args.Option("format", FormatMarkdown))
	var body []byte
	switch format {
	case FormatMarkdown, "markdown":
		body = []byte(storage.ExportMarkdown(conv))
	case FormatJSON:
		body, err = storage.ExportJSON(conv)
		if err != nil {
			return NewCommandError("history", "export", err)
		}
		body = append(body, '\n')
	default:
		return NewUsageError("history export --format "+format, "--format md|json")
	}

	if out := a.Args.Option("output", ""); out != "" {
		if err := util.AtomicWriteFile(chat.ExpandPath(out), body, 0600); err != nil {
			return NewCommandError("history", "export", err)
		}
		if !a.Args.JSON {
			a.printf("%s Exported %q to %s\n", SuccessStyle.Render("[OK]"), conv.Title, out)
		}
		return nil
	}

	if format == FormatJSON && ColorsEnabled() {
		a.println(components.HighlightJSON(body))
		return nil
	}
	_, err = a.Stdout.Write(body)
	return err
}
