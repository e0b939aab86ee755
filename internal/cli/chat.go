// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat with input history.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/analyst-tui/internal/config"
	"github.com/jeranaias/analyst-tui/internal/history"
	"github.com/jeranaias/analyst-tui/internal/model"
	"github.com/jeranaias/analyst-tui/internal/session"
	"github.com/jeranaias/analyst-tui/internal/storage"
	"github.com/jeranaias/analyst-tui/internal/ui/chat"
	"github.com/jeranaias/analyst-tui/internal/ui/components"
	"github.com/jeranaias/analyst-tui/internal/upload"
)

// InputHistoryFile is the REPL's line history, next to the config file.
const InputHistoryFile = "input_history"

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads prompted lines.
type LineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a liner-backed reader and loads the saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, InputHistoryFile)}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// Prompt reads one line. Non-empty input is added to the history.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history (0600) and restores the terminal.
func (c *ChatCLI) Close() error {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			if _, err := c.line.WriteHistory(f); err != nil {
				log.Printf("CHAT_HISTORY_SAVE_FAILED | err=%v", err)
			}
			f.Close()
		}
	}
	return c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// ChatREPL is a line-mode chat session over the shared history store.
type ChatREPL struct {
	store      *history.Store
	controller *session.Controller
	pipeline   *upload.Pipeline
	markdown   *components.MarkdownRenderer
	out        io.Writer
	errOut     io.Writer
	ctx        context.Context
}

// runChat starts the REPL on the terminal.
func (a *App) runChat(ctx context.Context) error {
	store, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	reader := NewChatCLI()
	defer reader.Close()

	return a.newChatREPL(ctx, store).Run(reader)
}

func (a *App) newChatREPL(ctx context.Context, store *history.Store) *ChatREPL {
	b := a.backend()
	parse, analysis, hold, _ := a.Config.UploadDelays()
	opts := []upload.Option{
		upload.WithTimings(upload.Timings{ParsePause: parse, AnalysisDelay: analysis, CompleteHold: hold}),
		upload.WithObserver(a.printStage),
	}
	if a.Sleep != nil {
		opts = append(opts, upload.WithSleep(a.Sleep))
	}
	return &ChatREPL{
		store:      store,
		controller: a.controller(store, b),
		pipeline:   upload.NewPipeline(b, store, opts...),
		markdown:   a.markdown(),
		out:        a.Stdout,
		errOut:     a.Stderr,
		ctx:        ctx,
	}
}

// Run reads lines until /quit, EOF or Ctrl+C.
func (r *ChatREPL) Run(reader LineReader) error {
	fmt.Fprintln(r.out, TitleStyle.Render("AI Analyst")+DimStyle.Render("  /help for commands, /quit to exit"))
	r.printCurrent()

	for {
		input, err := reader.Prompt("analyst> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if !r.command(input) {
				return nil
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}
		r.ask(input)
		if r.ctx.Err() != nil {
			return nil
		}
	}
}

func (r *ChatREPL) ask(question string) {
	fmt.Fprintln(r.out, DimStyle.Render(chat.ThinkingText))
	res := r.controller.Send(r.ctx, question)
	fmt.Fprintln(r.out, r.markdown.Render(res.Reply.Content, TerminalWidth()))
}

// command runs a slash command and reports whether to keep going.
func (r *ChatREPL) command(text string) bool {
	name, arg := chat.ParseCommand(text)
	switch name {
	case "/new":
		r.store.CreateNewConversation()
		r.printCurrent()

	case "/list":
		fmt.Fprint(r.out, storage.FormatConversationList(r.store.Conversations(), r.store.CurrentConversationID()))

	case "/switch":
		convs := r.store.Conversations()
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(convs) {
			r.warn(fmt.Sprintf("Usage: /switch N (1-%d)", len(convs)))
			return true
		}
		r.store.SetCurrentConversationID(convs[n-1].ID)
		r.printCurrent()

	case "/delete":
		conv := r.store.CurrentConversation()
		if conv == nil {
			r.warn("No conversation to delete")
			return true
		}
		r.store.DeleteConversation(conv.ID)
		fmt.Fprintf(r.out, "%s Deleted %q\n", SuccessStyle.Render("[OK]"), conv.Title)

	case "/upload":
		if arg == "" {
			r.warn("Usage: /upload FILE.csv")
			return true
		}
		if _, err := r.pipeline.UploadFile(r.ctx, chat.ExpandPath(arg)); err != nil {
			fmt.Fprintf(r.errOut, "%s %v\n", ErrorStyle.Render("[FAIL]"), err)
			return true
		}
		if conv := r.store.CurrentConversation(); conv != nil {
			if last, ok := conv.LastMessage(); ok {
				fmt.Fprintln(r.out, SuccessStyle.Render(last.Content))
			}
		}

	case "/help":
		fmt.Fprintf(r.out, "  %-18s %s\n", "/list", "list conversations")
		for _, c := range chat.SlashCommands {
			fmt.Fprintf(r.out, "  %-18s %s\n", c.Usage, c.Help)
		}

	case "/quit", "/exit":
		return false

	default:
		r.warn("Unknown command " + name + " (try /help)")
	}
	return true
}

// printCurrent shows the selected conversation's messages.
func (r *ChatREPL) printCurrent() {
	conv := r.store.CurrentConversation()
	if conv == nil {
		fmt.Fprintln(r.out, DimStyle.Render("No conversation selected. Type a question to start one."))
		return
	}
	fmt.Fprintln(r.out, RenderSeparator())
	fmt.Fprintln(r.out, SectionStyle.Render(conv.Title))
	for _, msg := range conv.Messages {
		label := msg.Role.DisplayName()
		if msg.Role == model.RoleUser {
			label = PromptStyle.Render(label)
		} else {
			label = DimStyle.Render(label)
		}
		fmt.Fprintf(r.out, "%s\n%s\n", label, r.markdown.Render(msg.Content, TerminalWidth()))
	}
}

func (r *ChatREPL) warn(msg string) {
	fmt.Fprintln(r.errOut, WarningStyle.Render("[!] ")+msg)
}
