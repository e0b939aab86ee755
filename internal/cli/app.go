// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Command dispatch and shared wiring.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jeranaias/analyst-tui/internal/backend"
	"github.com/jeranaias/analyst-tui/internal/config"
	"github.com/jeranaias/analyst-tui/internal/feedback"
	"github.com/jeranaias/analyst-tui/internal/history"
	"github.com/jeranaias/analyst-tui/internal/session"
	"github.com/jeranaias/analyst-tui/internal/storage"
	"github.com/jeranaias/analyst-tui/internal/ui/components"
)

// Backend is the engine API used by the commands.
type Backend interface {
	Chat(ctx context.Context, question string) (*backend.ChatResponse, error)
	Ingest(ctx context.Context, items []feedback.Item) (*backend.IngestSummary, error)
	Health(ctx context.Context) (*backend.HealthStatus, error)
	GlobalThemes(ctx context.Context) (*backend.ThemesReport, error)
}

// App runs one CLI command.
type App struct {
	Args   Args
	Config *config.Config

	// ConfigPath is the file the configuration was loaded from.
	ConfigPath string

	Stdout io.Writer
	Stderr io.Writer

	// Interactive reports whether prompts and the TUI are possible.
	Interactive bool

	// NewBackend builds the engine client. Defaults to a client for
	// Config.Client.ProxyURL.
	NewBackend func(cfg *config.Config) Backend

	// OpenPersister opens history storage. Defaults to storage.Open.
	OpenPersister func(cfg *config.Config) (storage.Persister, error)

	// Prompt answers confirmations. Defaults to SurveyPrompter.
	Prompt Prompter

	// Sleep replaces retry and stage delays. Defaults to real sleeping.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewApp loads the configuration for args and wires the defaults.
func NewApp(args Args) (*App, error) {
	path := args.ConfigPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	return &App{
		Args:        args,
		Config:      cfg,
		ConfigPath:  path,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Interactive: IsTTY(),
	}, nil
}

// Run executes the parsed command.
func (a *App) Run(ctx context.Context) error {
	a.setupLogging()

	switch a.Args.Command {
	case CmdTUI:
		return a.runTUI(ctx)
	case CmdChat:
		return a.runChat(ctx)
	case CmdAsk:
		return a.runAsk(ctx)
	case CmdIngest:
		return a.runIngest(ctx)
	case CmdServe:
		return a.runServe(ctx)
	case CmdStatus:
		return a.runStatus(ctx)
	case CmdThemes:
		return a.runThemes(ctx)
	case CmdHistory:
		return a.runHistory(ctx)
	case CmdConfig:
		return a.runConfig()
	case CmdVersion:
		if a.Args.JSON {
			return NewJSONResponse("version", CurrentVersion()).Write(a.Stdout)
		}
		PrintVersion(a.Stdout)
		return nil
	default:
		PrintUsage(a.Stdout)
		return nil
	}
}

// setupLogging sends log output to stderr for serve and --verbose, and
// discards it otherwise. The TUI redirects it to a file itself.
func (a *App) setupLogging() {
	switch {
	case a.Args.Command == CmdServe || a.Args.Verbose:
		log.SetOutput(a.Stderr)
	default:
		log.SetOutput(io.Discard)
	}
}

// =============================================================================
// SHARED WIRING
// =============================================================================

func (a *App) backend() Backend {
	if a.NewBackend != nil {
		return a.NewBackend(a.Config)
	}
	return backend.NewClient(a.Config.Client.ProxyURL).
		WithToken(a.Config.Proxy.Token).
		WithVerbose(a.Args.Verbose)
}

// openStore opens history storage. The returned close function releases the
// persister.
func (a *App) openStore(opts ...history.Option) (*history.Store, func(), error) {
	open := a.OpenPersister
	if open == nil {
		open = func(cfg *config.Config) (storage.Persister, error) {
			return storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
		}
	}
	p, err := open(a.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}

	base := []history.Option{history.WithPersistEmpty(a.Config.History.PersistEmpty)}
	store := history.New(p, append(base, opts...)...)
	closeFn := func() {
		if err := p.Close(); err != nil {
			log.Printf("HISTORY_CLOSE_FAILED | err=%v", err)
		}
	}
	return store, closeFn, nil
}

func (a *App) controller(store *history.Store, b Backend) *session.Controller {
	opts := []session.Option{session.WithRetryPolicy(session.RetryPolicy{
		MaxRetries: a.Config.Client.MaxRetries,
		BaseDelay:  a.Config.RetryBase(),
		MaxDelay:   a.Config.RetryMax(),
	})}
	if a.Sleep != nil {
		opts = append(opts, session.WithSleep(a.Sleep))
	}
	return session.NewController(store, b, opts...)
}

// markdown renders reply text for stdout.
func (a *App) markdown() *components.MarkdownRenderer {
	return components.NewMarkdownRenderer(MarkdownStyle(), a.Config.UI.Markdown && ColorsEnabled())
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.Stdout, format, args...)
}

func (a *App) println(args ...interface{}) {
	fmt.Fprintln(a.Stdout, args...)
}
