// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/analyst-tui/internal/backend"
	"github.com/jeranaias/analyst-tui/internal/config"
	"github.com/jeranaias/analyst-tui/internal/history"
	"github.com/jeranaias/analyst-tui/internal/session"
	"github.com/jeranaias/analyst-tui/internal/ui/components"
	"github.com/jeranaias/analyst-tui/internal/ui/styles"
	"github.com/jeranaias/analyst-tui/internal/upload"
)

// Backend is what the chat screen needs from the engine client.
type Backend interface {
	session.Chatter
	upload.Ingester
	Health(ctx context.Context) (*backend.HealthStatus, error)
}

// Deps are the collaborators of the chat screen.
type Deps struct {
	Store   *history.Store
	Backend Backend
	Config  *config.Config

	// Theme defaults to one built from Config.UI.Theme.
	Theme *styles.Theme

	// Changes comes from NewChangeNotifier; nil disables live refresh.
	Changes <-chan struct{}

	// Context is cancelled on quit. Defaults to context.Background().
	Context context.Context

	// Sleep replaces the retry and stage delays.
	Sleep func(context.Context, time.Duration) error
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	store      *history.Store
	backend    Backend
	controller *session.Controller
	pipeline   *upload.Pipeline

	ctx    context.Context
	cancel context.CancelFunc

	changes <-chan struct{}
	stages  chan upload.Stage

	// Styling
	theme    *styles.Theme
	keyMap   KeyMap
	markdown *components.MarkdownRenderer

	// Dimensions
	width        int
	height       int
	sidebarWidth int

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	sidebar  *components.Sidebar
	progress *components.StageProgress

	// State
	thinking    bool
	uploading   bool
	engineState string
	statusMsg   string
	quitting    bool
}

// New creates the chat model. The store gets a conversation if it has none.
func New(deps Deps) Model {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := deps.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}
	parent := deps.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your feedback, or /upload file.csv"
	ti.CharLimit = 4096
	ti.PromptStyle = theme.InputPrompt
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	stages := make(chan upload.Stage, 8)

	retry := session.RetryPolicy{
		MaxRetries: cfg.Client.MaxRetries,
		BaseDelay:  cfg.RetryBase(),
		MaxDelay:   cfg.RetryMax(),
	}
	ctrlOpts := []session.Option{session.WithRetryPolicy(retry)}

	parse, analysis, hold, clearDelay := cfg.UploadDelays()
	pipeOpts := []upload.Option{
		upload.WithTimings(upload.Timings{
			ParsePause:    parse,
			AnalysisDelay: analysis,
			CompleteHold:  hold,
			ClearDelay:    clearDelay,
		}),
		upload.WithObserver(func(s upload.Stage) {
			select {
			case stages <- s:
			case <-ctx.Done():
			}
		}),
	}
	if deps.Sleep != nil {
		ctrlOpts = append(ctrlOpts, session.WithSleep(deps.Sleep))
		pipeOpts = append(pipeOpts, upload.WithSleep(deps.Sleep))
	}

	deps.Store.EnsureConversation()

	m := Model{
		store:        deps.Store,
		backend:      deps.Backend,
		controller:   session.NewController(deps.Store, deps.Backend, ctrlOpts...),
		pipeline:     upload.NewPipeline(deps.Backend, deps.Store, pipeOpts...),
		ctx:          ctx,
		cancel:       cancel,
		changes:      deps.Changes,
		stages:       stages,
		theme:        theme,
		keyMap:       DefaultKeyMap(),
		markdown:     components.NewMarkdownRenderer(theme.GlamourStyle(), cfg.UI.Markdown),
		sidebarWidth: cfg.UI.SidebarWidth,
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		sidebar:      components.NewSidebar(theme, cfg.UI.SidebarWidth),
		progress:     components.NewStageProgress(theme),
		width:        100,
		height:       30,
	}
	m.layout()
	m.refresh()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the subscriptions and the engine health check.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		waitForChange(m.changes),
		waitForStage(m.stages),
		m.checkHealth(),
	)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Thinking reports whether a chat send is pending.
func (m Model) Thinking() bool { return m.thinking }

// Uploading reports whether an upload is running.
func (m Model) Uploading() bool { return m.uploading }

// Status returns the transient status line.
func (m Model) Status() string { return m.statusMsg }

// Stage returns the stage shown by the progress indicator.
func (m Model) Stage() upload.Stage { return m.progress.Stage }

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool { return m.quitting }

// =============================================================================
// BACKGROUND COMMANDS
// =============================================================================

func (m Model) checkHealth() tea.Cmd {
	if m.backend == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		status, err := m.backend.Health(hctx)
		return HealthMsg{Status: status, Err: err}
	}
}

func (m Model) uploadCmd(path string) tea.Cmd {
	ctx := m.ctx
	pipeline := m.pipeline
	return func() tea.Msg {
		summary, err := pipeline.UploadFile(ctx, path)
		return UploadDoneMsg{File: path, Summary: summary, Err: err}
	}
}
