// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - The full-screen chat interface.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/analyst-tui/internal/history"
	"github.com/jeranaias/analyst-tui/internal/storage"
	"github.com/jeranaias/analyst-tui/internal/ui/chat"
	"github.com/jeranaias/analyst-tui/internal/ui/styles"
)

// LogFileName is the TUI's log file under the data directory.
const LogFileName = "analyst.log"

// runTUI runs the Bubble Tea chat screen. Logging goes to a file so it
// doesn't corrupt the screen.
func (a *App) runTUI(ctx context.Context) error {
	if !a.Interactive {
		return &TTYRequiredError{Operation: "start the TUI"}
	}

	if closeLog, err := redirectLog(); err != nil {
		fmt.Fprintf(a.Stderr, "%s logging disabled: %v\n", WarningStyle.Render("[!]"), err)
	} else {
		defer closeLog()
	}

	notify, changes := chat.NewChangeNotifier()
	store, closeStore, err := a.openStore(history.WithOnChange(notify))
	if err != nil {
		return err
	}
	defer closeStore()

	m := chat.New(chat.Deps{
		Store:   store,
		Backend: a.backend(),
		Config:  a.Config,
		Theme:   styles.NewTheme(a.Config.UI.Theme),
		Changes: changes,
		Context: ctx,
		Sleep:   a.Sleep,
	})

	log.Printf("TUI_START | conversations=%d storage=%s", store.Len(), a.Config.Storage.Backend)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	log.Printf("TUI_EXIT | conversations=%d", store.Len())
	return nil
}

// redirectLog appends log output to ~/.analyst/analyst.log.
func redirectLog() (func(), error) {
	dir, err := storage.DataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	return func() { f.Close() }, nil
}
