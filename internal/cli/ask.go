// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot questions and CSV ingestion from the command line.
package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jeranaias/analyst-tui/internal/backend"
	"github.com/jeranaias/analyst-tui/internal/ui/components"
	"github.com/jeranaias/analyst-tui/internal/upload"
	"github.com/jeranaias/analyst-tui/internal/util"
)

// =============================================================================
// ASK
// =============================================================================

// runAsk sends one question in the current conversation and prints the
// reply. The exchange is saved like any other.
func (a *App) runAsk(ctx context.Context) error {
	store, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	res := a.controller(store, a.backend()).Send(ctx, a.Args.Query)

	if a.Args.JSON {
		data := AskData{
			ConversationID: res.ConversationID,
			Question:       a.Args.Query,
			Reply:          res.Reply.Content,
			Attempts:       res.Attempts,
		}
		if res.Err != nil {
			return NewCommandError("ask", "send", res.Err)
		}
		return NewJSONResponse("ask", data).Write(a.Stdout)
	}

	a.println(a.markdown().Render(res.Reply.Content, TerminalWidth()))
	if res.Err != nil {
		return NewCommandError("ask", "send", fmt.Errorf("after %d %s: %w",
			res.Attempts, util.Plural(res.Attempts, "attempt"), res.Err))
	}
	return nil
}

// =============================================================================
// INGEST
// =============================================================================

// runIngest uploads a CSV through the same staged pipeline as the TUI and
// prints each stage as it is reached.
func (a *App) runIngest(ctx context.Context) error {
	store, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	parse, analysis, hold, _ := a.Config.UploadDelays()
	opts := []upload.Option{
		upload.WithTimings(upload.Timings{
			ParsePause:    parse,
			AnalysisDelay: analysis,
			CompleteHold:  hold,
		}),
		upload.WithObserver(a.printStage),
	}
	if a.Sleep != nil {
		opts = append(opts, upload.WithSleep(a.Sleep))
	}
	pipeline := upload.NewPipeline(a.backend(), store, opts...)

	start := time.Now()
	summary, err := pipeline.UploadFile(ctx, a.Args.File)
	if err != nil {
		return NewCommandError("ingest", filepath.Base(a.Args.File), err)
	}

	if a.Args.JSON {
		return NewJSONResponse("ingest", summary).Write(a.Stdout)
	}

	if conv := store.CurrentConversation(); conv != nil {
		if last, ok := conv.LastMessage(); ok {
			a.println(SuccessStyle.Render(last.Content))
		}
	}
	a.println(DimStyle.Render(fmt.Sprintf("Finished in %s", time.Since(start).Round(time.Millisecond))))
	if body := summaryJSON(summary); len(body) > 0 {
		a.println()
		if ColorsEnabled() {
			a.println(components.HighlightJSON(body))
		} else {
			a.println(string(body))
		}
	}
	return nil
}

// printStage is the pipeline observer for the CLI.
func (a *App) printStage(s upload.Stage) {
	if a.Args.JSON || !s.Active() {
		return
	}
	fmt.Fprintf(a.Stderr, "%s [%d/%d] %s\n",
		WarningStyle.Render("[*]"), int(s)+1, len(upload.Stages), s.Label())
}

// summaryJSON returns the engine's answer as received, or the typed summary
// re-encoded when the raw body is unavailable.
func summaryJSON(summary *backend.IngestSummary) []byte {
	if summary == nil {
		return nil
	}
	if len(summary.Raw) > 0 {
		return indentRaw(summary.Raw)
	}
	body, err := jsonIndent(summary)
	if err != nil {
		return nil
	}
	return body
}
