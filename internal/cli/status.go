// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Engine status and the global themes report.
package cli

import (
	"context"
	"errors"
	"time"

	"github.com/jeranaias/analyst-tui/internal/backend"
	"github.com/jeranaias/analyst-tui/internal/storage"
)

// StatusTimeout bounds the health probe.
const StatusTimeout = 5 * time.Second

// =============================================================================
// STATUS
// =============================================================================

// runStatus probes the proxy health route. A non-2xx answer means the proxy
// is up and the engine is not; a transport failure means the proxy is down.
func (a *App) runStatus(ctx context.Context) error {
	data := StatusData{
		ProxyURL:  a.Config.Client.ProxyURL,
		EngineURL: a.Config.Engine.URL,
		Storage:   a.Config.Storage.Backend,
	}
	data.StoragePath = a.Config.Storage.Path
	if data.StoragePath == "" {
		data.StoragePath, _ = storage.DefaultPath(data.Storage)
	}

	hctx, cancel := context.WithTimeout(ctx, StatusTimeout)
	defer cancel()
	health, err := a.backend().Health(hctx)

	var apiErr *backend.APIError
	switch {
	case err == nil:
		data.ProxyOK, data.EngineOK = true, true
		if health != nil {
			data.EngineStatus = health.Status
		}
	case errors.As(err, &apiErr):
		data.ProxyOK = true
		data.EngineError = apiErr.Message()
		if data.EngineError == "" {
			data.EngineError = apiErr.Error()
		}
	default:
		data.EngineError = err.Error()
	}

	if store, closeStore, serr := a.openStore(); serr == nil {
		data.Conversations = store.Len()
		closeStore()
	}

	var failure error
	if !data.EngineOK {
		failure = NewCommandError("status", "health", err)
	}

	if a.Args.JSON {
		if werr := NewJSONResponse("status", data).Write(a.Stdout); werr != nil {
			return werr
		}
		if failure != nil {
			return &ReportedError{Err: failure}
		}
		return nil
	}

	a.println(TitleStyle.Render("AI Analyst Status"))
	a.println(RenderSeparator())
	a.println(RenderField("Proxy", RenderStatus(data.ProxyOK)+" "+data.ProxyURL))
	engine := RenderStatus(data.EngineOK) + " " + data.EngineURL
	if data.EngineStatus != "" {
		engine += DimStyle.Render(" (" + data.EngineStatus + ")")
	}
	a.println(RenderField("Engine", engine))
	if data.EngineError != "" {
		a.println(RenderField("", WarningStyle.Render(data.EngineError)))
	}
	a.println(RenderField("Storage", data.Storage+" "+DimStyle.Render(data.StoragePath)))
	a.println(RenderField("History", pluralConversations(data.Conversations)))

	return failure
}

// =============================================================================
// THEMES
// =============================================================================

// runThemes prints the engine's cross-batch theme report.
func (a *App) runThemes(ctx context.Context) error {
	report, err := a.backend().GlobalThemes(ctx)
	if err != nil {
		return NewCommandError("themes", "fetch", err)
	}

	if a.Args.JSON {
		return NewJSONResponse("themes", report).Write(a.Stdout)
	}

	text := report.Text()
	if text == "" {
		a.println(DimStyle.Render("No themes reported yet. Upload feedback with: analyst ingest FILE.csv"))
		return nil
	}
	a.println(TitleStyle.Render("Global Themes"))
	a.println(a.markdown().Render(text, TerminalWidth()))
	return nil
}
