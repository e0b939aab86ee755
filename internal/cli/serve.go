// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - The local proxy command.
package cli

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"time"

	"github.com/jeranaias/analyst-tui/internal/proxy"
)

// ShutdownTimeout bounds graceful proxy shutdown.
const ShutdownTimeout = 5 * time.Second

// runServe runs the proxy until ctx is cancelled. Edits to the config file
// are applied while running.
func (a *App) runServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.Proxy.Listen)
	if err != nil {
		return NewCommandError("serve", "listen", err)
	}
	return a.serve(ctx, proxy.NewServer(a.Config), ln)
}

func (a *App) serve(ctx context.Context, srv *proxy.Server, ln net.Listener) error {
	if _, err := os.Stat(a.ConfigPath); err == nil {
		watcher, err := srv.WatchConfig(a.ConfigPath)
		if err != nil {
			log.Printf("CONFIG_WATCH_FAILED | path=%s err=%v", a.ConfigPath, err)
		} else {
			defer watcher.Close()
		}
	}

	if !a.Args.JSON {
		a.printf("%s Proxy listening on http://%s/api -> %s\n",
			SuccessStyle.Render("[OK]"), ln.Addr(), srv.EngineURL())
		a.println(DimStyle.Render("Press Ctrl+C to stop."))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return NewCommandError("serve", "run", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return NewCommandError("serve", "shutdown", err)
	}
	ln.Close()
	if err := <-errCh; err != nil && !errors.Is(err, net.ErrClosed) {
		return NewCommandError("serve", "run", err)
	}
	return nil
}
