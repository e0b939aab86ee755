// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package proxy is the local same-origin HTTP proxy in front of the AI engine.
//
// The terminal client never talks to the engine directly. It calls the
// proxy's /api routes, which forward each request to the engine and hand the
// engine's JSON back unchanged. Failures reaching the engine collapse into a
// single 500 response so the client can treat them as server faults.
//
// # Routes
//
//	POST /api/chat           -> POST /chat
//	POST /api/ingest         -> POST /ingest
//	GET  /api/health         -> GET  /
//	GET  /api/global-themes  -> GET  /global-themes
//
// # Middleware
//
// Requests pass through panic recovery, security headers, request IDs,
// request logging, per-client rate limiting and (when a token is configured)
// bearer authentication.
//
// # Usage
//
//	srv := proxy.NewServer(cfg)
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package proxy
