// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the AI Analyst engine, reached
// through the local proxy (see package proxy).
//
// The client makes exactly one request per call. Retrying is the caller's
// decision: the chat session retries, uploads do not.
//
// # Key Types
//
//   - Client: Chat, Ingest, Health and GlobalThemes against a base URL
//   - ChatResponse: answer text with the message-list fallback
//   - IngestSummary: typed view of the ingest result plus the raw JSON
//   - APIError: non-2xx answer with its status and body
//
// # Usage
//
//	client := backend.NewClient("http://127.0.0.1:3000/api")
//	resp, err := client.Chat(ctx, "What are the top complaints?")
//	if err != nil {
//	    var apiErr *backend.APIError
//	    if errors.As(err, &apiErr) && apiErr.ServerFault() {
//	        // engine busy
//	    }
//	    return err
//	}
//	fmt.Println(resp.Text())
package backend
