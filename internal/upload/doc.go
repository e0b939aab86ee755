// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload runs a feedback CSV through the engine's ingest endpoint
// while reporting a four-stage progress indicator.
//
// # Stages
//
//	None(-1) -> Parsing(0) -> Uploading(1) -> Analyzing(2) -> Complete(3) -> None
//	                                       \-> None (on failure)
//
// The stage timings are presentational pauses so each step is visible; the
// only real work is the single ingest call started on entering Uploading.
// Results are reported as system messages in the conversation that was
// current when the upload began.
//
// # Usage
//
//	p := upload.NewPipeline(client, store, upload.WithObserver(func(s upload.Stage) {
//	    program.Send(stageMsg(s))
//	}))
//	summary, err := p.UploadFile(ctx, "reviews.csv")
package upload
