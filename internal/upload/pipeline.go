// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/jeranaias/analyst-tui/internal/backend"
	"github.com/jeranaias/analyst-tui/internal/feedback"
	"github.com/jeranaias/analyst-tui/internal/model"
	"github.com/jeranaias/analyst-tui/internal/util"
)

// System messages appended to the conversation.
const (
	MsgUploadFailed = "❌ Failed to upload file. Please check the format."
	MsgParseFailed  = "❌ Error parsing CSV file."
	MsgNoValidRows  = "⚠️ No valid rows found. CSV must have a 'content' column."
)

// CompleteMessage is appended after a successful ingest of n items.
func CompleteMessage(n int) string {
	return fmt.Sprintf("✅ RLM Analysis Complete! Processed **%d** feedback items with hierarchical understanding. "+
		"Themes identified and stored in graph. You can now ask questions!", n)
}

// UploadingMessage announces a file before it is parsed.
func UploadingMessage(name string) string {
	return fmt.Sprintf("📂 Uploading **%s**...", name)
}

var (
	// ErrNoValidRows is returned when a CSV has no row with content.
	ErrNoValidRows = errors.New("no valid rows found")

	// ErrUploadInProgress is returned when Run is called during another run.
	ErrUploadInProgress = errors.New("an upload is already in progress")
)

// Ingester sends feedback items to the engine.
type Ingester interface {
	Ingest(ctx context.Context, items []feedback.Item) (*backend.IngestSummary, error)
}

// Conversations is the part of the history store the pipeline writes to.
type Conversations interface {
	EnsureConversation() string
	AppendMessage(id string, msg model.Message) bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimings overrides the stage pacing.
func WithTimings(t Timings) Option {
	return func(p *Pipeline) { p.timings = t }
}

// WithObserver receives every stage transition, in order.
func WithObserver(fn func(Stage)) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// WithSleep replaces the context-aware sleep used between stages.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pipeline) { p.sleep = fn }
}

// Pipeline runs uploads one at a time.
type Pipeline struct {
	ingester Ingester
	convs    Conversations
	timings  Timings
	observer func(Stage)
	sleep    func(ctx context.Context, d time.Duration) error

	running atomic.Bool
	stage   atomic.Int32
}

// NewPipeline creates a pipeline that ingests through ingester and reports
// into convs.
func NewPipeline(ingester Ingester, convs Conversations, opts ...Option) *Pipeline {
	p := &Pipeline{
		ingester: ingester,
		convs:    convs,
		timings:  DefaultTimings(),
		sleep:    util.Sleep,
	}
	p.stage.Store(int32(StageNone))
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stage returns the current progress stage.
func (p *Pipeline) Stage() Stage {
	return Stage(p.stage.Load())
}

// Running reports whether an upload is in flight.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// =============================================================================
// CALLER BOUNDARY
// =============================================================================

// UploadFile parses and uploads a CSV file.
func (p *Pipeline) UploadFile(ctx context.Context, path string) (*backend.IngestSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		id := p.convs.EnsureConversation()
		p.convs.AppendMessage(id, model.SystemMessage(UploadingMessage(filepath.Base(path))))
		p.convs.AppendMessage(id, model.SystemMessage(MsgParseFailed))
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return p.UploadReader(ctx, filepath.Base(path), f)
}

// UploadReader announces name, parses r as CSV, and uploads the items.
// Parse failures and files without usable rows are reported in the
// conversation and never reach the engine.
func (p *Pipeline) UploadReader(ctx context.Context, name string, r io.Reader) (*backend.IngestSummary, error) {
	if p.running.Load() {
		return nil, ErrUploadInProgress
	}

	id := p.convs.EnsureConversation()
	p.convs.AppendMessage(id, model.SystemMessage(UploadingMessage(name)))

	items, err := feedback.Parse(r)
	if err != nil {
		log.Printf("UPLOAD_PARSE_FAILED | file=%s err=%v", name, err)
		p.convs.AppendMessage(id, model.SystemMessage(MsgParseFailed))
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if len(items) == 0 {
		p.convs.AppendMessage(id, model.SystemMessage(MsgNoValidRows))
		return nil, ErrNoValidRows
	}
	return p.Run(ctx, id, items)
}

// =============================================================================
// STATE MACHINE
// =============================================================================

// Run ingests items and drives the progress stages. Success and failure are
// both reported as a system message in conversationID. Failures are not
// retried.
func (p *Pipeline) Run(ctx context.Context, conversationID string, items []feedback.Item) (*backend.IngestSummary, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrUploadInProgress
	}
	defer p.running.Store(false)

	start := time.Now()
	log.Printf("UPLOAD_START | conversation=%s items=%d", conversationID, len(items))

	p.emit(StageParsing)
	if err := p.sleep(ctx, p.timings.ParsePause); err != nil {
		return nil, p.fail(conversationID, err)
	}

	p.emit(StageUploading)
	type result struct {
		summary *backend.IngestSummary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := p.ingester.Ingest(ctx, items)
		done <- result{summary, err}
	}()

	// Analyzing is shown after the delay even if the call already finished.
	if err := p.sleep(ctx, p.timings.AnalysisDelay); err != nil {
		return nil, p.fail(conversationID, err)
	}
	p.emit(StageAnalyzing)

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, p.fail(conversationID, ctx.Err())
	}
	if res.err != nil {
		return nil, p.fail(conversationID, res.err)
	}

	p.emit(StageComplete)
	// The ingest already succeeded; cancellation only shortens the pauses.
	_ = p.sleep(ctx, p.timings.CompleteHold)

	if res.summary == nil {
		res.summary = &backend.IngestSummary{}
	}
	p.convs.AppendMessage(conversationID, model.SystemMessage(CompleteMessage(len(items))))
	log.Printf("UPLOAD_COMPLETE | conversation=%s items=%d chunks=%d duration=%s",
		conversationID, len(items), res.summary.ProcessedChunks, time.Since(start).Round(time.Millisecond))

	_ = p.sleep(ctx, p.timings.ClearDelay)
	p.emit(StageNone)
	return res.summary, nil
}

// fail clears the indicator at once and reports the failure.
func (p *Pipeline) fail(conversationID string, err error) error {
	p.emit(StageNone)
	p.convs.AppendMessage(conversationID, model.SystemMessage(MsgUploadFailed))
	log.Printf("UPLOAD_FAILED | conversation=%s err=%v", conversationID, err)
	return fmt.Errorf("upload failed: %w", err)
}

func (p *Pipeline) emit(s Stage) {
	p.stage.Store(int32(s))
	if p.observer != nil {
		p.observer(s)
	}
}
