// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/analyst-tui/internal/backend"
	"github.com/jeranaias/analyst-tui/internal/feedback"
	"github.com/jeranaias/analyst-tui/internal/history"
	"github.com/jeranaias/analyst-tui/internal/model"
)

type fakeIngester struct {
	mu      sync.Mutex
	calls   int
	items   []feedback.Item
	err     error
	block   chan struct{}
	summary *backend.IngestSummary
}

func (f *fakeIngester) Ingest(ctx context.Context, items []feedback.Item) (*backend.IngestSummary, error) {
	f.mu.Lock()
	f.calls++
	f.items = items
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.summary != nil {
		return f.summary, nil
	}
	return &backend.IngestSummary{Status: "success", ProcessedChunks: len(items)}, nil
}

func (f *fakeIngester) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type stageRecorder struct {
	mu     sync.Mutex
	stages []Stage
}

func (r *stageRecorder) observe(s Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, s)
}

func (r *stageRecorder) Stages() []Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Stage(nil), r.stages...)
}

func newTestPipeline(ing Ingester) (*Pipeline, *history.Store, *stageRecorder) {
	store := history.New(&history.MemoryPersister{})
	rec := &stageRecorder{}
	p := NewPipeline(ing, store, WithTimings(Timings{}), WithObserver(rec.observe))
	return p, store, rec
}

func systemMessages(conv *model.Conversation) []string {
	var out []string
	for _, m := range conv.Messages {
		if m.Role == model.RoleSystem {
			out = append(out, m.Content)
		}
	}
	return out
}

func items(n int) []feedback.Item {
	out := make([]feedback.Item, n)
	for i := range out {
		out[i] = feedback.Item{Source: feedback.DefaultSource, Content: "x", Rating: feedback.DefaultRating}
	}
	return out
}

// =============================================================================
// STATE MACHINE
// =============================================================================

func TestRun_SuccessStageOrder(t *testing.T) {
	ing := &fakeIngester{}
	p, store, rec := newTestPipeline(ing)
	id := store.CreateNewConversation()

	summary, err := p.Run(context.Background(), id, items(3))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ProcessedChunks)

	assert.Equal(t, []Stage{StageParsing, StageUploading, StageAnalyzing, StageComplete, StageNone}, rec.Stages())
	assert.Equal(t, StageNone, p.Stage())
	assert.Equal(t, []string{CompleteMessage(3)}, systemMessages(store.Get(id)))
	assert.Contains(t, CompleteMessage(3), "Processed **3** feedback items")
}

func TestRun_FailureClearsWithoutComplete(t *testing.T) {
	ing := &fakeIngester{err: &backend.APIError{Status: 500}}
	p, store, rec := newTestPipeline(ing)
	id := store.CreateNewConversation()

	_, err := p.Run(context.Background(), id, items(2))
	require.Error(t, err)
	var apiErr *backend.APIError
	assert.True(t, errors.As(err, &apiErr))

	stages := rec.Stages()
	assert.NotContains(t, stages, StageComplete)
	assert.Equal(t, StageNone, stages[len(stages)-1])
	assert.Equal(t, []string{MsgUploadFailed}, systemMessages(store.Get(id)))
	assert.Equal(t, 1, ing.Calls(), "uploads are not retried")
}

func TestRun_StagesAreMonotonic(t *testing.T) {
	for _, fail := range []bool{false, true} {
		ing := &fakeIngester{}
		if fail {
			ing.err = errors.New("boom")
		}
		p, store, rec := newTestPipeline(ing)
		p.Run(context.Background(), store.CreateNewConversation(), items(1))

		prev := StageNone
		for _, s := range rec.Stages() {
			if s == StageNone {
				prev = StageNone
				continue
			}
			assert.Greater(t, int(s), int(prev), "stage regressed: %v", rec.Stages())
			prev = s
		}
	}
}

func TestRun_UsesTimings(t *testing.T) {
	var slept []time.Duration
	var mu sync.Mutex
	sleep := func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		slept = append(slept, d)
		mu.Unlock()
		return nil
	}
	store := history.New(&history.MemoryPersister{})
	p := NewPipeline(&fakeIngester{}, store, WithSleep(sleep))

	_, err := p.Run(context.Background(), store.CreateNewConversation(), items(1))
	require.NoError(t, err)

	d := DefaultTimings()
	assert.Equal(t, []time.Duration{d.ParsePause, d.AnalysisDelay, d.CompleteHold, d.ClearDelay}, slept)
}

func TestRun_RejectsConcurrentUpload(t *testing.T) {
	ing := &fakeIngester{block: make(chan struct{})}
	p, store, _ := newTestPipeline(ing)
	id := store.CreateNewConversation()

	errc := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), id, items(1))
		errc <- err
	}()

	require.Eventually(t, func() bool { return ing.Calls() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, p.Running())

	_, err := p.Run(context.Background(), id, items(1))
	assert.ErrorIs(t, err, ErrUploadInProgress)

	close(ing.block)
	require.NoError(t, <-errc)
	assert.False(t, p.Running())
}

func TestRun_ContextCanceledWhileWaiting(t *testing.T) {
	ing := &fakeIngester{block: make(chan struct{})}
	defer close(ing.block)
	p, store, rec := newTestPipeline(ing)
	id := store.CreateNewConversation()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for ing.Calls() == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	_, err := p.Run(ctx, id, items(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, rec.Stages(), StageComplete)
	assert.Equal(t, []string{MsgUploadFailed}, systemMessages(store.Get(id)))
}

// =============================================================================
// CALLER BOUNDARY
// =============================================================================

func TestUploadReader_NoValidRows(t *testing.T) {
	ing := &fakeIngester{}
	p, store, rec := newTestPipeline(ing)

	_, err := p.UploadReader(context.Background(), "empty.csv", strings.NewReader("text\nhello\n"))
	assert.ErrorIs(t, err, ErrNoValidRows)
	assert.Equal(t, 0, ing.Calls())
	assert.Empty(t, rec.Stages())

	conv := store.CurrentConversation()
	require.NotNil(t, conv)
	assert.Equal(t, []string{UploadingMessage("empty.csv"), MsgNoValidRows}, systemMessages(conv))
}

func TestUploadReader_ParseError(t *testing.T) {
	ing := &fakeIngester{}
	p, store, _ := newTestPipeline(ing)

	_, err := p.UploadReader(context.Background(), "bad.csv", strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, 0, ing.Calls())
	assert.Equal(t, []string{UploadingMessage("bad.csv"), MsgParseFailed}, systemMessages(store.CurrentConversation()))
}

func TestUploadReader_Success(t *testing.T) {
	ing := &fakeIngester{}
	p, store, _ := newTestPipeline(ing)

	csv := "content,rating\nslow checkout,2\n,5\nnice ui,5\n"
	_, err := p.UploadReader(context.Background(), "reviews.csv", strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, ing.items, 2)
	assert.Equal(t, "slow checkout", ing.items[0].Content)
	assert.Equal(t, []string{UploadingMessage("reviews.csv"), CompleteMessage(2)}, systemMessages(store.CurrentConversation()))
}

func TestUploadFile_Missing(t *testing.T) {
	p, store, _ := newTestPipeline(&fakeIngester{})

	_, err := p.UploadFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Equal(t, []string{UploadingMessage("nope.csv"), MsgParseFailed}, systemMessages(store.CurrentConversation()))
}

func TestStageLabels(t *testing.T) {
	want := []string{"Parsing CSV", "Uploading", "RLM Analysis", "Graph Storage"}
	for i, s := range Stages {
		assert.Equal(t, want[i], s.Label())
		assert.True(t, s.Active())
	}
	assert.False(t, StageNone.Active())
}
