// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/analyst-tui/internal/backend"
	"github.com/jeranaias/analyst-tui/internal/model"
	"github.com/jeranaias/analyst-tui/internal/util"
)

// Replies used when the engine could not answer.
const (
	MsgEngineBusy       = "The AI Engine is currently processing. Please try again in a moment."
	MsgConnectionFailed = "Sorry, I encountered an error connecting to the AI Engine."
)

// Chatter asks the engine a question.
type Chatter interface {
	Chat(ctx context.Context, question string) (*backend.ChatResponse, error)
}

// Conversations is the part of the history store the controller writes to.
type Conversations interface {
	EnsureConversation() string
	AppendMessage(id string, msg model.Message) bool
}

// =============================================================================
// RETRY POLICY
// =============================================================================

// RetryPolicy bounds chat retries. Delay before retry i (0-based) is
// min(BaseDelay * 2^i, MaxDelay).
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy retries twice, after 1s and 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   3 * time.Second,
	}
}

// Delay returns the wait before retry attempt (0-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Result describes one completed send.
type Result struct {
	ConversationID string
	Reply          model.Message
	Attempts       int
	Err            error // final error when Reply is a failure notice
}

// Option configures a Controller.
type Option func(*Controller)

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Controller) { c.retry = p }
}

// WithSleep replaces the context-aware sleep between retries.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) { c.sleep = fn }
}

// Controller runs chat turns against a conversation store.
type Controller struct {
	convs   Conversations
	chat    Chatter
	retry   RetryPolicy
	sleep   func(ctx context.Context, d time.Duration) error
	pending atomic.Int32
}

// NewController creates a controller.
func NewController(convs Conversations, chat Chatter, opts ...Option) *Controller {
	c := &Controller{
		convs: convs,
		chat:  chat,
		retry: DefaultRetryPolicy(),
		sleep: util.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pending reports whether a send is in flight.
func (c *Controller) Pending() bool {
	return c.pending.Load() > 0
}

// Send appends question to the current conversation, asks the engine, and
// appends the reply. A blank question is ignored and returns a zero Result.
// The reply lands in the conversation that was current when Send began.
func (c *Controller) Send(ctx context.Context, question string) Result {
	if strings.TrimSpace(question) == "" {
		return Result{}
	}
	c.pending.Add(1)
	defer c.pending.Add(-1)

	id := c.convs.EnsureConversation()
	c.convs.AppendMessage(id, model.UserMessage(question))

	resp, attempts, err := c.ask(ctx, question)

	var reply model.Message
	if err != nil {
		reply = model.AssistantMessage(failureText(err))
		log.Printf("CHAT_FAILED | conversation=%s attempts=%d err=%v", id, attempts, err)
	} else {
		reply = model.AssistantMessage(resp.Text())
	}
	if !c.convs.AppendMessage(id, reply) {
		log.Printf("CHAT_REPLY_DROPPED | conversation=%s attempts=%d", id, attempts)
	}

	return Result{ConversationID: id, Reply: reply, Attempts: attempts, Err: err}
}

// ask calls the engine until it answers, the retries run out, or ctx ends.
func (c *Controller) ask(ctx context.Context, question string) (*backend.ChatResponse, int, error) {
	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retry.Delay(attempt - 1)
			log.Printf("CHAT_RETRY | attempt=%d delay=%s err=%v", attempt, delay, lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, attempts, lastErr
			}
		}

		attempts++
		resp, err := c.chat.Chat(ctx, question)
		if err == nil {
			return resp, attempts, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, attempts, lastErr
}

// failureText picks the reply for a send that never succeeded.
func failureText(err error) string {
	if backend.IsServerFault(err) {
		return MsgEngineBusy
	}
	return MsgConnectionFailed
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// ReplyMsg is delivered when a SendCmd finishes.
type ReplyMsg struct {
	Result Result
}

// SendCmd runs Send off the UI loop.
func (c *Controller) SendCmd(ctx context.Context, question string) tea.Cmd {
	return func() tea.Msg {
		return ReplyMsg{Result: c.Send(ctx, question)}
	}
}
