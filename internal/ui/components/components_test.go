// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/analyst-tui/internal/model"
	"github.com/jeranaias/analyst-tui/internal/ui/styles"
	"github.com/jeranaias/analyst-tui/internal/upload"
)

func testTheme() *styles.Theme {
	return styles.NewTheme(styles.ModeDark)
}

func conv(id, title string) model.Conversation {
	c := model.NewConversation(id, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	c.Title = title
	return c
}

// =============================================================================
// SIDEBAR TESTS
// =============================================================================

func TestSidebar_Empty(t *testing.T) {
	sb := NewSidebar(testTheme(), 30)
	view := sb.View()

	if !strings.Contains(view, EmptySidebarText) {
		t.Errorf("empty sidebar should show %q, got:\n%s", EmptySidebarText, view)
	}
	if !strings.Contains(view, "0 conversations") {
		t.Errorf("empty sidebar footer missing, got:\n%s", view)
	}
}

func TestSidebar_ListsAndCounts(t *testing.T) {
	sb := NewSidebar(testTheme(), 30)
	sb.SetConversations([]model.Conversation{
		conv("b", "Churn drivers"),
		conv("a", "Pricing complaints"),
	}, "a")

	view := sb.View()
	for _, want := range []string{"Churn drivers", "Pricing complaints", "2 conversations"} {
		if !strings.Contains(view, want) {
			t.Errorf("sidebar missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, EmptySidebarText) {
		t.Error("non-empty sidebar should not show the empty text")
	}
	if sb.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", sb.CurrentIndex())
	}
}

func TestSidebar_Footer(t *testing.T) {
	sb := NewSidebar(testTheme(), 30)
	sb.SetConversations([]model.Conversation{conv("a", "Only")}, "a")
	if got := sb.Footer(); got != "1 conversation" {
		t.Errorf("Footer() = %q, want %q", got, "1 conversation")
	}
}

func TestSidebar_WindowKeepsCurrentVisible(t *testing.T) {
	sb := NewSidebar(testTheme(), 30)
	var convs []model.Conversation
	for i := 0; i < 50; i++ {
		convs = append(convs, conv(string(rune('A'+i%26))+string(rune('a'+i/26)), "Conversation"))
	}
	sb.SetConversations(convs, convs[45].ID)
	sb.Height = 14

	start, end := sb.window(10)
	if end-start != 10 {
		t.Fatalf("window size = %d, want 10", end-start)
	}
	if 45 < start || 45 >= end {
		t.Errorf("window [%d,%d) does not contain current index 45", start, end)
	}

	start, end = sb.window(100)
	if start != 0 || end != 50 {
		t.Errorf("window(100) = [%d,%d), want [0,50)", start, end)
	}
}

// =============================================================================
// PROGRESS TESTS
// =============================================================================

func TestStepStateOf(t *testing.T) {
	tests := []struct {
		step, current upload.Stage
		want          StepState
	}{
		{upload.StageParsing, upload.StageParsing, StepActive},
		{upload.StageUploading, upload.StageParsing, StepPending},
		{upload.StageParsing, upload.StageAnalyzing, StepDone},
		{upload.StageAnalyzing, upload.StageAnalyzing, StepActive},
		{upload.StageComplete, upload.StageAnalyzing, StepPending},
		{upload.StageComplete, upload.StageComplete, StepDone},
		{upload.StageParsing, upload.StageComplete, StepDone},
	}
	for _, tt := range tests {
		if got := StepStateOf(tt.step, tt.current); got != tt.want {
			t.Errorf("StepStateOf(%v, %v) = %v, want %v", tt.step, tt.current, got, tt.want)
		}
	}
}

func TestStageProgress_HiddenWhenIdle(t *testing.T) {
	p := NewStageProgress(testTheme())
	if p.Visible() {
		t.Error("new progress should be hidden")
	}
	if p.View() != "" {
		t.Errorf("hidden progress rendered %q", p.View())
	}
	if p.Percent() != 0 {
		t.Errorf("Percent() = %d, want 0", p.Percent())
	}
}

func TestStageProgress_Stages(t *testing.T) {
	p := NewStageProgress(testTheme())
	p.Width = 80
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	p.Set(upload.StageParsing)
	if !p.StartedAt.Equal(now) {
		t.Error("entering Parsing should start the clock")
	}
	if p.Percent() != 25 {
		t.Errorf("Percent() at Parsing = %d, want 25", p.Percent())
	}

	now = now.Add(700 * time.Millisecond)
	p.Set(upload.StageAnalyzing)
	view := p.View()
	for _, label := range []string{"Parsing CSV", "Uploading", "RLM Analysis", "Graph Storage", "75%", "700ms"} {
		if !strings.Contains(view, label) {
			t.Errorf("progress view missing %q:\n%s", label, view)
		}
	}

	p.Set(upload.StageComplete)
	if p.Percent() != 100 {
		t.Errorf("Percent() at Complete = %d, want 100", p.Percent())
	}
	if strings.Contains(p.View(), styles.StatusIndicators.Pending) {
		t.Error("no step should be pending once complete")
	}

	p.Set(upload.StageNone)
	if p.Visible() {
		t.Error("StageNone should hide the progress")
	}
}

func TestStageProgress_Compact(t *testing.T) {
	p := NewStageProgress(testTheme())
	p.Compact = true
	p.Set(upload.StageUploading)
	if got := p.View(); !strings.Contains(got, "[2/4] Uploading") {
		t.Errorf("compact view = %q", got)
	}
}

// =============================================================================
// MESSAGE AND MARKDOWN TESTS
// =============================================================================

func TestMessageBubble_Labels(t *testing.T) {
	theme := testTheme()
	md := NewMarkdownRenderer("notty", false)

	tests := []struct {
		msg   model.Message
		label string
	}{
		{model.UserMessage("what do users hate?"), "You"},
		{model.AssistantMessage("Mostly pricing."), "Analyst"},
		{model.SystemMessage("Uploading feedback.csv..."), "System"},
	}
	for _, tt := range tests {
		b := NewMessageBubble(tt.msg, theme, md)
		b.Width = 60
		view := b.View()
		if !strings.Contains(view, tt.label) {
			t.Errorf("bubble for %s missing label %q", tt.msg.Role, tt.label)
		}
		if !strings.Contains(view, tt.msg.Content) {
			t.Errorf("bubble for %s missing content:\n%s", tt.msg.Role, view)
		}
	}
}

func TestRenderConversation_Order(t *testing.T) {
	msgs := []model.Message{
		model.AssistantMessage(model.Greeting[:20]),
		model.UserMessage("first question"),
		model.AssistantMessage("first answer"),
	}
	out := RenderConversation(msgs, 70, testTheme(), NewMarkdownRenderer("notty", false))
	q := strings.Index(out, "first question")
	a := strings.Index(out, "first answer")
	if q < 0 || a < 0 || q > a {
		t.Errorf("messages out of order:\n%s", out)
	}
}

func TestMarkdownRenderer(t *testing.T) {
	off := NewMarkdownRenderer("dark", false)
	if got := off.Render("**bold**", 40); got != "**bold**" {
		t.Errorf("disabled renderer changed content: %q", got)
	}

	on := NewMarkdownRenderer("notty", true)
	got := on.Render("# Themes\n\n- pricing\n- onboarding", 40)
	if !strings.Contains(got, "pricing") || !strings.Contains(got, "onboarding") {
		t.Errorf("rendered markdown lost content: %q", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("rendered markdown should not end with a newline")
	}

	var nilRenderer *MarkdownRenderer
	if nilRenderer.Enabled() {
		t.Error("nil renderer should report disabled")
	}
}

func TestHighlightJSON_KeepsText(t *testing.T) {
	out := HighlightJSON([]byte(`{"processed_chunks": 12}`))
	if !strings.Contains(out, "processed_chunks") || !strings.Contains(out, "12") {
		t.Errorf("highlighted JSON lost content: %q", out)
	}
}
