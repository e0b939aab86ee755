// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/analyst-tui/internal/ui/styles"
	"github.com/jeranaias/analyst-tui/internal/upload"
)

// =============================================================================
// UPLOAD PROGRESS COMPONENT
// =============================================================================

// StepState is how one upload step is drawn.
type StepState int

const (
	StepPending StepState = iota
	StepActive
	StepDone
)

// StageProgress draws the four-step upload indicator.
type StageProgress struct {
	Stage     upload.Stage
	FileName  string
	StartedAt time.Time
	Width     int
	Compact   bool // single line, used when the chat pane is narrow

	theme *styles.Theme
	now   func() time.Time
}

// NewStageProgress creates a hidden indicator.
func NewStageProgress(theme *styles.Theme) *StageProgress {
	return &StageProgress{
		Stage: upload.StageNone,
		Width: 60,
		theme: theme,
		now:   time.Now,
	}
}

// Set moves the indicator to stage. Entering Parsing restarts the clock.
func (p *StageProgress) Set(stage upload.Stage) {
	if stage == upload.StageParsing && p.Stage != upload.StageParsing {
		p.StartedAt = p.now()
	}
	p.Stage = stage
}

// Visible reports whether there is anything to draw.
func (p *StageProgress) Visible() bool {
	return p.Stage.Active()
}

// StepStateOf returns how step is drawn while the indicator is at current.
// Every step is done once the last one is reached.
func StepStateOf(step, current upload.Stage) StepState {
	switch {
	case current == upload.StageComplete:
		return StepDone
	case step < current:
		return StepDone
	case step == current:
		return StepActive
	default:
		return StepPending
	}
}

// Percent returns overall progress in 0..100.
func (p *StageProgress) Percent() int {
	if !p.Stage.Active() {
		return 0
	}
	return (int(p.Stage) + 1) * 100 / len(upload.Stages)
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the indicator, or "" when hidden.
func (p *StageProgress) View() string {
	if !p.Visible() {
		return ""
	}
	if p.Compact || p.Width < 40 {
		return p.renderCompact()
	}
	return p.renderFull()
}

func (p *StageProgress) renderCompact() string {
	return fmt.Sprintf("%s [%d/%d] %s",
		p.theme.StageActive.Render(styles.StatusIndicators.Active),
		int(p.Stage)+1, len(upload.Stages), p.Stage.Label())
}

func (p *StageProgress) renderFull() string {
	contentWidth := p.Width - 4

	var lines []string

	caption := "Analyzing feedback"
	if p.FileName != "" {
		caption += ": " + p.FileName
	}
	lines = append(lines, p.theme.ProgressCaption.Render(caption))
	lines = append(lines, p.renderBar(contentWidth))

	for _, step := range upload.Stages {
		lines = append(lines, p.renderStep(step))
	}

	if !p.StartedAt.IsZero() {
		elapsed := p.now().Sub(p.StartedAt).Round(100 * time.Millisecond)
		lines = append(lines, p.theme.StagePending.Render("Elapsed "+elapsed.String()))
	}

	return p.theme.ProgressBox.Width(contentWidth).Render(strings.Join(lines, "\n"))
}

func (p *StageProgress) renderStep(step upload.Stage) string {
	switch StepStateOf(step, p.Stage) {
	case StepDone:
		return p.theme.StageDone.Render(styles.StatusIndicators.Success + " " + step.Label())
	case StepActive:
		return p.theme.StageActive.Render(styles.StatusIndicators.Active + " " + step.Label())
	default:
		return p.theme.StagePending.Render(styles.StatusIndicators.Pending + " " + step.Label())
	}
}

// renderBar draws "[#####.....]  50%".
func (p *StageProgress) renderBar(width int) string {
	barWidth := width - 8
	if barWidth < 10 {
		barWidth = 10
	}
	percent := p.Percent()
	filled := barWidth * percent / 100

	bar := lipgloss.NewStyle().Foreground(styles.Emerald).Render(strings.Repeat("#", filled)) +
		lipgloss.NewStyle().Foreground(styles.OverlayDim).Render(strings.Repeat(".", barWidth-filled))
	return fmt.Sprintf("[%s] %3d%%", bar, percent)
}
