// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import "time"

// Stage is a step of the upload progress indicator.
type Stage int

const (
	StageNone      Stage = -1
	StageParsing   Stage = 0
	StageUploading Stage = 1
	StageAnalyzing Stage = 2
	StageComplete  Stage = 3
)

// Stages lists the visible steps in order.
var Stages = []Stage{StageParsing, StageUploading, StageAnalyzing, StageComplete}

// Label returns the step's display name.
func (s Stage) Label() string {
	switch s {
	case StageParsing:
		return "Parsing CSV"
	case StageUploading:
		return "Uploading"
	case StageAnalyzing:
		return "RLM Analysis"
	case StageComplete:
		return "Graph Storage"
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	if s == StageNone {
		return "none"
	}
	return s.Label()
}

// Active reports whether an upload is showing progress.
func (s Stage) Active() bool {
	return s >= StageParsing && s <= StageComplete
}

// Timings are the visible pauses between stages.
type Timings struct {
	ParsePause    time.Duration // Parsing -> Uploading
	AnalysisDelay time.Duration // Uploading -> Analyzing
	CompleteHold  time.Duration // Complete shown before the result message
	ClearDelay    time.Duration // result message -> None
}

// DefaultTimings returns the standard pacing.
func DefaultTimings() Timings {
	return Timings{
		ParsePause:    200 * time.Millisecond,
		AnalysisDelay: 500 * time.Millisecond,
		CompleteHold:  300 * time.Millisecond,
		ClearDelay:    1000 * time.Millisecond,
	}
}
