// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the analyst packages.
//
// # Key Functions
//
// String Utilities:
//   - CutRunes: keep the first N runes and mark the cut with "..."
//   - TruncateWidth: fit a string into N terminal columns
//   - PadWidth: right-pad a string to N terminal columns
//   - FirstLine, Plural
//
// Timing:
//   - Sleep: wait for a duration unless the context ends first
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//
// # Usage
//
//	title := util.CutRunes(firstQuestion, 50)
//	cell := util.TruncateWidth(title, 24)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
