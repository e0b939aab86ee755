// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colour palette and Lip Gloss styles for the
analyst TUI.

All colours are Lip Gloss AdaptiveColor values, so the same palette works on
light and dark terminals. The Theme decides which side applies: "auto" asks
the terminal through termenv, "dark" and "light" force a choice.

# Color System (colors.go)

	Purple, Cyan, Emerald, Amber, Rose  - accents
	Surface, SurfaceDim, Overlay        - backgrounds and borders
	TextPrimary ... TextInverse         - text hierarchy
	User/Assistant/SystemBubble*        - message roles

Status helpers (RenderSuccess, RenderError, ...) prefix an ASCII marker so
state is readable without colour.

# Theme System (theme.go)

	theme := styles.NewTheme("auto")
	header := theme.Header.Render("AI Analyst")
	bubble := theme.BubbleFor(model.RoleUser).Render(text)
*/
package styles
