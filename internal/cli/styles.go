// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Lipgloss styles for non-TUI command output.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dbchat-tui/internal/ui/styles"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	successStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	headingStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)
)

// renderError styles an error tag when color output is appropriate.
func renderError(s string) string {
	if !ColorEnabled() {
		return s
	}
	return errorStyle.Render(s)
}

// renderWarning styles a warning tag when color output is appropriate.
func renderWarning(s string) string {
	if !ColorEnabled() {
		return s
	}
	return warningStyle.Render(s)
}

// renderSuccess styles a success tag when color output is appropriate.
func renderSuccess(s string) string {
	if !ColorEnabled() {
		return s
	}
	return successStyle.Render(s)
}

// renderHeading styles a section heading when color output is appropriate.
func renderHeading(s string) string {
	if !ColorEnabled() {
		return s
	}
	return headingStyle.Render(s)
}

// renderMuted styles secondary text when color output is appropriate.
func renderMuted(s string) string {
	if !ColorEnabled() {
		return s
	}
	return mutedStyle.Render(s)
}
