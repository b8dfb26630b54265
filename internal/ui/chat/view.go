// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dbchat-tui/internal/session"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

// renderHeader shows the app title and the signed-in identity, if any.
func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("dbchat")

	identity := ""
	if claims := m.controller.Identity(); claims != nil {
		identity = m.theme.HeaderIdentity.Render(claims.DisplayName())
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(identity) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(
		title + strings.Repeat(" ", gap) + identity,
	)
}

// renderBody joins the sidebar and the transcript viewport.
func (m Model) renderBody() string {
	if !m.sidebarVisible() {
		return m.viewport.View()
	}
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.sidebar.Render(),
		m.viewport.View(),
	)
}

// renderInput shows the query line, or a progress indicator while waiting.
func (m Model) renderInput() string {
	if m.controller.Busy() {
		label := "Thinking"
		if m.controller.State() == session.StateLoadingHistory {
			label = "Loading history"
		}
		return m.theme.InputContainer.Width(m.width - 2).Render(
			m.theme.Spinner.Render(m.spinner.View()) + " " +
				m.theme.ThinkingText.Render(label+"..."),
		)
	}
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

// renderStatusBar shows the keyboard shortcuts for the current focus.
func (m Model) renderStatusBar() string {
	shortcuts := []struct{ k, d string }{
		{"enter", "send"},
		{"ctrl+n", "new chat"},
		{"tab", "sidebar"},
		{"ctrl+c", "quit"},
	}
	if m.focus == FocusSidebar {
		shortcuts = []struct{ k, d string }{
			{"up/down", "navigate"},
			{"enter", "open"},
			{"tab", "back"},
			{"ctrl+c", "quit"},
		}
	}

	parts := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		parts = append(parts, m.theme.ShortcutKey.Render(s.k)+" "+m.theme.ShortcutDesc.Render(s.d))
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}
