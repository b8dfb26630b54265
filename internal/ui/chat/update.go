// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dbchat-tui/internal/ui/styles"
)

const (
	// sidebarPanelWidth is the fixed width of the conversation list pane.
	sidebarPanelWidth = 30

	// chromeHeight is the rows consumed by the header, input, and status bar.
	chromeHeight = 7
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg.Width, msg.Height)
		m.refreshViewport(false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionEventMsg:
		wasBusy := m.controller.Busy()
		m.controller.Apply(msg.Event)
		m.syncSidebar()
		m.refreshViewport(true)
		if wasBusy && !m.controller.Busy() {
			m.input.Focus()
			cmds = append(cmds, textinput.Blink)
		}
		return m, tea.Batch(cmds...)

	case ConfigReloadedMsg:
		if msg.Config != nil {
			m.showSidebar = msg.Config.UI.ShowSidebar
			if !m.showSidebar && m.focus == FocusSidebar {
				m.focus = FocusInput
				m.input.Focus()
			}
			m.refreshViewport(false)
		}
		return m, nil

	case spinner.TickMsg:
		if m.controller.Busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Forward everything else to the focused input.
	if m.focus == FocusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// handleKey routes key presses by binding and focus.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.NewChat):
		m.controller.NewConversation()
		m.sidebar.SetActive("")
		m.refreshViewport(true)
		m.input.Reset()
		m.focus = FocusInput
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keyMap.ToggleSidebar):
		m.showSidebar = !m.showSidebar
		if !m.showSidebar && m.focus == FocusSidebar {
			m.focus = FocusInput
			m.input.Focus()
		}
		m.handleResize(m.width, m.height)
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keyMap.FocusSidebar):
		if !m.showSidebar {
			return m, nil
		}
		if m.focus == FocusSidebar {
			m.focus = FocusInput
			m.input.Focus()
			return m, textinput.Blink
		}
		m.focus = FocusSidebar
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == FocusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

// handleSidebarKey navigates the conversation list.
func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Up):
		m.sidebar.MoveUp()
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.sidebar.MoveDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		selected := m.sidebar.Selected()
		if selected.ID == "" || selected.ID == m.controller.ActiveConversationID() {
			return m, nil
		}
		cmd := m.controller.SelectConversation(selected.ID)
		if cmd == nil {
			return m, nil
		}
		m.focus = FocusInput
		m.input.Focus()
		m.refreshViewport(true)
		return m, tea.Batch(dispatch(cmd), m.spinner.Tick, textinput.Blink)
	}
	return m, nil
}

// handleInputKey edits the query line and submits it.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Submit) {
		cmd := m.controller.Submit(m.input.Value())
		// The controller appends locally even when no request goes out, for
		// example a sign-in prompt when no credential is stored.
		m.refreshViewport(true)
		if cmd == nil {
			return m, nil
		}
		m.input.Reset()
		return m, tea.Batch(dispatch(cmd), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// LAYOUT AND CONTENT
// =============================================================================

// handleResize recomputes component dimensions from the terminal size.
func (m *Model) handleResize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	sidebarWidth := 0
	if m.sidebarVisible() {
		sidebarWidth = sidebarPanelWidth
	}

	// Header, input, and status bar each take a row plus padding.
	contentHeight := height - chromeHeight
	if contentHeight < 3 {
		contentHeight = 3
	}
	contentWidth := width - sidebarWidth
	if contentWidth < 20 {
		contentWidth = 20
	}

	m.viewport.Width = contentWidth
	m.viewport.Height = contentHeight
	m.renderer.SetWidth(contentWidth)
	m.sidebar.SetSize(sidebarWidth, contentHeight)
	m.input.Width = contentWidth - 4
}

// sidebarVisible reports whether the sidebar fits and is enabled.
func (m *Model) sidebarVisible() bool {
	return m.showSidebar && m.theme.GetLayoutMode() != styles.LayoutNarrow
}

// syncSidebar pushes controller state into the sidebar component.
func (m *Model) syncSidebar() {
	m.sidebar.SetConversations(m.controller.Conversations(), m.controller.ListFromCache())
	m.sidebar.SetActive(m.controller.ActiveConversationID())
}

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport(scrollToBottom bool) {
	msgs := m.controller.Messages()
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, m.renderer.RenderMessage(msg))
	}
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	if scrollToBottom {
		m.viewport.GotoBottom()
	}
}
