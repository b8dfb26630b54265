// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the interactive chat view for the TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dbchat-tui/internal/session"
	"github.com/jeranaias/dbchat-tui/internal/ui/components"
	"github.com/jeranaias/dbchat-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

// Focus identifies which pane receives keyboard input.
type Focus int

const (
	FocusInput Focus = iota
	FocusSidebar
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. All session mutation goes
// through the controller; Update feeds it events and re-renders.
type Model struct {
	controller *session.Controller

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	sidebar  *components.Sidebar
	renderer *components.MessageRenderer
	keyMap   KeyMap

	// Layout
	showSidebar bool
	focus       Focus
}

// New creates a chat model bound to a session controller.
func New(controller *session.Controller, theme *styles.Theme) Model {
	// Create text input with prompt
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question..."
	ti.CharLimit = 4096
	ti.Focus()

	// Create viewport
	vp := viewport.New(80, 20)
	vp.SetContent("")

	// Create spinner with ASCII-compatible animation
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	return Model{
		controller:  controller,
		theme:       theme,
		viewport:    vp,
		input:       ti,
		spinner:     sp,
		sidebar:     components.NewSidebar(theme),
		renderer:    components.NewMessageRenderer(theme),
		keyMap:      DefaultKeyMap(),
		showSidebar: true,
		focus:       FocusInput,
	}
}

// Init loads the credential identity and requests the conversation list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		dispatch(m.controller.Initialize()),
	)
}

// Busy reports whether a request or history load is in flight.
func (m Model) Busy() bool {
	return m.controller.Busy()
}
