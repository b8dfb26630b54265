// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dbchat-tui/internal/config"
	"github.com/jeranaias/dbchat-tui/internal/session"
)

// =============================================================================
// MESSAGES
// =============================================================================

// SessionEventMsg carries a session completion event into the update loop.
type SessionEventMsg struct {
	Event session.Event
}

// ConfigReloadedMsg carries a freshly reloaded configuration into the update
// loop. Sent from the config file watcher goroutine via Program.Send.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// dispatch wraps a session command as a Bubble Tea command. The session
// controller is only ever touched from the update loop; the command runs the
// transport call off-thread and its event comes back as a message.
func dispatch(cmd session.Command) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		return SessionEventMsg{Event: cmd(context.Background())}
	}
}
