// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/dbchat-tui/internal/model"
	"github.com/jeranaias/dbchat-tui/internal/ui/styles"
	"github.com/jeranaias/dbchat-tui/internal/util"
)

// Sidebar lists recent conversations and tracks a selection cursor.
type Sidebar struct {
	theme *styles.Theme

	conversations []model.Conversation
	activeID      string
	cursor        int
	offline       bool

	width  int
	height int
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme, width: 28}
}

// SetConversations replaces the listed conversations, clamping the cursor.
func (s *Sidebar) SetConversations(convs []model.Conversation, offline bool) {
	s.conversations = convs
	s.offline = offline
	if s.cursor >= len(convs) {
		s.cursor = len(convs) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// SetActive marks the active conversation id.
func (s *Sidebar) SetActive(id string) {
	s.activeID = id
}

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	if width > 0 {
		s.width = width
	}
	s.height = height
}

// MoveUp moves the cursor toward the top of the list.
func (s *Sidebar) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// MoveDown moves the cursor toward the bottom of the list.
func (s *Sidebar) MoveDown() {
	if s.cursor < len(s.conversations)-1 {
		s.cursor++
	}
}

// Selected returns the conversation under the cursor, or empty id when the
// list is empty.
func (s *Sidebar) Selected() model.Conversation {
	if s.cursor < 0 || s.cursor >= len(s.conversations) {
		return model.Conversation{}
	}
	return s.conversations[s.cursor]
}

// Render draws the sidebar panel.
func (s *Sidebar) Render() string {
	var b strings.Builder

	title := "Recent"
	if s.offline {
		title += " " + s.theme.SidebarOffline.Render("(offline)")
	}
	b.WriteString(s.theme.SidebarTitle.Render(title))
	b.WriteString("\n")

	if len(s.conversations) == 0 {
		b.WriteString(s.theme.SidebarItem.Render("no conversations"))
		return s.theme.Sidebar.Width(s.width).Render(b.String())
	}

	itemWidth := s.width - 3
	for i, conv := range s.conversations {
		line := util.TruncateWidth(conv.DisplayTitle(), itemWidth)

		style := s.theme.SidebarItem
		switch {
		case i == s.cursor:
			style = s.theme.SidebarItemSelected
		case conv.ID == s.activeID:
			style = s.theme.SidebarItemActive
		}

		b.WriteString(style.Render(line))
		if i < len(s.conversations)-1 {
			b.WriteString("\n")
		}
	}

	return s.theme.Sidebar.Width(s.width).Render(b.String())
}
