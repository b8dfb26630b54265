// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable UI components for the dbchat TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dbchat-tui/internal/content"
	"github.com/jeranaias/dbchat-tui/internal/model"
	"github.com/jeranaias/dbchat-tui/internal/ui/styles"
	"github.com/jeranaias/dbchat-tui/internal/util"
)

// MessageRenderer renders messages as styled terminal text, mapping parsed
// content elements to their visual forms.
type MessageRenderer struct {
	theme *styles.Theme
	width int
}

// NewMessageRenderer creates a renderer for the given theme.
func NewMessageRenderer(theme *styles.Theme) *MessageRenderer {
	return &MessageRenderer{theme: theme, width: 80}
}

// SetWidth updates the render width.
func (r *MessageRenderer) SetWidth(width int) {
	if width > 0 {
		r.width = width
	}
}

// RenderMessage renders one message with its role label and styled body.
func (r *MessageRenderer) RenderMessage(msg *model.Message) string {
	label := r.theme.RoleLabel.Render(msg.Role.DisplayName())
	body := r.renderBody(msg)

	var style lipgloss.Style
	switch msg.Role {
	case model.RoleUser:
		style = r.theme.UserBubble
	case model.RoleError:
		style = r.theme.ErrorBubble
	default:
		style = r.theme.BotBubble
	}

	return label + "\n" + style.Width(r.bodyWidth()).Render(body)
}

// renderBody converts the message's parsed elements to styled lines.
func (r *MessageRenderer) renderBody(msg *model.Message) string {
	var lines []string
	for _, el := range msg.Elements() {
		switch el := el.(type) {
		case content.TextElement:
			lines = append(lines, util.WrapWidth(el.Text, r.bodyWidth())...)
		case content.ImageElement:
			lines = append(lines, r.renderImageRef(el.URL))
		case content.EntityElement:
			lines = append(lines, r.renderEntityCard(el))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// renderImageRef renders an image URL as a marked link. Terminals cannot
// display the image itself, so the reference is shown instead.
func (r *MessageRenderer) renderImageRef(url string) string {
	return "⧉ " + r.theme.ImageRef.Render(url)
}

// renderEntityCard renders a label + image pair as a bordered card.
func (r *MessageRenderer) renderEntityCard(el content.EntityElement) string {
	inner := r.theme.EntityLabel.Render(el.Label) + "\n" + r.renderImageRef(el.ImageURL)
	return r.theme.EntityCard.Render(inner)
}

// bodyWidth leaves room for the bubble border and padding.
func (r *MessageRenderer) bodyWidth() int {
	w := r.width - 8
	if w < 20 {
		w = 20
	}
	return w
}
