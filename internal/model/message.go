// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the message log and
// conversation descriptors.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/dbchat-tui/internal/content"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies who a message in the log belongs to.
type Role string

const (
	RoleUser  Role = "user"
	RoleBot   Role = "bot"
	RoleError Role = "error"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleBot:
		return "Bot"
	case RoleError:
		return "Error"
	default:
		return string(r)
	}
}

// ParseRole maps a wire-format role string to a Role. Unknown strings map to
// RoleBot so that replayed history never loses a message.
func ParseRole(s string) Role {
	switch s {
	case "user":
		return RoleUser
	case "error":
		return RoleError
	default:
		return RoleBot
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one entry in the message log. Messages are immutable once
// appended; within a conversation the log only ever grows.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time

	// elements is the parsed form of Content, computed on first use.
	// Derived state only; never persisted and never part of equality.
	elements []content.Element
	parsed   bool
}

// NewMessage creates a message with a generated ID.
func NewMessage(role Role, text string) *Message {
	return &Message{
		ID:        "msg_" + uuid.NewString(),
		Role:      role,
		Content:   text,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(text string) *Message { return NewMessage(RoleUser, text) }

// NewBotMessage creates a new bot message.
func NewBotMessage(text string) *Message { return NewMessage(RoleBot, text) }

// NewErrorMessage creates a new error message.
func NewErrorMessage(text string) *Message { return NewMessage(RoleError, text) }

// Elements returns the message content parsed into renderable elements.
// The result is cached on the message; Content never changes after append,
// so the cache cannot go stale.
func (m *Message) Elements() []content.Element {
	if !m.parsed {
		m.elements = content.Parse(m.Content)
		m.parsed = true
	}
	return m.elements
}

// Preview returns a rune-safe truncated preview of the content.
func (m *Message) Preview(maxRunes int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxRunes {
		return m.Content
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
