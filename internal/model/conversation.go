// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the message log and
// conversation descriptors.
package model

// Conversation is a lightweight descriptor of a server-tracked conversation.
// The server owns the full exchange history; the client only keeps the id and
// title for listing and switching.
type Conversation struct {
	ID    string
	Title string
}

// DisplayTitle returns the conversation title or a default for untitled ones.
func (c Conversation) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "Untitled conversation"
}

// PrependConversation puts conv at the front of list, removing any existing
// entry with the same id first. The input slice is not modified.
func PrependConversation(list []Conversation, conv Conversation) []Conversation {
	out := make([]Conversation, 0, len(list)+1)
	out = append(out, conv)
	for _, c := range list {
		if c.ID != conv.ID {
			out = append(out, c)
		}
	}
	return out
}
