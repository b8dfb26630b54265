// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the message log and
// conversation descriptors.
//
// # Key Types
//
//   - Message: a single log entry with role, content, and derived elements
//   - Log: the ordered, append-only message log for the active view
//   - Conversation: id + title descriptor of a server-tracked conversation
//   - Role: message role enumeration (user, bot, error)
//
// # Usage
//
// Build up a log and read it back for rendering:
//
//	log := model.NewLog()
//	log.Append(model.NewUserMessage("how many students enrolled in 2024?"))
//	for _, msg := range log.Messages() {
//	    render(msg.Role, msg.Elements())
//	}
package model
