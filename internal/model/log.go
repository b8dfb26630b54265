// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the message log and
// conversation descriptors.
package model

// Log is the ordered message log for the active view. Within a conversation
// it is append-only: past messages are never edited or removed. The whole log
// is replaced only when switching conversations or starting a new chat.
type Log struct {
	messages []*Message
}

// NewLog creates an empty message log.
func NewLog() *Log {
	return &Log{messages: make([]*Message, 0)}
}

// Append adds a message to the end of the log.
func (l *Log) Append(msg *Message) {
	l.messages = append(l.messages, msg)
}

// Replace swaps the log contents wholesale. Used when loading the history of
// a selected conversation.
func (l *Log) Replace(msgs []*Message) {
	l.messages = make([]*Message, len(msgs))
	copy(l.messages, msgs)
}

// Clear empties the log.
func (l *Log) Clear() {
	l.messages = make([]*Message, 0)
}

// Messages returns the log contents in order. The returned slice is a copy;
// callers cannot mutate log structure through it.
func (l *Log) Messages() []*Message {
	out := make([]*Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	return len(l.messages)
}

// Last returns the most recent message, or nil if the log is empty.
func (l *Log) Last() *Message {
	if len(l.messages) == 0 {
		return nil
	}
	return l.messages[len(l.messages)-1]
}

// IsEmpty returns true if there are no messages.
func (l *Log) IsEmpty() bool {
	return len(l.messages) == 0
}
