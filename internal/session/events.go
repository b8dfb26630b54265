// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"

	"github.com/jeranaias/dbchat-tui/internal/api"
	"github.com/jeranaias/dbchat-tui/internal/model"
)

// =============================================================================
// COMMANDS AND EVENTS
// =============================================================================

// Command is a deferred unit of work produced by a controller operation.
// Running it performs the transport call and yields the completion event,
// which the caller feeds back into Apply. Commands never touch controller
// state themselves; Apply is the single mutation point.
type Command func(ctx context.Context) Event

// Event is a completion produced by a Command.
type Event interface {
	event()
}

// SubmitResult is the completion of a query submission.
type SubmitResult struct {
	// Epoch and ConversationID identify the dispatch context; Apply discards
	// results whose context no longer matches.
	Epoch          uint64
	ConversationID string

	Resp *api.QueryResponse
	Err  error
}

// HistoryResult is the completion of a conversation history fetch. FromCache
// marks a history served from the local cache after a transport failure.
type HistoryResult struct {
	Epoch          uint64
	ConversationID string

	Messages  []*model.Message
	FromCache bool
	Err       error
}

// ListResult is the completion of a conversation list fetch. FromCache marks
// a list served from the local cache after a transport failure.
type ListResult struct {
	Conversations []model.Conversation
	FromCache     bool
	Err           error
}

func (SubmitResult) event()  {}
func (HistoryResult) event() {}
func (ListResult) event()    {}
