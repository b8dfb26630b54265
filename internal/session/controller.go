// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation session state machine.
//
// The Controller owns the message log, the active conversation id, and the
// in-flight state. Operations (Submit, SelectConversation, ListConversations)
// validate against current state and return a Command holding the transport
// call; when the command completes, its Event is fed back through Apply, the
// single function that mutates controller state. This keeps every state
// transition in one place and makes the async completion order explicit.
//
// The controller is single-threaded by contract: operations and Apply must be
// called from one goroutine (the UI event loop). Commands run concurrently
// but only produce values.
package session

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/jeranaias/dbchat-tui/internal/api"
	"github.com/jeranaias/dbchat-tui/internal/auth"
	"github.com/jeranaias/dbchat-tui/internal/model"
)

// =============================================================================
// STATES
// =============================================================================

// State is the controller's lifecycle state. Error is not a state: a failure
// resolves to a single error message in the log and returns to Idle.
type State int

const (
	// StateIdle means no request is in flight; submissions are accepted.
	StateIdle State = iota

	// StateSubmitting means a query submission is in flight.
	StateSubmitting

	// StateLoadingHistory means a conversation history fetch is in flight.
	StateLoadingHistory
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateLoadingHistory:
		return "loading-history"
	default:
		return "unknown"
	}
}

// =============================================================================
// USER-FACING FALLBACK STRINGS
// =============================================================================

const (
	// FallbackNoResults is shown when the server answers without text.
	FallbackNoResults = "No results found"

	// FallbackServerError is shown when a failure carries no server message.
	FallbackServerError = "Server error occurred"

	// AuthRequiredMessage is shown when submitting without a credential.
	AuthRequiredMessage = "Authentication required. Please sign in again."

	// AuthExpiredMessage is shown when the server rejects the credential.
	AuthExpiredMessage = "Authentication failed. Please sign in again."
)

// =============================================================================
// COLLABORATOR CONTRACTS
// =============================================================================

// Transport is the backend contract the controller depends on. Satisfied by
// api.Client.
type Transport interface {
	SubmitQuery(ctx context.Context, query, conversationID string) (*api.QueryResponse, error)
	ListConversations(ctx context.Context) ([]api.ConversationInfo, error)
	History(ctx context.Context, conversationID string) ([]api.HistoryMessage, error)
}

// Credentials is the credential store contract. Satisfied by auth.FileStore.
type Credentials interface {
	Token() (string, bool)
	Clear() error
}

// HistoryCache is the optional local conversation cache. Satisfied by
// storage.Cache.
type HistoryCache interface {
	ReplaceConversations(convs []model.Conversation) error
	Conversations() ([]model.Conversation, error)
	SaveHistory(conversationID string, msgs []*model.Message) error
	History(conversationID string) ([]*model.Message, error)
	DeleteConversation(conversationID string) error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the conversation session state machine.
type Controller struct {
	transport Transport
	creds     Credentials
	cache     HistoryCache // may be nil
	errlog    *log.Logger  // sink for non-fatal errors, may be nil

	state         State
	log           *model.Log
	activeID      string
	conversations []model.Conversation
	identity      *auth.Claims
	listFromCache bool

	// epoch invalidates in-flight completions: every operation that changes
	// the dispatch context bumps it, and Apply discards events carrying an
	// older value.
	epoch uint64
}

// NewController creates a controller. cache and errlog may be nil.
func NewController(transport Transport, creds Credentials, cache HistoryCache, errlog *log.Logger) *Controller {
	return &Controller{
		transport: transport,
		creds:     creds,
		cache:     cache,
		errlog:    errlog,
		state:     StateIdle,
		log:       model.NewLog(),
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Messages returns the message log contents in order.
func (c *Controller) Messages() []*model.Message { return c.log.Messages() }

// Conversations returns the known conversation list, most recent first.
func (c *Controller) Conversations() []model.Conversation {
	out := make([]model.Conversation, len(c.conversations))
	copy(out, c.conversations)
	return out
}

// ActiveConversationID returns the active conversation id, empty for a fresh
// session.
func (c *Controller) ActiveConversationID() string { return c.activeID }

// Identity returns the decoded credential claims, or nil when not signed in.
func (c *Controller) Identity() *auth.Claims { return c.identity }

// ListFromCache reports whether the current conversation list was served from
// the local cache because the server was unreachable.
func (c *Controller) ListFromCache() bool { return c.listFromCache }

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool { return c.state != StateIdle }

// =============================================================================
// OPERATIONS
// =============================================================================

// Initialize decodes the stored credential and, when one is present, returns
// the command that fetches the conversation list. A missing or malformed
// credential is not an error: the controller stays Idle with an empty log.
func (c *Controller) Initialize() Command {
	token, ok := c.creds.Token()
	if !ok {
		return nil
	}

	claims, err := auth.DecodeClaims(token)
	if err != nil {
		c.logf("ignoring malformed stored credential: %v", err)
		return nil
	}

	c.identity = &claims
	return c.ListConversations()
}

// ListConversations returns the command that refreshes the conversation list.
// Transport failure is non-fatal: the command logs it and falls back to the
// local cache so the user still sees something to resume.
func (c *Controller) ListConversations() Command {
	transport := c.transport
	cache := c.cache
	errlog := c.errlog

	return func(ctx context.Context) Event {
		infos, err := transport.ListConversations(ctx)
		if err != nil {
			if errlog != nil {
				errlog.Printf("conversation list fetch failed: %v", err)
			}
			if cache != nil {
				if cached, cerr := cache.Conversations(); cerr == nil && len(cached) > 0 {
					return ListResult{Conversations: cached, FromCache: true, Err: err}
				}
			}
			return ListResult{Err: err}
		}

		convs := make([]model.Conversation, len(infos))
		for i, info := range infos {
			convs[i] = model.Conversation{ID: info.ID, Title: info.Title}
		}
		return ListResult{Conversations: convs}
	}
}

// Submit validates and dispatches a query submission. Returns nil when the
// submission is rejected: blank input, a request already in flight, or no
// credential (which appends one error message and performs no transport call).
func (c *Controller) Submit(text string) Command {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if c.state != StateIdle {
		return nil
	}
	if _, ok := c.creds.Token(); !ok {
		c.log.Append(model.NewErrorMessage(AuthRequiredMessage))
		return nil
	}

	// Optimistic append: the user message lands before the server confirms.
	c.log.Append(model.NewUserMessage(text))
	c.state = StateSubmitting
	c.epoch++

	epoch := c.epoch
	conversationID := c.activeID
	transport := c.transport

	return func(ctx context.Context) Event {
		resp, err := transport.SubmitQuery(ctx, text, conversationID)
		return SubmitResult{
			Epoch:          epoch,
			ConversationID: conversationID,
			Resp:           resp,
			Err:            err,
		}
	}
}

// SelectConversation dispatches a history load for the given conversation.
// Guarded: returns nil while a request is in flight. The active id is unset
// at dispatch and only set again when the load succeeds, so a failed switch
// leaves the session detached rather than pointing at stale history. When the
// server is unreachable a previously cached history is served instead, the
// same way the conversation list falls back to the cache.
func (c *Controller) SelectConversation(id string) Command {
	if c.state != StateIdle || id == "" {
		return nil
	}

	c.state = StateLoadingHistory
	c.log.Clear()
	c.activeID = ""
	c.epoch++

	epoch := c.epoch
	transport := c.transport
	cache := c.cache

	return func(ctx context.Context) Event {
		records, err := transport.History(ctx, id)
		if err != nil {
			// Auth failures and not-found are authoritative answers, not
			// connectivity problems; the cache only papers over the latter.
			if cache != nil && !errors.Is(err, api.ErrAuthFailed) && !errors.Is(err, api.ErrNotFound) {
				if msgs, cerr := cache.History(id); cerr == nil {
					return HistoryResult{Epoch: epoch, ConversationID: id, Messages: msgs, FromCache: true}
				}
			}
			return HistoryResult{Epoch: epoch, ConversationID: id, Err: err}
		}

		msgs := make([]*model.Message, len(records))
		for i, rec := range records {
			msgs[i] = model.NewMessage(model.ParseRole(rec.Type), rec.Content)
		}
		return HistoryResult{Epoch: epoch, ConversationID: id, Messages: msgs}
	}
}

// NewConversation resets to a fresh session: empty log, no active
// conversation. Always succeeds, synchronous, no transport call. Any
// in-flight completion is invalidated by the epoch bump.
//
// Resetting during Submitting returns to Idle even though the abandoned
// request has not completed yet, so a new submit may briefly overlap the old
// one on the wire. The old completion arrives with a stale epoch and is
// discarded without touching the log, which is why the overlap is allowed.
func (c *Controller) NewConversation() {
	c.log.Clear()
	c.activeID = ""
	c.epoch++
	c.state = StateIdle
}

// =============================================================================
// STATE REDUCER
// =============================================================================

// Apply folds a completion event into controller state. It is the only
// mutation point for async results; operations above only mutate at dispatch.
func (c *Controller) Apply(ev Event) {
	switch ev := ev.(type) {
	case SubmitResult:
		c.applySubmit(ev)
	case HistoryResult:
		c.applyHistory(ev)
	case ListResult:
		c.applyList(ev)
	}
}

func (c *Controller) applySubmit(ev SubmitResult) {
	// A rejected credential is invalid no matter which request learned of it,
	// so the clear happens before the staleness check.
	if ev.Err != nil && errors.Is(ev.Err, api.ErrAuthFailed) {
		c.clearCredential()
	}

	if ev.Epoch != c.epoch {
		// The user started a new chat or switched conversations while this
		// request was in flight; its result no longer belongs anywhere.
		return
	}

	c.state = StateIdle

	if ev.Err != nil {
		c.log.Append(model.NewErrorMessage(c.errorText(ev.Err)))
		return
	}

	text := ev.Resp.NaturalLanguageResponse
	if strings.TrimSpace(text) == "" {
		text = FallbackNoResults
	}
	c.log.Append(model.NewBotMessage(text))

	if nc := ev.Resp.NewConversation; nc != nil && nc.ID != "" {
		c.activeID = nc.ID
		c.conversations = model.PrependConversation(c.conversations,
			model.Conversation{ID: nc.ID, Title: nc.Title})
		c.listFromCache = false
		c.cacheList()
	}

	c.cacheActiveHistory()
}

func (c *Controller) applyHistory(ev HistoryResult) {
	if ev.Err != nil && errors.Is(ev.Err, api.ErrAuthFailed) {
		c.clearCredential()
	}

	if ev.Epoch != c.epoch {
		return
	}

	c.state = StateIdle

	if ev.Err != nil {
		// activeID stays unset: the switch failed, so the session is not
		// attached to the requested conversation.
		if errors.Is(ev.Err, api.ErrNotFound) {
			c.dropConversation(ev.ConversationID)
		}
		c.log.Append(model.NewErrorMessage(c.errorText(ev.Err)))
		return
	}

	c.log.Replace(ev.Messages)
	c.activeID = ev.ConversationID
	if !ev.FromCache {
		c.cacheActiveHistory()
	}
}

func (c *Controller) applyList(ev ListResult) {
	if ev.Err != nil && errors.Is(ev.Err, api.ErrAuthFailed) {
		c.clearCredential()
	}

	if len(ev.Conversations) == 0 && ev.Err != nil {
		// Silent by contract: the list is auxiliary, the chat still works.
		return
	}

	c.conversations = ev.Conversations
	c.listFromCache = ev.FromCache

	if !ev.FromCache {
		c.cacheList()
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// errorText maps a transport error to the user-visible message string.
func (c *Controller) errorText(err error) string {
	if errors.Is(err, api.ErrAuthFailed) {
		return AuthExpiredMessage
	}
	if msg := api.ServerMessage(err); msg != "" {
		return msg
	}
	return FallbackServerError
}

// clearCredential drops the stored token and identity after a 401.
func (c *Controller) clearCredential() {
	if err := c.creds.Clear(); err != nil {
		c.logf("failed to clear credential: %v", err)
	}
	c.identity = nil
}

// cacheList mirrors the conversation list into the local cache.
func (c *Controller) cacheList() {
	if c.cache == nil {
		return
	}
	if err := c.cache.ReplaceConversations(c.conversations); err != nil {
		c.logf("failed to cache conversation list: %v", err)
	}
}

// dropConversation removes a conversation the server no longer knows about
// from the in-memory list and the local cache.
func (c *Controller) dropConversation(id string) {
	for i, conv := range c.conversations {
		if conv.ID == id {
			c.conversations = append(c.conversations[:i], c.conversations[i+1:]...)
			break
		}
	}
	if c.cache == nil {
		return
	}
	if err := c.cache.DeleteConversation(id); err != nil {
		c.logf("failed to drop cached conversation %s: %v", id, err)
	}
}

// cacheActiveHistory mirrors the active conversation's log into the cache.
func (c *Controller) cacheActiveHistory() {
	if c.cache == nil || c.activeID == "" {
		return
	}
	if err := c.cache.SaveHistory(c.activeID, c.log.Messages()); err != nil {
		c.logf("failed to cache history for %s: %v", c.activeID, err)
	}
}

func (c *Controller) logf(format string, args ...any) {
	if c.errlog != nil {
		c.errlog.Printf(format, args...)
	}
}
