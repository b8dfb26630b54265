// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/dbchat-tui/internal/api"
	"github.com/jeranaias/dbchat-tui/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeTransport struct {
	submitResp *api.QueryResponse
	submitErr  error
	submits    int

	listResp []api.ConversationInfo
	listErr  error

	historyResp []api.HistoryMessage
	historyErr  error
	historyIDs  []string
}

func (f *fakeTransport) SubmitQuery(_ context.Context, query, conversationID string) (*api.QueryResponse, error) {
	f.submits++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.submitResp, nil
}

func (f *fakeTransport) ListConversations(_ context.Context) ([]api.ConversationInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listResp, nil
}

func (f *fakeTransport) History(_ context.Context, conversationID string) ([]api.HistoryMessage, error) {
	f.historyIDs = append(f.historyIDs, conversationID)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.historyResp, nil
}

type fakeCreds struct {
	token   string
	cleared bool
}

func (f *fakeCreds) Token() (string, bool) { return f.token, f.token != "" }
func (f *fakeCreds) Clear() error {
	f.token = ""
	f.cleared = true
	return nil
}

type fakeCache struct {
	convs   []model.Conversation
	history map[string][]*model.Message
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{history: make(map[string][]*model.Message)}
}

func (f *fakeCache) ReplaceConversations(convs []model.Conversation) error {
	f.convs = convs
	return nil
}

func (f *fakeCache) Conversations() ([]model.Conversation, error) {
	return f.convs, nil
}

func (f *fakeCache) SaveHistory(id string, msgs []*model.Message) error {
	f.history[id] = msgs
	return nil
}

func (f *fakeCache) History(id string) ([]*model.Message, error) {
	msgs, ok := f.history[id]
	if !ok {
		return nil, errors.New("not cached")
	}
	return msgs, nil
}

func (f *fakeCache) DeleteConversation(id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.history, id)
	return nil
}

// testToken builds an unsigned JWT-shaped token with the given payload claims.
func testToken(t *testing.T, payload string) string {
	t.Helper()
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"none"}`)) + "." + enc([]byte(payload)) + ".sig"
}

func newTestController(transport *fakeTransport, creds *fakeCreds) *Controller {
	return NewController(transport, creds, nil, nil)
}

func run(cmd Command) Event {
	return cmd(context.Background())
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSubmitBlankIsNoOp(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestController(transport, &fakeCreds{token: "t"})

	assert.Nil(t, c.Submit(""))
	assert.Nil(t, c.Submit("   "))
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Messages())
	assert.Zero(t, transport.submits)
}

func TestSubmitOptimisticAppend(t *testing.T) {
	transport := &fakeTransport{
		submitResp: &api.QueryResponse{NaturalLanguageResponse: "There are 42 users."},
	}
	c := newTestController(transport, &fakeCreds{token: "t"})

	cmd := c.Submit("how many users?")
	require.NotNil(t, cmd)

	// User message lands before the server responds
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "how many users?", msgs[0].Content)
	assert.Equal(t, StateSubmitting, c.State())

	c.Apply(run(cmd))

	msgs = c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleBot, msgs[1].Role)
	assert.Equal(t, "There are 42 users.", msgs[1].Content)
	assert.Equal(t, StateIdle, c.State())
}

func TestSubmitWhileBusyIsNoOp(t *testing.T) {
	transport := &fakeTransport{
		submitResp: &api.QueryResponse{NaturalLanguageResponse: "ok"},
	}
	c := newTestController(transport, &fakeCreds{token: "t"})

	first := c.Submit("first")
	require.NotNil(t, first)

	second := c.Submit("second")
	assert.Nil(t, second)
	assert.Len(t, c.Messages(), 1)

	c.Apply(run(first))
	assert.Equal(t, 1, transport.submits)
}

func TestSubmitWithoutCredential(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestController(transport, &fakeCreds{})

	cmd := c.Submit("hello")
	assert.Nil(t, cmd)
	assert.Zero(t, transport.submits)

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleError, msgs[0].Role)
	assert.Equal(t, AuthRequiredMessage, msgs[0].Content)
	assert.Equal(t, StateIdle, c.State())
}

func TestSubmitEmptyResponseFallback(t *testing.T) {
	transport := &fakeTransport{submitResp: &api.QueryResponse{}}
	c := newTestController(transport, &fakeCreds{token: "t"})

	c.Apply(run(c.Submit("q")))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, FallbackNoResults, msgs[1].Content)
}

func TestSubmitFailureAppendsOneError(t *testing.T) {
	transport := &fakeTransport{submitErr: errors.New("connection refused")}
	c := newTestController(transport, &fakeCreds{token: "t"})

	c.Apply(run(c.Submit("q")))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleError, msgs[1].Role)
	assert.Equal(t, FallbackServerError, msgs[1].Content)
	assert.Equal(t, StateIdle, c.State())
}

func TestSubmitFailureUsesServerMessage(t *testing.T) {
	transport := &fakeTransport{
		submitErr: &api.APIError{Status: 500, Message: "Could not fetch conversations."},
	}
	c := newTestController(transport, &fakeCreds{token: "t"})

	c.Apply(run(c.Submit("q")))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Could not fetch conversations.", msgs[1].Content)
}

func TestSubmitNewConversationPrepends(t *testing.T) {
	transport := &fakeTransport{
		submitResp: &api.QueryResponse{
			NaturalLanguageResponse: "answer",
			NewConversation:         &api.ConversationInfo{ID: "c9", Title: "New chat"},
		},
	}
	c := newTestController(transport, &fakeCreds{token: "t"})
	c.conversations = []model.Conversation{
		{ID: "c1", Title: "Old"},
		{ID: "c9", Title: "Stale duplicate"},
	}

	c.Apply(run(c.Submit("q")))

	assert.Equal(t, "c9", c.ActiveConversationID())
	convs := c.Conversations()
	require.Len(t, convs, 2)
	assert.Equal(t, "c9", convs[0].ID)
	assert.Equal(t, "New chat", convs[0].Title)
	assert.Equal(t, "c1", convs[1].ID)
}

// =============================================================================
// AUTH FAILURE
// =============================================================================

func TestAuthFailureClearsCredential(t *testing.T) {
	transport := &fakeTransport{submitErr: api.ErrAuthFailed}
	creds := &fakeCreds{token: "stale"}
	c := newTestController(transport, creds)

	c.Apply(run(c.Submit("q")))

	assert.True(t, creds.cleared)
	assert.Nil(t, c.Identity())

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, AuthExpiredMessage, msgs[1].Content)
}

func TestStaleAuthFailureStillClearsCredential(t *testing.T) {
	transport := &fakeTransport{submitErr: api.ErrAuthFailed}
	creds := &fakeCreds{token: "stale"}
	c := newTestController(transport, creds)

	cmd := c.Submit("q")
	ev := run(cmd)

	// User resets before the completion lands; the result is stale but the
	// credential is still invalid.
	c.NewConversation()
	c.Apply(ev)

	assert.True(t, creds.cleared)
	assert.Empty(t, c.Messages())
}

// =============================================================================
// STALE COMPLETIONS
// =============================================================================

func TestStaleSubmitDiscardedAfterNewConversation(t *testing.T) {
	transport := &fakeTransport{
		submitResp: &api.QueryResponse{NaturalLanguageResponse: "late answer"},
	}
	c := newTestController(transport, &fakeCreds{token: "t"})

	cmd := c.Submit("q")
	ev := run(cmd)

	c.NewConversation()
	c.Apply(ev)

	assert.Empty(t, c.Messages())
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.ActiveConversationID())
}

// =============================================================================
// CONVERSATION SWITCHING
// =============================================================================

func TestSelectConversationReplacesLog(t *testing.T) {
	transport := &fakeTransport{
		submitResp: &api.QueryResponse{NaturalLanguageResponse: "old answer"},
		historyResp: []api.HistoryMessage{
			{Type: "user", Content: "earlier question"},
			{Type: "bot", Content: "earlier answer"},
		},
	}
	c := newTestController(transport, &fakeCreds{token: "t"})

	// Seed the log with a prior exchange
	c.Apply(run(c.Submit("current question")))
	require.Len(t, c.Messages(), 2)

	cmd := c.SelectConversation("c1")
	require.NotNil(t, cmd)
	assert.Equal(t, StateLoadingHistory, c.State())
	assert.Empty(t, c.Messages())

	c.Apply(run(cmd))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "earlier question", msgs[0].Content)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "earlier answer", msgs[1].Content)
	assert.Equal(t, model.RoleBot, msgs[1].Role)
	assert.Equal(t, "c1", c.ActiveConversationID())
	assert.Equal(t, StateIdle, c.State())
}

func TestSelectConversationGuardedWhileBusy(t *testing.T) {
	transport := &fakeTransport{
		submitResp: &api.QueryResponse{NaturalLanguageResponse: "ok"},
	}
	c := newTestController(transport, &fakeCreds{token: "t"})

	submit := c.Submit("q")
	require.NotNil(t, submit)

	assert.Nil(t, c.SelectConversation("c1"))
	assert.Empty(t, transport.historyIDs)

	c.Apply(run(submit))
}

func TestSelectConversationFailureLeavesDetached(t *testing.T) {
	transport := &fakeTransport{historyErr: errors.New("boom")}
	c := newTestController(transport, &fakeCreds{token: "t"})

	c.Apply(run(c.SelectConversation("c1")))

	assert.Empty(t, c.ActiveConversationID())
	assert.Equal(t, StateIdle, c.State())

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleError, msgs[0].Role)
}

func TestSelectConversationFallsBackToCache(t *testing.T) {
	transport := &fakeTransport{historyErr: errors.New("connection refused")}
	cache := newFakeCache()
	cache.history["c1"] = []*model.Message{
		model.NewMessage(model.RoleUser, "q"),
		model.NewMessage(model.RoleBot, "a"),
	}
	c := NewController(transport, &fakeCreds{token: "t"}, cache, nil)

	c.Apply(run(c.SelectConversation("c1")))

	assert.Equal(t, "c1", c.ActiveConversationID())
	assert.Equal(t, StateIdle, c.State())

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[1].Content)
}

func TestSelectConversationNotFoundDropsCached(t *testing.T) {
	transport := &fakeTransport{
		listResp:   []api.ConversationInfo{{ID: "c1", Title: "Users"}, {ID: "c2", Title: "Orders"}},
		historyErr: api.ErrNotFound,
	}
	cache := newFakeCache()
	cache.history["c1"] = []*model.Message{model.NewMessage(model.RoleUser, "q")}
	c := NewController(transport, &fakeCreds{token: "t"}, cache, nil)

	c.Apply(run(c.ListConversations()))
	c.Apply(run(c.SelectConversation("c1")))

	// The server disowned c1: it leaves both the list and the cache, and the
	// cached copy must not be served in its place.
	assert.Empty(t, c.ActiveConversationID())
	assert.Equal(t, []string{"c1"}, cache.deleted)

	convs := c.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "c2", convs[0].ID)
}

func TestNewConversationResets(t *testing.T) {
	transport := &fakeTransport{
		submitResp: &api.QueryResponse{
			NaturalLanguageResponse: "a",
			NewConversation:         &api.ConversationInfo{ID: "c1", Title: "T"},
		},
	}
	c := newTestController(transport, &fakeCreds{token: "t"})
	c.Apply(run(c.Submit("q")))
	require.Equal(t, "c1", c.ActiveConversationID())

	c.NewConversation()

	assert.Empty(t, c.Messages())
	assert.Empty(t, c.ActiveConversationID())
	assert.Equal(t, StateIdle, c.State())
	// The list keeps the conversation for later resumption
	require.Len(t, c.Conversations(), 1)
}

// =============================================================================
// CONVERSATION LIST
// =============================================================================

func TestListConversations(t *testing.T) {
	transport := &fakeTransport{
		listResp: []api.ConversationInfo{
			{ID: "c2", Title: "Orders"},
			{ID: "c1", Title: "Users"},
		},
	}
	c := newTestController(transport, &fakeCreds{token: "t"})

	c.Apply(run(c.ListConversations()))

	convs := c.Conversations()
	require.Len(t, convs, 2)
	assert.Equal(t, "c2", convs[0].ID)
	assert.False(t, c.ListFromCache())
}

func TestListFailureIsSilent(t *testing.T) {
	transport := &fakeTransport{
		listResp: []api.ConversationInfo{{ID: "c1", Title: "Users"}},
	}
	c := newTestController(transport, &fakeCreds{token: "t"})
	c.Apply(run(c.ListConversations()))
	require.Len(t, c.Conversations(), 1)

	transport.listErr = errors.New("down")
	c.Apply(run(c.ListConversations()))

	// No error message in the log, list unchanged
	assert.Empty(t, c.Messages())
	assert.Len(t, c.Conversations(), 1)
}

func TestListFallsBackToCache(t *testing.T) {
	transport := &fakeTransport{listErr: errors.New("down")}
	cache := newFakeCache()
	cache.convs = []model.Conversation{{ID: "c1", Title: "Cached"}}
	c := NewController(transport, &fakeCreds{token: "t"}, cache, nil)

	c.Apply(run(c.ListConversations()))

	convs := c.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "Cached", convs[0].Title)
	assert.True(t, c.ListFromCache())
}

// =============================================================================
// CACHE WRITE-THROUGH
// =============================================================================

func TestHistoryWriteThrough(t *testing.T) {
	transport := &fakeTransport{
		historyResp: []api.HistoryMessage{{Type: "user", Content: "q"}},
	}
	cache := newFakeCache()
	c := NewController(transport, &fakeCreds{token: "t"}, cache, nil)

	c.Apply(run(c.SelectConversation("c1")))

	require.Contains(t, cache.history, "c1")
	assert.Len(t, cache.history["c1"], 1)
}

func TestListWriteThrough(t *testing.T) {
	transport := &fakeTransport{
		listResp: []api.ConversationInfo{{ID: "c1", Title: "Users"}},
	}
	cache := newFakeCache()
	c := NewController(transport, &fakeCreds{token: "t"}, cache, nil)

	c.Apply(run(c.ListConversations()))

	require.Len(t, cache.convs, 1)
	assert.Equal(t, "c1", cache.convs[0].ID)
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func TestInitializeWithCredential(t *testing.T) {
	transport := &fakeTransport{
		listResp: []api.ConversationInfo{{ID: "c1", Title: "Users"}},
	}
	token := testToken(t, `{"sub":"u1","name":"Ada Lovelace"}`)
	c := newTestController(transport, &fakeCreds{token: token})

	cmd := c.Initialize()
	require.NotNil(t, cmd)

	require.NotNil(t, c.Identity())
	assert.Equal(t, "Ada Lovelace", c.Identity().DisplayName())

	c.Apply(run(cmd))
	assert.Len(t, c.Conversations(), 1)
}

func TestInitializeWithoutCredential(t *testing.T) {
	c := newTestController(&fakeTransport{}, &fakeCreds{})

	assert.Nil(t, c.Initialize())
	assert.Nil(t, c.Identity())
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Messages())
}

func TestInitializeMalformedTokenIsNotFatal(t *testing.T) {
	c := newTestController(&fakeTransport{}, &fakeCreds{token: "not-a-jwt"})

	assert.Nil(t, c.Initialize())
	assert.Nil(t, c.Identity())
	assert.Equal(t, StateIdle, c.State())
}
