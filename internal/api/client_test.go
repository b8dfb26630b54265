// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticTokens is a TokenSource returning a fixed credential.
type staticTokens struct {
	token string
}

func (s staticTokens) Token() (string, bool) {
	return s.token, s.token != ""
}

func TestSubmitQuery(t *testing.T) {
	var gotAuth string
	var gotBody QueryRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/query", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(QueryResponse{
			NaturalLanguageResponse: "There are 42 users.",
			NewConversation:         &ConversationInfo{ID: "c1", Title: "Users"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "tok-123"})
	resp, err := client.SubmitQuery(context.Background(), "how many users?", "")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "how many users?", gotBody.Query)
	assert.Empty(t, gotBody.ConversationID)
	assert.Equal(t, "There are 42 users.", resp.NaturalLanguageResponse)
	require.NotNil(t, resp.NewConversation)
	assert.Equal(t, "c1", resp.NewConversation.ID)
}

func TestSubmitQueryExistingConversation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "c9", req.ConversationID)
		json.NewEncoder(w).Encode(QueryResponse{NaturalLanguageResponse: "ok"})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "t"})
	resp, err := client.SubmitQuery(context.Background(), "q", "c9")
	require.NoError(t, err)
	assert.Nil(t, resp.NewConversation)
}

func TestSubmitQueryNoCredential(t *testing.T) {
	client := NewClient("http://localhost:0", staticTokens{})
	_, err := client.SubmitQuery(context.Background(), "q", "")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "token expired"})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "stale"})
	_, err := client.SubmitQuery(context.Background(), "q", "")
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Contains(t, err.Error(), "token expired")
}

func TestServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "database unavailable"})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "t"})
	_, err := client.SubmitQuery(context.Background(), "q", "")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "database unavailable", ServerMessage(err))
}

func TestServerErrorUnparseableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "t"})
	_, err := client.SubmitQuery(context.Background(), "q", "")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Message)
	assert.Empty(t, ServerMessage(err))
}

func TestListConversations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/conversations", r.URL.Path)
		json.NewEncoder(w).Encode([]ConversationInfo{
			{ID: "c2", Title: "Orders"},
			{ID: "c1", Title: "Users"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "t"})
	list, err := client.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c2", list[0].ID)
}

func TestHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/conversation/c1", r.URL.Path)
		json.NewEncoder(w).Encode([]HistoryMessage{
			{Type: "user", Content: "how many users?"},
			{Type: "bot", Content: "There are 42 users."},
			{Type: "error", Content: "Server error occurred"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "t"})
	msgs, err := client.History(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", msgs[0].Type)
	assert.Equal(t, "error", msgs[2].Type)
}

func TestHistoryEscapesID(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode([]HistoryMessage{})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "t"})
	_, err := client.History(context.Background(), "a/b c")
	require.NoError(t, err)
	assert.Equal(t, "/conversation/a%2Fb%20c", gotPath)
}

func TestHistoryEmptyID(t *testing.T) {
	client := NewClient("http://localhost:0", staticTokens{token: "t"})
	_, err := client.History(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no such conversation"})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "t"})
	_, err := client.History(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	// The backend's wording survives alongside the sentinel.
	assert.Equal(t, "no such conversation", ServerMessage(err))
}

func TestHistoryNotFoundWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "t"})
	_, err := client.History(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, ServerMessage(err))
}

func TestResponseSizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"natural_language_response":"`))
		w.Write([]byte(strings.Repeat("x", MaxResponseSize)))
		w.Write([]byte(`"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "t"})
	_, err := client.SubmitQuery(context.Background(), "q", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}

func TestContextCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background read and can
		// observe the client disconnect; otherwise r.Context() never fires
		// and Close() deadlocks.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "t"})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.SubmitQuery(ctx, "q", "")
	assert.ErrorIs(t, err, context.Canceled)
}
