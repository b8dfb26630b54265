// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP transport to the database Q&A backend.
//
// The backend exposes three endpoints, all requiring a bearer credential:
//
//	POST /query              submit a natural-language question
//	GET  /conversations      list conversation descriptors
//	GET  /conversation/{id}  fetch full history for one conversation
//
// The client performs no retries: the session controller surfaces every
// failure as exactly one error message, so a transparent retry here would
// change user-visible semantics.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Configuration constants for the backend API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// sharedHTTPClient is the pooled HTTP client used for all backend requests.
// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoCredential indicates no bearer token is available.
	ErrNoCredential = errors.New("no credential available")

	// ErrAuthFailed indicates the server rejected the credential (401).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotFound indicates the requested conversation does not exist.
	ErrNotFound = errors.New("conversation not found")
)

// APIError is a non-auth error response from the backend.
type APIError struct {
	Status  int
	Message string

	// err carries a sentinel such as ErrNotFound so errors.Is keeps working
	// while the server's own wording stays available to ServerMessage.
	err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// Unwrap exposes the wrapped sentinel, if any.
func (e *APIError) Unwrap() error { return e.err }

// ServerMessage extracts a server-supplied error string from err, if any.
// Used by the controller to prefer the backend's own wording over the fixed
// fallback.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversationId,omitempty"`
}

// ConversationInfo describes one conversation in list and query responses.
type ConversationInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// QueryResponse is the body of a successful POST /query.
type QueryResponse struct {
	NaturalLanguageResponse string            `json:"natural_language_response"`
	NewConversation         *ConversationInfo `json:"newConversation,omitempty"`
}

// HistoryMessage is one record of GET /conversation/{id}.
type HistoryMessage struct {
	Type    string `json:"type"` // "user", "bot", or "error"
	Content string `json:"content"`
}

// errorResponse is the error body shape the backend uses on failures.
type errorResponse struct {
	Error string `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// TokenSource supplies the bearer credential for requests. Satisfied by
// auth.Store.
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to the database Q&A backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *log.Logger
}

// NewClient creates a backend client. The token source may not be nil; the
// logger may be nil, in which case requests are not logged.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: sharedHTTPClient,
		tokens:     tokens,
	}
}

// WithTimeout sets the request timeout. The shared pooled transport is kept.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	client := *sharedHTTPClient
	client.Timeout = timeout
	c.httpClient = &client
	return c
}

// WithLogger sets the request logger.
func (c *Client) WithLogger(logger *log.Logger) *Client {
	c.logger = logger
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// OPERATIONS
// =============================================================================

// SubmitQuery posts a natural-language question. conversationID may be empty
// for a fresh session; the server then creates a conversation and returns its
// descriptor in the response.
func (c *Client) SubmitQuery(ctx context.Context, query, conversationID string) (*QueryResponse, error) {
	body := QueryRequest{Query: query, ConversationID: conversationID}

	var resp QueryResponse
	if err := c.doJSON(ctx, http.MethodPost, "/query", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListConversations fetches the conversation descriptors, most recent first.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationInfo, error) {
	var list []ConversationInfo
	if err := c.doJSON(ctx, http.MethodGet, "/conversations", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// History fetches the full message history of one conversation.
func (c *Client) History(ctx context.Context, conversationID string) ([]HistoryMessage, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: empty conversation id", ErrNotFound)
	}

	var msgs []HistoryMessage
	path := "/conversation/" + url.PathEscape(conversationID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doJSON performs one request and decodes the JSON response into out.
// SECURITY: the bearer token is attached per-request and never logged.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	token, ok := c.tokens.Token()
	if !ok {
		return ErrNoCredential
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "dbchat/"+Version)

	c.logRequest(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	data, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// readResponse reads the body with a size cap.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return data, nil
}

// handleErrorResponse converts HTTP error responses to typed Go errors,
// preferring the server-supplied error string when the body parses.
func handleErrorResponse(statusCode int, body []byte) error {
	var serverErr errorResponse
	msg := ""
	if err := json.Unmarshal(body, &serverErr); err == nil {
		msg = serverErr.Error
	}

	switch statusCode {
	case http.StatusUnauthorized:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrAuthFailed, msg)
		}
		return ErrAuthFailed
	case http.StatusNotFound:
		if msg != "" {
			return &APIError{Status: statusCode, Message: msg, err: ErrNotFound}
		}
		return ErrNotFound
	default:
		return &APIError{Status: statusCode, Message: msg}
	}
}

// logRequest logs an API request without exposing sensitive data.
// Headers and bodies are never logged; they carry the credential and the
// user's question.
func (c *Client) logRequest(req *http.Request) {
	if c.logger != nil {
		c.logger.Printf("api request: %s %s", req.Method, req.URL.Path)
	}
}

// logResponse logs an API response status and duration only.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	if c.logger != nil {
		c.logger.Printf("api response: %d (%v)", resp.StatusCode, duration)
	}
}

// Version is the client version reported in the User-Agent header.
// Overridden at build time via -ldflags.
var Version = "0.1.0"
