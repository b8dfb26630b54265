// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local conversation cache for dbchat.
//
// The cache is a write-through mirror of server state: conversation lists and
// histories fetched from the backend are persisted so the client can show an
// offline list when the server is unreachable. The server remains the source
// of truth; cached data is never pushed back.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/dbchat-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrCacheClosed = errors.New("cache is closed")
	ErrNotCached   = errors.New("conversation not in cache")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	position   INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	conversation_id TEXT NOT NULL,
	seq             INTEGER NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	PRIMARY KEY (conversation_id, seq),
	FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_conversations_position ON conversations(position);
`

// =============================================================================
// CACHE
// =============================================================================

// Cache is the local SQLite-backed conversation cache.
type Cache struct {
	db *sql.DB
	mu sync.Mutex

	closed bool
}

// DefaultCachePath returns the default cache database path (~/.dbchat/cache.db).
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".dbchat", "cache.db"), nil
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Cache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

// =============================================================================
// CONVERSATION LIST
// =============================================================================

// ReplaceConversations replaces the cached conversation list with the given
// descriptors, preserving their order. Histories of conversations that remain
// listed are kept; only conversations dropped from the list lose theirs.
func (c *Cache) ReplaceConversations(convs []model.Conversation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prune rows absent from the new list; only their histories cascade
	// away. Still-listed conversations keep their cached messages.
	if len(convs) == 0 {
		if _, err := tx.Exec("DELETE FROM conversations"); err != nil {
			return fmt.Errorf("failed to clear conversations: %w", err)
		}
		return tx.Commit()
	}

	placeholders := strings.Repeat("?,", len(convs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(convs))
	for i, conv := range convs {
		args[i] = conv.ID
	}
	if _, err := tx.Exec(
		"DELETE FROM conversations WHERE id NOT IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("failed to prune conversations: %w", err)
	}

	now := time.Now().Unix()
	stmt, err := tx.Prepare(`
		INSERT INTO conversations (id, title, position, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			position   = excluded.position,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i, conv := range convs {
		if _, err := stmt.Exec(conv.ID, conv.Title, i, now); err != nil {
			return fmt.Errorf("failed to upsert conversation %s: %w", conv.ID, err)
		}
	}

	return tx.Commit()
}

// Conversations returns the cached conversation list in stored order.
func (c *Cache) Conversations() ([]model.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrCacheClosed
	}

	rows, err := c.db.Query(
		"SELECT id, title FROM conversations ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		if err := rows.Scan(&conv.ID, &conv.Title); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// =============================================================================
// MESSAGE HISTORY
// =============================================================================

// SaveHistory stores the full message history of one conversation, replacing
// any previously cached history. The conversation row is created if the list
// has not been cached yet.
func (c *Cache) SaveHistory(conversationID string, msgs []*model.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	_, err = tx.Exec(`
		INSERT INTO conversations (id, title, position, updated_at)
		VALUES (?, '', (SELECT COALESCE(MAX(position), -1) + 1 FROM conversations), ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, conversationID, now)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	if _, err := tx.Exec(
		"DELETE FROM messages WHERE conversation_id = ?", conversationID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO messages (conversation_id, seq, role, content) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range msgs {
		if _, err := stmt.Exec(conversationID, i, msg.Role.String(), msg.Content); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	return tx.Commit()
}

// History returns the cached message history of one conversation in order.
// Returns ErrNotCached when nothing has been stored for the id.
func (c *Cache) History(conversationID string) ([]*model.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrCacheClosed
	}

	rows, err := c.db.Query(`
		SELECT role, content FROM messages
		WHERE conversation_id = ?
		ORDER BY seq ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var msgs []*model.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, model.NewMessage(model.ParseRole(role), content))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(msgs) == 0 {
		return nil, ErrNotCached
	}
	return msgs, nil
}

// DeleteConversation removes one conversation and its history from the cache.
func (c *Cache) DeleteConversation(conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}

	_, err := c.db.Exec("DELETE FROM conversations WHERE id = ?", conversationID)
	return err
}
