// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth provides the bearer credential collaborator: token storage
// and client-side claim decoding.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/dbchat-tui/internal/util"
)

// Store is the credential collaborator consumed by the session controller.
// The controller only ever reads or clears a credential; acquiring one is an
// external concern.
type Store interface {
	// Token returns the stored bearer token, or ok=false when none is stored.
	Token() (token string, ok bool)
	// Clear removes the stored credential. Clearing an empty store is not an
	// error.
	Clear() error
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps the bearer token in a single file with owner-only
// permissions. Writes are atomic so a crash never leaves a partial token.
type FileStore struct {
	path string
}

// NewFileStore creates a token store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultTokenPath returns the default token location, ~/.dbchat/token.
func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".dbchat", "token")
	}
	return filepath.Join(home, ".dbchat", "token")
}

// Token reads the stored bearer token.
func (s *FileStore) Token() (string, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false
	}
	return token, true
}

// Save stores a bearer token, replacing any previous one.
func (s *FileStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("refusing to store an empty token")
	}
	if err := util.AtomicWriteFileWithDir(s.path, []byte(token+"\n"), 0600, 0700); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Clear removes the stored credential.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// Exists reports whether a credential is currently stored.
func (s *FileStore) Exists() bool {
	_, ok := s.Token()
	return ok
}
