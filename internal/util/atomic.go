// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the dbchat application.
package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriteFile writes data to path so that readers only ever see the old
// complete file or the new complete file: the data goes to a temp file in the
// same directory, is fsynced, and is renamed over the target. The parent
// directory is created with 0755 if missing.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return AtomicWriteFileWithDir(path, data, perm, 0755)
}

// AtomicWriteFileWithDir is AtomicWriteFile with an explicit permission mode
// for a parent directory that needs creating. The token store uses 0700 here
// so the credential directory is owner-only from the start.
func AtomicWriteFileWithDir(path string, data []byte, filePerm, dirPerm os.FileMode) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	// The temp file must live in the target directory; rename is only atomic
	// within one filesystem.
	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := f.Name()

	cleanup := func(err error) error {
		f.Close()
		os.Remove(tmpPath)
		return err
	}

	if _, err := f.Write(data); err != nil {
		return cleanup(fmt.Errorf("writing temp file: %w", err))
	}
	// Sync before rename so a crash cannot leave the new name pointing at
	// unflushed data.
	if err := f.Sync(); err != nil {
		return cleanup(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := f.Close(); err != nil {
		return cleanup(fmt.Errorf("closing temp file: %w", err))
	}

	if err := os.Chmod(tmpPath, filePerm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, absPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", absPath, err)
	}
	return nil
}
