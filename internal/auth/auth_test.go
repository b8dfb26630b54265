// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func testToken(t *testing.T, payload string) string {
	t.Helper()
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"none"}`)) + "." + enc([]byte(payload)) + "." + enc([]byte("sig"))
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := NewFileStore(path)

	if _, ok := store.Token(); ok {
		t.Fatal("Token() reported a token before any save")
	}

	if err := store.Save("abc123"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	token, ok := store.Token()
	if !ok || token != "abc123" {
		t.Errorf("Token() = %q, %v; want %q, true", token, ok, "abc123")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("token file permissions = %o, want 0600", perm)
		}
	}
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := NewFileStore(path)

	if err := store.Save("abc123"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if store.Exists() {
		t.Error("Exists() = true after Clear")
	}

	// Clearing an already-missing token is not an error.
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestFileStoreTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  abc123\n"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	token, ok := NewFileStore(path).Token()
	if !ok || token != "abc123" {
		t.Errorf("Token() = %q, %v; want trimmed token", token, ok)
	}
}

func TestDecodeClaims(t *testing.T) {
	token := testToken(t, `{"sub":"u1","email":"ada@example.com","name":"Ada Lovelace","exp":4102444800}`)

	claims, err := DecodeClaims(token)
	if err != nil {
		t.Fatalf("DecodeClaims: %v", err)
	}
	if claims.Subject != "u1" {
		t.Errorf("Subject = %q", claims.Subject)
	}
	if claims.DisplayName() != "Ada Lovelace" {
		t.Errorf("DisplayName() = %q", claims.DisplayName())
	}
	if claims.Expired(time.Now()) {
		t.Error("token with far-future exp reported expired")
	}
}

func TestDecodeClaimsMalformed(t *testing.T) {
	for _, token := range []string{"", "abc", "a.b", "a.!!!.c"} {
		if _, err := DecodeClaims(token); !errors.Is(err, ErrMalformedToken) {
			t.Errorf("DecodeClaims(%q) = %v, want ErrMalformedToken", token, err)
		}
	}
}

func TestDisplayNameFallbacks(t *testing.T) {
	if got := (Claims{Email: "a@b.c", Subject: "u1"}).DisplayName(); got != "a@b.c" {
		t.Errorf("DisplayName() = %q, want email fallback", got)
	}
	if got := (Claims{Subject: "u1"}).DisplayName(); got != "u1" {
		t.Errorf("DisplayName() = %q, want subject fallback", got)
	}
}

func TestExpired(t *testing.T) {
	now := time.Unix(1000, 0)
	if (Claims{Exp: 2000}).Expired(now) {
		t.Error("future exp reported expired")
	}
	if !(Claims{Exp: 500}).Expired(now) {
		t.Error("past exp not reported expired")
	}
	if (Claims{}).Expired(now) {
		t.Error("missing exp must never report expired")
	}
}
