// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth provides the bearer credential collaborator: token storage
// and client-side claim decoding.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedToken indicates the token is not a decodable JWT.
var ErrMalformedToken = errors.New("malformed token")

// Claims are the identity claims carried in the token payload. They are used
// for display only; the server re-validates the token on every request, so no
// signature check happens client-side.
type Claims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Exp     int64  `json:"exp"`
}

// DisplayName returns the best available label for the signed-in user.
func (c Claims) DisplayName() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Email != "":
		return c.Email
	default:
		return c.Subject
	}
}

// Expired reports whether the token carried an exp claim that has passed.
// Tokens without an exp claim never report expired.
func (c Claims) Expired(now time.Time) bool {
	return c.Exp != 0 && now.Unix() >= c.Exp
}

// DecodeClaims extracts the claims from a JWT without verifying its
// signature. Returns ErrMalformedToken for anything that is not a
// three-part token with a base64url JSON payload.
func DecodeClaims(token string) (Claims, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	return claims, nil
}
