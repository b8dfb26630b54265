// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Token management commands for the dbchat CLI.
//
// Subcommands:
//   set-token   Store an API token (prompted without echo, or piped)
//   status      Show the signed-in identity from the stored token
//   clear       Remove the stored token
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/jeranaias/dbchat-tui/internal/auth"
)

// runAuth dispatches the auth subcommands.
func runAuth(args *Args) error {
	_, store, _, err := newClient()
	if err != nil {
		return err
	}

	switch args.Subcommand {
	case "set-token", "login":
		return authSetToken(store)
	case "status", "":
		return authStatus(store)
	case "clear", "logout":
		return authClear(store)
	default:
		return fmt.Errorf("unknown auth subcommand %q (want set-token, status, or clear)", args.Subcommand)
	}
}

// authSetToken reads a token and stores it with owner-only permissions.
func authSetToken(store *auth.FileStore) error {
	token, err := readToken()
	if err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("empty token")
	}

	if err := store.Save(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	// Verification is best effort. An opaque token still gets stored, it
	// just has no identity to show.
	if claims, err := auth.DecodeClaims(token); err == nil {
		if claims.Expired(time.Now()) {
			fmt.Println(renderWarning("[!]") + " Token saved, but it is already expired.")
			return nil
		}
		fmt.Printf("%s Token saved for %s.\n", renderSuccess("[OK]"), claims.DisplayName())
		return nil
	}
	fmt.Println(renderSuccess("[OK]") + " Token saved.")
	return nil
}

// readToken prompts on a TTY without echo, otherwise reads one line from
// stdin so tokens can be piped in.
func readToken() (string, error) {
	if IsTTY() {
		fmt.Print("Token: ")
		tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return string(tokenBytes), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading token from stdin: %w", err)
	}
	return line, nil
}

// authStatus prints the identity decoded from the stored token.
func authStatus(store *auth.FileStore) error {
	token, ok := store.Token()
	if !ok {
		fmt.Println(renderMuted("Not signed in. Run 'dbchat auth set-token' to store a token."))
		return nil
	}

	claims, err := auth.DecodeClaims(token)
	if errors.Is(err, auth.ErrMalformedToken) {
		fmt.Println(renderWarning("[!]") + " A token is stored, but it carries no readable identity.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Signed in as %s\n", claims.DisplayName())
	if claims.Email != "" {
		fmt.Printf("  email:   %s\n", claims.Email)
	}
	if claims.Subject != "" {
		fmt.Printf("  subject: %s\n", claims.Subject)
	}
	if claims.Exp > 0 {
		expiry := time.Unix(claims.Exp, 0)
		if claims.Expired(time.Now()) {
			fmt.Printf("  expired: %s\n", renderError(expiry.Format(time.RFC3339)))
		} else {
			fmt.Printf("  expires: %s\n", expiry.Format(time.RFC3339))
		}
	}
	return nil
}

// authClear removes the stored token.
func authClear(store *auth.FileStore) error {
	if !store.Exists() {
		fmt.Println(renderMuted("No token stored."))
		return nil
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	fmt.Println(renderSuccess("[OK]") + " Token removed.")
	return nil
}
