// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the dbchat CLI.
//
// Handles "dbchat ask", which sends one question to the server and prints
// the answer to stdout.
//
// Examples:
//   dbchat ask "Which customers ordered last week?"
//   dbchat ask --conversation c42 "And the week before?"
//   dbchat ask --json "Count open tickets"
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/dbchat-tui/internal/api"
	"github.com/jeranaias/dbchat-tui/internal/session"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// newMarkdownRenderer builds a glamour renderer sized to the terminal.
// Returns nil when rendering is not appropriate (piped output, --plain).
func newMarkdownRenderer(plain bool) *glamour.TermRenderer {
	if plain || !IsStdoutTTY() {
		return nil
	}
	width := GetTerminalWidth()
	if width > 100 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderAnswer prints the response body, through glamour when available.
func renderAnswer(text string, renderer *glamour.TermRenderer) {
	if renderer == nil {
		fmt.Println(text)
		return
	}
	out, err := renderer.Render(text)
	if err != nil {
		fmt.Println(text)
		return
	}
	fmt.Print(out)
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// runAsk sends a single query and prints the answer.
func runAsk(args *Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return fmt.Errorf("usage: dbchat ask \"question\"")
	}

	client, store, cfg, err := newClient()
	if err != nil {
		return err
	}
	if _, ok := store.Token(); !ok {
		return fmt.Errorf("no API token stored; run 'dbchat auth set-token' first")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	resp, err := client.SubmitQuery(ctx, query, args.ConversationID)
	if err != nil {
		if errors.Is(err, api.ErrAuthFailed) {
			// Expired or revoked token is dropped so the next run prompts.
			_ = store.Clear()
			return fmt.Errorf("authentication failed; run 'dbchat auth set-token' to sign in again")
		}
		if msg := api.ServerMessage(err); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return err
	}

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	answer := strings.TrimSpace(resp.NaturalLanguageResponse)
	if answer == "" {
		answer = session.FallbackNoResults
	}
	renderAnswer(answer, newMarkdownRenderer(args.Plain))

	if resp.NewConversation != nil && !args.Quiet {
		fmt.Fprintf(os.Stderr, "%s\n",
			renderMuted("conversation: "+resp.NewConversation.ID))
	}
	return nil
}
