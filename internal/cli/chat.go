// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-based interactive chat for the dbchat CLI.
//
// Handles "dbchat chat", a readline-style REPL for terminals where the
// full-screen TUI is not wanted. Slash commands switch conversations:
//
//   /new          Start a fresh conversation
//   /list         List saved conversations
//   /open N       Open the Nth conversation from /list (or by id)
//   /help         Show the slash commands
//   /quit         Exit
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/jeranaias/dbchat-tui/internal/config"
	"github.com/jeranaias/dbchat-tui/internal/model"
	"github.com/jeranaias/dbchat-tui/internal/session"
	"github.com/jeranaias/dbchat-tui/internal/storage"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt. Arrow keys
// navigate history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// runChat runs the line-based REPL.
func runChat(args *Args) error {
	client, store, cfg, err := newClient()
	if err != nil {
		return err
	}

	var cache *storage.Cache
	if c, err := openCache(cfg); err == nil {
		cache = c
	} else if args.Verbose {
		fmt.Fprintf(os.Stderr, "%s cache unavailable: %v\n", renderWarning("[Warn]"), err)
	}
	if cache != nil {
		defer cache.Close()
	}

	// An interface holding a nil *storage.Cache is not a nil interface, so
	// only assign when the cache actually opened.
	var histCache session.HistoryCache
	if cache != nil {
		histCache = cache
	}

	ctrl := session.NewController(client, store, histCache, nil)
	runCommand(ctrl, ctrl.Initialize())

	if !args.Quiet {
		fmt.Printf("dbchat %s (server %s)\n", Version, client.BaseURL())
		if id := ctrl.Identity(); id != nil {
			fmt.Printf("signed in as %s\n", id.DisplayName())
		}
		fmt.Println("Type /help for commands, /quit to exit.")
	}

	input := NewChatCLI()
	defer input.Close()

	renderer := newMarkdownRenderer(args.Plain)

	for {
		line, err := input.ReadInput(promptLabel())
		if err != nil {
			// Ctrl+C or Ctrl+D exits.
			if err == liner.ErrPromptAborted {
				fmt.Println()
				return nil
			}
			fmt.Println()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleSlashCommand(line, ctrl, renderer); quit {
				return nil
			}
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		before := len(ctrl.Messages())
		runCommand(ctrl, ctrl.Submit(line))
		printNewMessages(ctrl, before, renderer)
	}
}

// promptLabel returns the styled REPL prompt.
func promptLabel() string {
	if ColorEnabled() {
		return promptStyle.Render("dbchat> ")
	}
	return "dbchat> "
}

// runCommand executes a session command synchronously and applies its event.
func runCommand(ctrl *session.Controller, cmd session.Command) {
	if cmd == nil {
		return
	}
	ctrl.Apply(cmd(context.Background()))
}

// printNewMessages prints log entries appended after index start, skipping
// the echoed user line.
func printNewMessages(ctrl *session.Controller, start int, renderer *glamour.TermRenderer) {
	msgs := ctrl.Messages()
	for _, msg := range msgs[start:] {
		switch msg.Role {
		case model.RoleUser:
			// The user just typed it.
		case model.RoleError:
			fmt.Fprintf(os.Stderr, "%s %s\n", renderError("[Error]"), msg.Content)
		default:
			renderAnswer(msg.Content, renderer)
		}
	}
}

// handleSlashCommand processes a /command. Returns true when the REPL
// should exit.
func handleSlashCommand(line string, ctrl *session.Controller, renderer *glamour.TermRenderer) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit", "/q":
		return true

	case "/help", "/?":
		fmt.Println("  /new          Start a fresh conversation")
		fmt.Println("  /list         List saved conversations")
		fmt.Println("  /open N       Open a conversation by number or id")
		fmt.Println("  /quit         Exit")

	case "/new":
		ctrl.NewConversation()
		fmt.Println(renderSuccess("Started a new conversation."))

	case "/list":
		runCommand(ctrl, ctrl.ListConversations())
		convs := ctrl.Conversations()
		if len(convs) == 0 {
			fmt.Println(renderMuted("No saved conversations."))
			break
		}
		marker := ""
		if ctrl.ListFromCache() {
			marker = renderWarning(" (offline, cached)")
		}
		fmt.Println(renderHeading("Conversations") + marker)
		for i, conv := range convs {
			active := "  "
			if conv.ID == ctrl.ActiveConversationID() {
				active = "* "
			}
			fmt.Printf("%s%2d. %s\n", active, i+1, conv.DisplayTitle())
		}

	case "/open":
		if len(fields) < 2 {
			fmt.Fprintln(os.Stderr, renderError("[Error]")+" usage: /open N")
			break
		}
		id := resolveConversationRef(ctrl, fields[1])
		if id == "" {
			fmt.Fprintln(os.Stderr, renderError("[Error]")+" no such conversation")
			break
		}
		runCommand(ctrl, ctrl.SelectConversation(id))
		if ctrl.ActiveConversationID() != id {
			// The failure message is already in the log.
			printNewMessages(ctrl, 0, renderer)
			break
		}
		for _, msg := range ctrl.Messages() {
			if msg.Role == model.RoleUser {
				fmt.Println(promptLabel() + msg.Content)
				continue
			}
			if msg.Role == model.RoleError {
				fmt.Fprintf(os.Stderr, "%s %s\n", renderError("[Error]"), msg.Content)
				continue
			}
			renderAnswer(msg.Content, renderer)
		}

	default:
		fmt.Fprintf(os.Stderr, "%s unknown command %q, try /help\n",
			renderError("[Error]"), fields[0])
	}
	return false
}

// resolveConversationRef maps a /open argument to a conversation id. Accepts
// a 1-based list index or a literal id.
func resolveConversationRef(ctrl *session.Controller, ref string) string {
	convs := ctrl.Conversations()
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(convs) {
			return convs[n-1].ID
		}
		return ""
	}
	for _, conv := range convs {
		if conv.ID == ref {
			return conv.ID
		}
	}
	return ""
}
