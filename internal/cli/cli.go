// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for dbchat.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/dbchat-tui/internal/api"
	"github.com/jeranaias/dbchat-tui/internal/auth"
	"github.com/jeranaias/dbchat-tui/internal/config"
	"github.com/jeranaias/dbchat-tui/internal/storage"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdAuth
	CmdSessions
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	Plain   bool // Disable markdown rendering

	// Command-specific
	Query          string
	ConversationID string
	Subcommand     string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `dbchat - conversational database query client

Dbchat is a terminal front end for a natural-language database Q&A server.
Run it without arguments for the full-screen chat interface.

Usage:
  dbchat                       Launch the interactive TUI
  dbchat ask "question"        Ask a single question and print the answer
  dbchat chat                  Line-based REPL (no full-screen UI)
  dbchat sessions              List saved conversations
  dbchat auth set-token        Store an API token
  dbchat auth status           Show the signed-in identity
  dbchat auth clear            Remove the stored token
  dbchat config show           Print the effective configuration
  dbchat config path           Print the config file location
  dbchat version               Print version information
  dbchat help                  Show this help

Flags:
  -c, --conversation ID   Continue an existing conversation (ask)
  --json                  Output raw JSON (ask, sessions)
  --plain                 Disable markdown rendering (ask)
  -q, --quiet             Minimal output
  -v, --verbose           Verbose output

Environment:
  DBCHAT_SERVER_URL       Override the server URL
  DBCHAT_TOKEN_PATH       Override the token file location
  DBCHAT_NO_CACHE         Disable the local conversation cache
  DBCHAT_THEME            Force a theme (dark, light, auto)
`

// ParseArgs parses command-line arguments into a command and its options.
func ParseArgs(argv []string) (Command, *Args) {
	args := &Args{}

	if len(argv) == 0 {
		return CmdTUI, args
	}

	cmd := CmdTUI
	rest := argv
	switch argv[0] {
	case "ask":
		cmd = CmdAsk
		rest = argv[1:]
	case "chat":
		cmd = CmdChat
		rest = argv[1:]
	case "auth":
		cmd = CmdAuth
		rest = argv[1:]
	case "sessions", "conversations":
		cmd = CmdSessions
		rest = argv[1:]
	case "config":
		cmd = CmdConfig
		rest = argv[1:]
	case "version", "--version", "-V":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	}

	parser := NewArgParser(rest)
	args.Quiet = parser.BoolFlag("quiet") || parser.BoolFlag("q")
	args.Verbose = parser.BoolFlag("verbose") || parser.BoolFlag("v")
	args.JSON = parser.BoolFlag("json")
	args.Plain = parser.BoolFlag("plain")
	args.ConversationID = parser.FlagOr("conversation", parser.Flag("c"))
	args.Subcommand = parser.Subcommand()
	args.Raw = parser.Positional()

	if cmd == CmdAsk {
		args.Query = strings.Join(parser.Positional(), " ")
	}

	return cmd, args
}

// Run dispatches a parsed command. Returns a process exit code.
func Run(cmd Command, args *Args) int {
	switch cmd {
	case CmdAsk:
		return exitCode(runAsk(args))
	case CmdChat:
		return exitCode(runChat(args))
	case CmdAuth:
		return exitCode(runAuth(args))
	case CmdSessions:
		return exitCode(runSessions(args))
	case CmdConfig:
		return exitCode(runConfig(args))
	case CmdVersion:
		fmt.Printf("dbchat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		return 0
	case CmdHelp:
		fmt.Print(usageText)
		return 0
	}
	fmt.Print(usageText)
	return 0
}

func exitCode(err error) int {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", renderError("[Error]"), err)
		return 1
	}
	return 0
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// newClient builds an API client from the effective configuration along with
// the token store it draws credentials from.
func newClient() (*api.Client, *auth.FileStore, *config.Config, error) {
	cfg := config.Global()
	if cfg == nil {
		return nil, nil, nil, fmt.Errorf("configuration unavailable")
	}

	tokenPath := cfg.Auth.TokenPath
	if tokenPath == "" {
		tokenPath = auth.DefaultTokenPath()
	}
	store := auth.NewFileStore(tokenPath)

	client := api.NewClient(cfg.Server.URL, store).WithTimeout(cfg.Timeout())
	return client, store, cfg, nil
}

// openCache opens the local conversation cache when enabled. A nil cache with
// a nil error means caching is turned off.
func openCache(cfg *config.Config) (*storage.Cache, error) {
	if !cfg.Storage.CacheEnabled {
		return nil, nil
	}
	path := cfg.Storage.CachePath
	if path == "" {
		p, err := storage.DefaultCachePath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return storage.Open(path)
}
