// dbchat - a terminal client for conversational database queries.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dbchat-tui/internal/api"
	"github.com/jeranaias/dbchat-tui/internal/auth"
	"github.com/jeranaias/dbchat-tui/internal/cli"
	"github.com/jeranaias/dbchat-tui/internal/config"
	"github.com/jeranaias/dbchat-tui/internal/session"
	"github.com/jeranaias/dbchat-tui/internal/storage"
	"github.com/jeranaias/dbchat-tui/internal/ui/chat"
	"github.com/jeranaias/dbchat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with the cli and api packages
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
	api.Version = Version
}

func main() {
	cmd, args := cli.ParseArgs(os.Args[1:])

	if cmd == cli.CmdTUI {
		runTUI(args)
		return
	}
	os.Exit(cli.Run(cmd, args))
}

// runTUI starts the full-screen chat interface.
func runTUI(args *cli.Args) {
	cfg := config.Global()
	if cfg == nil {
		fmt.Fprintln(os.Stderr, "Error: configuration unavailable")
		os.Exit(1)
	}

	// Inside the alternate screen, stray log output corrupts the display.
	// Errors go to a file sink instead.
	errlog := newErrorLogger()

	tokenPath := cfg.Auth.TokenPath
	if tokenPath == "" {
		tokenPath = auth.DefaultTokenPath()
	}
	store := auth.NewFileStore(tokenPath)

	client := api.NewClient(cfg.Server.URL, store).WithTimeout(cfg.Timeout())

	var cache session.HistoryCache
	if cfg.Storage.CacheEnabled {
		path := cfg.Storage.CachePath
		if path == "" {
			p, err := storage.DefaultCachePath()
			if err == nil {
				path = p
			}
		}
		if path != "" {
			if c, err := storage.Open(path); err == nil {
				cache = c
				defer c.Close()
			} else if errlog != nil {
				errlog.Printf("cache unavailable: %v", err)
			}
		}
	}

	ctrl := session.NewController(client, store, cache, errlog)

	theme := styles.NewTheme()
	m := chat.New(ctrl, theme)

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Pick up config edits made while the TUI is running: retune the client
	// timeout and hand the new config to the update loop.
	if path, err := config.ConfigPath(); err == nil {
		onReload := func(cfg *config.Config) {
			client.WithTimeout(cfg.Timeout())
			p.Send(chat.ConfigReloadedMsg{Config: cfg})
		}
		if watcher, err := config.NewWatcher(path, onReload); err == nil {
			watcher.Watch()
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newErrorLogger opens a log file under the config directory. Returns nil
// when the directory is unavailable; logging is best effort.
func newErrorLogger() *log.Logger {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "dbchat.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil
	}
	return log.New(f, "", log.LstdFlags)
}
