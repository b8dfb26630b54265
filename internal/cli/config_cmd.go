// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration inspection for the dbchat CLI.
//
// Subcommands:
//   show   Print the effective configuration (defaults + file + env)
//   path   Print the config file location
//   init   Write a default config file if none exists
package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/dbchat-tui/internal/config"
)

// runConfig dispatches the config subcommands.
func runConfig(args *Args) error {
	switch args.Subcommand {
	case "show", "":
		return configShow()
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "init":
		return configInit()
	default:
		return fmt.Errorf("unknown config subcommand %q (want show, path, or init)", args.Subcommand)
	}
}

// configShow prints the effective configuration.
func configShow() error {
	cfg := config.Global()
	if cfg == nil {
		return fmt.Errorf("configuration unavailable")
	}

	fmt.Println(renderHeading("Server"))
	fmt.Printf("  url:     %s\n", cfg.Server.URL)
	fmt.Printf("  timeout: %ds\n", cfg.Server.TimeoutSecs)

	fmt.Println(renderHeading("Auth"))
	tokenPath := cfg.Auth.TokenPath
	if tokenPath == "" {
		tokenPath = renderMuted("(default)")
	}
	fmt.Printf("  token_path: %s\n", tokenPath)

	fmt.Println(renderHeading("Storage"))
	fmt.Printf("  cache_enabled: %v\n", cfg.Storage.CacheEnabled)
	cachePath := cfg.Storage.CachePath
	if cachePath == "" {
		cachePath = renderMuted("(default)")
	}
	fmt.Printf("  cache_path:    %s\n", cachePath)

	fmt.Println(renderHeading("UI"))
	fmt.Printf("  theme:        %s\n", cfg.UI.Theme)
	fmt.Printf("  show_sidebar: %v\n", cfg.UI.ShowSidebar)
	return nil
}

// configInit writes a default config file if none exists yet.
func configInit() error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	cfg := config.Default()
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("%s Wrote %s\n", renderSuccess("[OK]"), path)
	return nil
}
