// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions_cmd.go - Conversation listing for the dbchat CLI.
//
// Handles "dbchat sessions". Lists conversations from the server, falling
// back to the local cache when the server is unreachable.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jeranaias/dbchat-tui/internal/model"
)

// runSessions lists saved conversations.
func runSessions(args *Args) error {
	client, _, cfg, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	var convs []model.Conversation
	fromCache := false

	infos, err := client.ListConversations(ctx)
	if err == nil {
		convs = make([]model.Conversation, len(infos))
		for i, info := range infos {
			convs[i] = model.Conversation{ID: info.ID, Title: info.Title}
		}
	} else {
		cache, cacheErr := openCache(cfg)
		if cacheErr != nil || cache == nil {
			return err
		}
		defer cache.Close()
		cached, cacheErr := cache.Conversations()
		if cacheErr != nil || len(cached) == 0 {
			return err
		}
		convs = cached
		fromCache = true
	}

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(convs)
	}

	if len(convs) == 0 {
		fmt.Println(renderMuted("No saved conversations."))
		return nil
	}

	header := renderHeading("Conversations")
	if fromCache {
		header += renderWarning(" (offline, cached)")
	}
	fmt.Println(header)
	for i, conv := range convs {
		fmt.Printf("%3d. %-40s %s\n", i+1, conv.DisplayTitle(), renderMuted(conv.ID))
	}
	return nil
}
