// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-TUI command surface of dbchat: single-shot
// queries, a line-based REPL, token management, conversation listing, and
// configuration inspection. The full-screen interface lives in ui/chat; this
// package covers scripting and terminals where Bubble Tea is not wanted.
package cli
