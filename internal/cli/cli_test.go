// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"
)

func TestArgParserFlags(t *testing.T) {
	p := NewArgParser([]string{"show", "--conversation", "c1", "--json", "--depth=3"})

	if p.Subcommand() != "show" {
		t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), "show")
	}
	if p.Flag("conversation") != "c1" {
		t.Errorf("Flag(conversation) = %q, want %q", p.Flag("conversation"), "c1")
	}
	if !p.BoolFlag("json") {
		t.Error("BoolFlag(json) = false, want true")
	}
	if p.Flag("depth") != "3" {
		t.Errorf("Flag(depth) = %q, want %q", p.Flag("depth"), "3")
	}
}

func TestArgParserExplicitBool(t *testing.T) {
	p := NewArgParser([]string{"--json=false", "--plain=true"})

	if p.BoolFlag("json") {
		t.Error("BoolFlag(json) = true, want false")
	}
	if !p.BoolFlag("plain") {
		t.Error("BoolFlag(plain) = false, want true")
	}
}

func TestArgParserKnownBoolDoesNotEatValue(t *testing.T) {
	p := NewArgParser([]string{"--json", "show", "me", "users"})

	if !p.BoolFlag("json") {
		t.Error("BoolFlag(json) = false, want true")
	}
	if p.Subcommand() != "show" {
		t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), "show")
	}
	if len(p.Positional()) != 3 {
		t.Errorf("Positional() has %d entries, want 3", len(p.Positional()))
	}
}

func TestParseArgsDefaultsToTUI(t *testing.T) {
	cmd, _ := ParseArgs(nil)
	if cmd != CmdTUI {
		t.Errorf("ParseArgs(nil) = %v, want CmdTUI", cmd)
	}
}

func TestParseArgsAsk(t *testing.T) {
	cmd, args := ParseArgs([]string{"ask", "how", "many", "users", "--conversation", "c7"})

	if cmd != CmdAsk {
		t.Fatalf("command = %v, want CmdAsk", cmd)
	}
	if args.Query != "how many users" {
		t.Errorf("Query = %q, want %q", args.Query, "how many users")
	}
	if args.ConversationID != "c7" {
		t.Errorf("ConversationID = %q, want %q", args.ConversationID, "c7")
	}
}

func TestParseArgsAuthSubcommand(t *testing.T) {
	cmd, args := ParseArgs([]string{"auth", "set-token"})

	if cmd != CmdAuth {
		t.Fatalf("command = %v, want CmdAuth", cmd)
	}
	if args.Subcommand != "set-token" {
		t.Errorf("Subcommand = %q, want %q", args.Subcommand, "set-token")
	}
}

func TestParseArgsVersionAliases(t *testing.T) {
	for _, argv := range [][]string{{"version"}, {"--version"}, {"-V"}} {
		cmd, _ := ParseArgs(argv)
		if cmd != CmdVersion {
			t.Errorf("ParseArgs(%v) = %v, want CmdVersion", argv, cmd)
		}
	}
}
