// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Unified argument parsing for all CLI commands in dbchat.
package cli

import (
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser provides unified argument parsing for CLI commands.
// It handles multiple flag formats consistently:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value needed)
//   - Positional arguments: arguments without flags
//   - Subcommands: first positional argument
type ArgParser struct {
	subcommand string
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser creates a new argument parser from raw arguments.
//
// Example:
//
//	args := NewArgParser([]string{"show", "--conversation", "c1", "--json"})
//	args.Subcommand()       // "show"
//	args.Flag("conversation") // "c1"
//	args.BoolFlag("json")   // true
func NewArgParser(raw []string) *ArgParser {
	parser := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0),
		raw:        raw,
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if strings.HasPrefix(arg, "-") {
			// --flag=value format
			if strings.Contains(arg, "=") {
				parts := strings.SplitN(arg, "=", 2)
				flagName := strings.TrimLeft(parts[0], "-")
				flagValue := parts[1]

				// Boolean flags can be explicit: --json=true, --json=false
				if flagValue == "true" || flagValue == "false" {
					parser.boolFlags[flagName] = flagValue == "true"
				} else {
					parser.flags[flagName] = flagValue
				}
				i++
				continue
			}

			flagName := strings.TrimLeft(arg, "-")

			if knownBoolFlags[flagName] {
				parser.boolFlags[flagName] = true
				i++
				continue
			}

			if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
				parser.flags[flagName] = raw[i+1]
				i += 2
			} else {
				parser.boolFlags[flagName] = true
				i++
			}
		} else {
			parser.positional = append(parser.positional, arg)
			i++
		}
	}

	if len(parser.positional) > 0 {
		parser.subcommand = parser.positional[0]
	}

	return parser
}

// knownBoolFlags never consume the following argument as a value. Without
// this, "ask --json show me users" would eat "show" as the flag value.
var knownBoolFlags = map[string]bool{
	"json":    true,
	"plain":   true,
	"quiet":   true,
	"q":       true,
	"verbose": true,
	"v":       true,
}

// Subcommand returns the first positional argument, or "" if none.
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the value of a string flag, or "" if not set.
func (p *ArgParser) Flag(name string) string {
	return p.flags[name]
}

// FlagOr returns the value of a string flag, or fallback if not set.
func (p *ArgParser) FlagOr(name, fallback string) string {
	if v, ok := p.flags[name]; ok {
		return v
	}
	return fallback
}

// BoolFlag returns true if a boolean flag was set.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[name]
}

// Positional returns all positional arguments, including the subcommand.
func (p *ArgParser) Positional() []string {
	return p.positional
}

// Rest returns positional arguments after the subcommand.
func (p *ArgParser) Rest() []string {
	if len(p.positional) <= 1 {
		return nil
	}
	return p.positional[1:]
}
