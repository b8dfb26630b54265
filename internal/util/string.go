// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the dbchat application.
package util

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// UNICODE: Rune-aware truncation preserves multi-byte characters.
// These functions handle strings correctly regardless of character encoding,
// preventing mid-character truncation that would corrupt UTF-8 strings.

// TruncateRunes truncates a string to a maximum number of runes (characters).
// This is safe for UTF-8 strings as it counts characters, not bytes.
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateRunesNoEllipsis truncates a string to a maximum number of runes
// without appending an ellipsis.
func TruncateRunesNoEllipsis(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// TruncateWidth truncates a string to a maximum display width, accounting
// for double-width characters (CJK) that take 2 terminal columns.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth > 3 {
		return runewidth.Truncate(s, maxWidth, "...")
	}
	return runewidth.Truncate(s, maxWidth, "")
}

// StringWidth returns the display width of a string.
// Double-width characters (CJK) count as 2 columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// RuneLen returns the number of runes (characters) in a string.
// This is safer than len() for UTF-8 strings.
func RuneLen(s string) int {
	return len([]rune(s))
}

// WrapWidth wraps text to the given display width, breaking on spaces where
// possible. Existing newlines are preserved.
func WrapWidth(s string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{s}
	}

	var out []string
	for _, line := range strings.Split(s, "\n") {
		out = append(out, wrapLine(line, maxWidth)...)
	}
	return out
}

// wrapLine wraps a single line to maxWidth display columns.
func wrapLine(line string, maxWidth int) []string {
	if runewidth.StringWidth(line) <= maxWidth {
		return []string{line}
	}

	var out []string
	var current strings.Builder
	currentWidth := 0

	for _, word := range strings.Split(line, " ") {
		wordWidth := runewidth.StringWidth(word)

		// Hard-break words wider than the line
		for wordWidth > maxWidth {
			if currentWidth > 0 {
				out = append(out, current.String())
				current.Reset()
				currentWidth = 0
			}
			head := runewidth.Truncate(word, maxWidth, "")
			if head == "" {
				// A rune wider than maxWidth truncates to nothing; take it
				// anyway so the loop always advances.
				_, size := utf8.DecodeRuneInString(word)
				head = word[:size]
			}
			out = append(out, head)
			word = word[len(head):]
			wordWidth = runewidth.StringWidth(word)
		}

		switch {
		case currentWidth == 0:
			current.WriteString(word)
			currentWidth = wordWidth
		case currentWidth+1+wordWidth <= maxWidth:
			current.WriteString(" ")
			current.WriteString(word)
			currentWidth += 1 + wordWidth
		default:
			out = append(out, current.String())
			current.Reset()
			current.WriteString(word)
			currentWidth = wordWidth
		}
	}

	if currentWidth > 0 || len(out) == 0 {
		out = append(out, current.String())
	}
	return out
}
