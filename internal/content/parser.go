// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package content decomposes backend response text into renderable elements.
package content

import "strings"

// Parse decomposes a full response string into an ordered element sequence.
//
// The input is split on newlines and walked once with a cursor. At each line:
//
//  1. If the line is an entity label candidate (uppercase letters and spaces
//     only) and the next line contains at least one image URL, an
//     EntityElement is emitted and the cursor advances two lines.
//  2. Otherwise, if the line itself contains image URLs, it is split into
//     alternating TextElements and ImageElements at the URL boundaries.
//  3. Otherwise a non-blank line becomes a single TextElement, verbatim.
//
// Blank lines consume a cursor position but emit nothing. Parse is pure and
// total: identical input yields identical output, malformed input degrades to
// plain text, and nothing is ever dropped silently.
func Parse(responseText string) []Element {
	lines := strings.Split(responseText, "\n")
	var elements []Element

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if isEntityLabel(line) && i+1 < len(lines) {
			if urls := ScanLine(lines[i+1]); len(urls) > 0 {
				elements = append(elements, EntityElement{
					Label:    strings.TrimSpace(line),
					ImageURL: urls[0].URL,
				})
				i++ // consumed the image line too
				continue
			}
			// Label with no image after it falls through to plain text.
		}

		if matches := ScanLine(line); len(matches) > 0 {
			elements = append(elements, splitMixedLine(line, matches)...)
			continue
		}

		if strings.TrimSpace(line) != "" {
			elements = append(elements, TextElement{Text: line})
		}
	}

	return elements
}

// isEntityLabel reports whether a line looks like an entity label: non-empty,
// at least one uppercase letter, and nothing but uppercase letters and spaces.
func isEntityLabel(line string) bool {
	hasLetter := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] >= 'A' && line[i] <= 'Z':
			hasLetter = true
		case line[i] == ' ':
		default:
			return false
		}
	}
	return hasLetter
}

// splitMixedLine splits a line containing image URLs into alternating text
// and image elements, preserving the original spans. Text segments that trim
// to nothing are omitted; the rest are emitted verbatim so the line can be
// reconstructed by concatenating the element spans in order.
func splitMixedLine(line string, matches []Match) []Element {
	elements := make([]Element, 0, len(matches)*2+1)

	pos := 0
	for _, m := range matches {
		if text := line[pos:m.Start]; strings.TrimSpace(text) != "" {
			elements = append(elements, TextElement{Text: text})
		}
		elements = append(elements, ImageElement{URL: m.URL})
		pos = m.End
	}
	if text := line[pos:]; strings.TrimSpace(text) != "" {
		elements = append(elements, TextElement{Text: text})
	}

	return elements
}
