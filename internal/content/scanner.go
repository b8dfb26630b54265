// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package content decomposes backend response text into renderable elements.
package content

import "strings"

// imageExtensions are the URL suffixes treated as image references.
// Matching is case-sensitive; the backend emits lowercase extensions.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// urlPrefixes are the schemes a candidate image URL may start with.
var urlPrefixes = []string{"http://", "https://"}

// Match is one image URL found in a line, with its byte span in that line.
// Start is inclusive, End exclusive, so line[Start:End] == URL.
type Match struct {
	URL   string
	Start int
	End   int
}

// ScanLine extracts all image URLs from a single line of text.
//
// A match is an http:// or https:// prefix followed by a greedy run of
// non-whitespace bytes that ends in one of the known image extensions.
// Matches are non-overlapping and returned left to right. ScanLine is total:
// it never fails, and returns nil when the line contains no image URLs.
//
// This is an explicit two-state scan (outside-url / inside-url) rather than a
// regex so there is no hidden scan-position state and no backtracking.
func ScanLine(line string) []Match {
	var matches []Match

	i := 0
	for i < len(line) {
		start, ok := nextPrefix(line, i)
		if !ok {
			break
		}

		// Inside-url state: consume the greedy non-whitespace run.
		end := start
		for end < len(line) && !isSpace(line[end]) {
			end++
		}

		candidate := line[start:end]
		if hasImageExtension(candidate) {
			matches = append(matches, Match{URL: candidate, Start: start, End: end})
		}

		// Resume scanning after the run whether or not it matched; a URL
		// cannot start inside a non-whitespace run we already consumed.
		i = end
	}

	return matches
}

// nextPrefix finds the earliest URL scheme at or after index from.
func nextPrefix(line string, from int) (int, bool) {
	best := -1
	for _, p := range urlPrefixes {
		if idx := strings.Index(line[from:], p); idx >= 0 {
			pos := from + idx
			if best < 0 || pos < best {
				best = pos
			}
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// hasImageExtension reports whether s ends in a known image extension.
func hasImageExtension(s string) bool {
	for _, ext := range imageExtensions {
		if strings.HasSuffix(s, ext) {
			return true
		}
	}
	return false
}

// isSpace reports whether b is ASCII whitespace. URLs never contain the
// multi-byte Unicode spaces, so a byte check is sufficient here.
func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\v' || b == '\f'
}
