// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package content decomposes backend response text into renderable elements.
package content

// Element is a single renderable piece of a parsed response.
// Concrete types: TextElement, ImageElement, EntityElement.
type Element interface {
	element()
}

// TextElement is a run of plain text. The text is kept verbatim, including
// surrounding spaces, so that adjacent elements reassemble the source line.
type TextElement struct {
	Text string
}

// ImageElement is a reference to an image by URL.
type ImageElement struct {
	URL string
}

// EntityElement pairs a label line with the image URL found on the line
// immediately after it.
type EntityElement struct {
	Label    string
	ImageURL string
}

func (TextElement) element()   {}
func (ImageElement) element()  {}
func (EntityElement) element() {}
