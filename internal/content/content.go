// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package content extracts actionable pieces from assistant replies:
// fenced code blocks to copy and markdown image links to open.
package content

import (
	"errors"
	"regexp"
	"strings"

	"github.com/atotto/clipboard"
)

var (
	codeBlockRe = regexp.MustCompile("```(\\w*)\\n([\\s\\S]*?)```")
	imageRe     = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
)

// =============================================================================
// CODE BLOCKS
// =============================================================================

// CodeBlock is one fenced block.
type CodeBlock struct {
	Lang string
	Code string
}

// Label returns the language or "code".
func (b CodeBlock) Label() string {
	if b.Lang == "" {
		return "code"
	}
	return b.Lang
}

// CodeBlocks returns the fenced blocks in text, in order. A block whose
// opening fence is not followed by a newline is not recognised.
func CodeBlocks(text string) []CodeBlock {
	matches := codeBlockRe.FindAllStringSubmatch(text, -1)
	blocks := make([]CodeBlock, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, CodeBlock{
			Lang: m[1],
			Code: strings.TrimRight(m[2], "\n"),
		})
	}
	return blocks
}

// =============================================================================
// IMAGES
// =============================================================================

// Image is a markdown image reference.
type Image struct {
	Alt string
	URL string
}

// Images returns the ![alt](url) references in text, in order.
func Images(text string) []Image {
	matches := imageRe.FindAllStringSubmatch(text, -1)
	images := make([]Image, 0, len(matches))
	for _, m := range matches {
		images = append(images, Image{Alt: m[1], URL: m[2]})
	}
	return images
}

// =============================================================================
// CLIPBOARD
// =============================================================================

var (
	// ErrClipboardUnsupported is returned when no clipboard tool is present.
	ErrClipboardUnsupported = errors.New("clipboard not available")

	// ErrNoCodeBlock is returned for an out-of-range block index.
	ErrNoCodeBlock = errors.New("no such code block")
)

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard uses the platform clipboard.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}

// CopyCodeBlock copies block index i of text. It returns the copied block.
func CopyCodeBlock(cb Clipboard, text string, i int) (CodeBlock, error) {
	blocks := CodeBlocks(text)
	if i < 0 || i >= len(blocks) {
		return CodeBlock{}, ErrNoCodeBlock
	}
	if err := cb.WriteAll(blocks[i].Code); err != nil {
		return CodeBlock{}, err
	}
	return blocks[i], nil
}
