// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts post bodies into HTML and plain text using
// goldmark. Bodies may be Markdown, raw HTML from the rich editor, or a mix
// of both; raw HTML passes through unchanged.
package markdown

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM, // tables, strikethrough, autolinks, task lists
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithUnsafe(), // rich-editor bodies are stored as HTML
	),
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// ToHTML converts Markdown source into HTML. Raw HTML embedded in the
// source is passed through unchanged.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PlainText renders source and strips every tag, leaving the visible text
// with entities decoded. If rendering fails the raw source is stripped.
func PlainText(source string) string {
	rendered, err := ToHTML(source)
	if err != nil {
		rendered = source
	}
	text := tagPattern.ReplaceAllString(rendered, " ")
	return strings.TrimSpace(html.UnescapeString(text))
}

// WordCount counts whitespace-separated words in the plain text of source.
func WordCount(source string) int {
	return len(strings.Fields(PlainText(source)))
}

// ReadingTime estimates minutes to read source at WordsPerMinute, rounded
// up. Bodies without words take zero minutes.
func ReadingTime(source string) int {
	words := WordCount(source)
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
