package utils

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

// ValidateMarkdown checks that a rendered document parses as Markdown using
// Goldmark. Goldmark is very permissive, so this is a sanity check on the
// renderer's output, not a strict lint.
func ValidateMarkdown(input string) bool {
	parser := goldmark.DefaultParser()
	reader := text.NewReader([]byte(input))
	doc := parser.Parse(reader)
	return doc != nil
}

// MarkdownToHTML converts a rendered Markdown artifact to HTML for debugging
// and preview. Embedded raw table markup is escaped rather than re-rendered,
// since goldmark's raw-HTML passthrough stays off by default.
func MarkdownToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return buf.String(), nil
}
