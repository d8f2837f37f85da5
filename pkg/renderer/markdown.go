package renderer

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			// Raw HTML passes through and is cleaned by richTextPolicy.
			html.WithUnsafe(),
		),
	)
	richTextPolicy = newRichTextPolicy()
	plainPolicy    = bluemonday.StrictPolicy()
)

func newRichTextPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

// RichText converts block text (markdown with optional inline HTML) into
// sanitized HTML.
func RichText(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(normalizeNewlines(src)), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return richTextPolicy.Sanitize(buf.String()), nil
}

// SanitizeHTML cleans an HTML fragment with the rich-text policy.
func SanitizeHTML(fragment string) string {
	return richTextPolicy.Sanitize(fragment)
}

// PlainText strips every tag.
func PlainText(fragment string) string {
	return plainPolicy.Sanitize(fragment)
}
