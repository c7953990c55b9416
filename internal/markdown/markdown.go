// Package markdown renders LLM replies to HTML for the web UI.
package markdown

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM, // tables, strikethrough, autolinks, task lists
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// Raw HTML in a reply is dropped: replies may quote page content.
// Render returns "" when content is empty or cannot be converted, in which
// case the UI shows the plain text.
func Render(content string) string {
	if content == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return ""
	}
	return externalLinks(buf.String())
}

var linkRe = regexp.MustCompile(`<a href="(https?://[^"]*)"`)

// externalLinks opens absolute links in a new tab.
func externalLinks(s string) string {
	return linkRe.ReplaceAllString(s, `<a href="$1" target="_blank" rel="noopener noreferrer"`)
}
