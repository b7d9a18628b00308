package answer

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var renderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// RenderHTML converts a chart-stripped narrative to HTML for clients that
// want a pre-rendered body. Rendering failures fall back to the raw text.
func RenderHTML(text string) string {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return buf.String()
}
