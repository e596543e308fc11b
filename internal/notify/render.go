package notify

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// RenderHTML converts a Markdown summary to sanitized HTML. Error text in a
// summary can carry scraped page content, so the output is always sanitized.
func RenderHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	out := markdown.Render(doc, renderer)

	return string(bluemonday.UGCPolicy().SanitizeBytes(out))
}
