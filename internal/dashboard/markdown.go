package dashboard

import (
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders markdown source into a container. Raw HTML in the source is dropped.
func Markdown(id, source string) *Element {
	return Div(id, RawHTML(MarkdownHTML(source)))
}

// MarkdownHTML converts markdown to HTML, e.g. for SetContent outputs
func MarkdownHTML(source string) string {
	// parsers are stateful and must not be reused
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.SkipHTML,
	})
	return string(markdown.ToHTML([]byte(source), p, renderer))
}
