package logseq

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// DefaultSummaryLength is the rune budget of a note summary.
const DefaultSummaryLength = 150

var summaryMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Summarize returns the first limit runes of the visible text of a Markdown
// document. Code, images and raw HTML are skipped.
func Summarize(markdown string, limit int) string {
	if limit <= 0 {
		limit = DefaultSummaryLength
	}
	src := []byte(markdown)
	doc := summaryMarkdown.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.CodeSpan, *ast.HTMLBlock, *ast.RawHTML, *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	summary := strings.Join(strings.Fields(b.String()), " ")
	r := []rune(summary)
	if len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return summary
}
