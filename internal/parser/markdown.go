package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/kweidner/metasynth/internal/document"
)

// MarkdownParser handles Markdown files using goldmark. Headings carry
// their level as the paragraph style, list items become one paragraph
// each, and everything is uncolored since Markdown has no highlights.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) ([]document.RawParagraph, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var paragraphs []document.RawParagraph

	emit := func(text, style string) {
		if text == "" {
			return
		}
		paragraphs = append(paragraphs, document.RawParagraph{
			Runs:  []document.TextRun{{Text: text}},
			Style: style,
		})
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			emit(extractText(node, src), fmt.Sprintf("Heading%d", node.Level))
		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				emit(extractText(item, src), "")
			}
		default:
			emit(extractText(n, src), "")
		}
	}

	return paragraphs, nil
}

// extractText collects the plain text of a goldmark AST node. Text
// lives in the inline nodes; reading block lines as well would emit
// the same bytes twice. Code blocks have no inline children, so their
// raw lines are the content.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
		default:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}
