package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/kweidner/metasynth/internal/document"
)

// HTMLParser handles HTML files. Inline background-color styles map to
// run colors, heading tags carry their level as the paragraph style,
// and print-style page-break declarations advance the page counter.
type HTMLParser struct{}

var spaceRuns = regexp.MustCompile(`\s+`)

func (p *HTMLParser) Parse(r io.Reader, filename string) ([]document.RawParagraph, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var paragraphs []document.RawParagraph
	pendingBreaks := 0

	emit := func(raw document.RawParagraph) {
		raw.PageBreaks += pendingBreaks
		pendingBreaks = 0
		paragraphs = append(paragraphs, raw)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if pageBreakBefore(n) {
				pendingBreaks++
			}

			if level := headingLevel(n.Data); level > 0 {
				emit(document.RawParagraph{
					Runs:  elementRuns(n, ""),
					Style: fmt.Sprintf("Heading%d", level),
				})
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "td", "blockquote":
				emit(document.RawParagraph{Runs: elementRuns(n, "")})
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	body := findBody(doc)
	if body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	return paragraphs, nil
}

// elementRuns flattens an element into text runs, carrying the nearest
// enclosing background color down to each text node. Whitespace inside
// a text node collapses to single spaces. Whitespace-only nodes between
// inline elements survive as separator runs so words never fuse when
// the runs are concatenated later.
func elementRuns(n *html.Node, color string) []document.TextRun {
	var runs []document.TextRun
	var collect func(*html.Node, string)
	collect = func(n *html.Node, color string) {
		if n.Type == html.TextNode {
			text := spaceRuns.ReplaceAllString(n.Data, " ")
			if text != "" {
				runs = append(runs, document.TextRun{Text: text, Color: color})
			}
			return
		}
		if n.Type == html.ElementNode {
			if bg := backgroundColor(n); bg != "" {
				color = bg
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c, color)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, color)
	}
	return trimEdgeRuns(runs)
}

// trimEdgeRuns strips the whitespace padding pretty-printed markup
// leaves around an element's content. Interior runs are untouched.
func trimEdgeRuns(runs []document.TextRun) []document.TextRun {
	for len(runs) > 0 && strings.TrimSpace(runs[0].Text) == "" {
		runs = runs[1:]
	}
	for len(runs) > 0 && strings.TrimSpace(runs[len(runs)-1].Text) == "" {
		runs = runs[:len(runs)-1]
	}
	if len(runs) > 0 {
		runs[0].Text = strings.TrimLeft(runs[0].Text, " ")
		last := len(runs) - 1
		runs[last].Text = strings.TrimRight(runs[last].Text, " ")
	}
	return runs
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func backgroundColor(n *html.Node) string {
	for _, decl := range styleDeclarations(n) {
		key, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		if strings.TrimSpace(strings.ToLower(key)) == "background-color" {
			return strings.TrimPrefix(strings.TrimSpace(value), "#")
		}
	}
	return ""
}

func pageBreakBefore(n *html.Node) bool {
	for _, decl := range styleDeclarations(n) {
		key, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.ToLower(key))
		value = strings.TrimSpace(strings.ToLower(value))
		if (key == "page-break-before" && value == "always") ||
			(key == "break-before" && value == "page") {
			return true
		}
	}
	return false
}

func styleDeclarations(n *html.Node) []string {
	for _, attr := range n.Attr {
		if attr.Key == "style" {
			return strings.Split(attr.Val, ";")
		}
	}
	return nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
