package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/kweidner/metasynth/internal/document"
)

// TextParser handles plain text files. Blank lines separate paragraphs
// and form feeds mark page breaks.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]document.RawParagraph, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []document.RawParagraph
	var current strings.Builder
	pendingBreaks := 0

	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, document.RawParagraph{
				Runs:       []document.TextRun{{Text: current.String()}},
				PageBreaks: pendingBreaks,
			})
			current.Reset()
			pendingBreaks = 0
		}
	}
	appendLine := func(line string) {
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}

	for scanner.Scan() {
		line := scanner.Text()
		for strings.Contains(line, "\f") {
			before, after, _ := strings.Cut(line, "\f")
			if strings.TrimSpace(before) != "" {
				appendLine(before)
			}
			flush()
			pendingBreaks++
			line = after
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		appendLine(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paragraphs, nil
}
