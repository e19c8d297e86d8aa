package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/kweidner/metasynth/internal/document"
)

// DOCXParser reads the paragraph and run structure straight from the
// OOXML word/document.xml part. The generic docx libraries flatten runs
// to plain text and drop the run-level highlight metadata, which is the
// whole input signal here, so the part is decoded directly.
type DOCXParser struct{}

type wpDocument struct {
	Body wpBody `xml:"body"`
}

type wpBody struct {
	Paragraphs []wpParagraph `xml:"p"`
}

type wpParagraph struct {
	Properties *wpParaProps `xml:"pPr"`
	Runs       []wpRun      `xml:"r"`
}

type wpParaProps struct {
	Style *wpVal `xml:"pStyle"`
}

type wpRun struct {
	Properties *wpRunProps `xml:"rPr"`
	Texts      []string    `xml:"t"`
	Breaks     []wpBreak   `xml:"br"`
	Rendered   []wpEmpty   `xml:"lastRenderedPageBreak"`
}

type wpRunProps struct {
	Highlight *wpVal   `xml:"highlight"`
	Shade     *wpShade `xml:"shd"`
}

type wpVal struct {
	Val string `xml:"val,attr"`
}

type wpShade struct {
	Fill string `xml:"fill,attr"`
}

type wpBreak struct {
	Type string `xml:"type,attr"`
}

type wpEmpty struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) ([]document.RawParagraph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}

	var doc wpDocument
	found := false
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open document part: %w", err)
		}
		err = xml.NewDecoder(rc).Decode(&doc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("decode document part: %w", err)
		}
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("%s: no word/document.xml part", filename)
	}

	// Explicit page breaks are authoritative. Only documents without a
	// single one fall back to the renderer's cached page boundaries, so
	// the two signals never double-count.
	explicitTotal := 0
	for _, para := range doc.Body.Paragraphs {
		explicitTotal += countExplicitBreaks(para)
	}

	paragraphs := make([]document.RawParagraph, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		raw := document.RawParagraph{
			Runs:  paragraphRuns(para),
			Style: paragraphStyle(para),
		}
		if explicitTotal > 0 {
			raw.PageBreaks = countExplicitBreaks(para)
		} else {
			raw.PageBreaks = countRenderedBreaks(para)
		}
		paragraphs = append(paragraphs, raw)
	}
	return paragraphs, nil
}

func paragraphRuns(para wpParagraph) []document.TextRun {
	runs := make([]document.TextRun, 0, len(para.Runs))
	for _, r := range para.Runs {
		var text bytes.Buffer
		for _, t := range r.Texts {
			text.WriteString(t)
		}
		if text.Len() == 0 {
			continue
		}
		runs = append(runs, document.TextRun{
			Text:  text.String(),
			Color: runColor(r),
		})
	}
	return runs
}

// runColor prefers the highlight name; shading fill is the alternative
// marking reviewers sometimes use for the same purpose.
func runColor(r wpRun) string {
	if r.Properties == nil {
		return ""
	}
	if h := r.Properties.Highlight; h != nil && h.Val != "" && h.Val != "none" {
		return h.Val
	}
	if s := r.Properties.Shade; s != nil && s.Fill != "" && s.Fill != "auto" {
		return s.Fill
	}
	return ""
}

func paragraphStyle(para wpParagraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func countExplicitBreaks(para wpParagraph) int {
	n := 0
	for _, r := range para.Runs {
		for _, br := range r.Breaks {
			if br.Type == "page" {
				n++
			}
		}
	}
	return n
}

func countRenderedBreaks(para wpParagraph) int {
	n := 0
	for _, r := range para.Runs {
		n += len(r.Rendered)
	}
	return n
}
