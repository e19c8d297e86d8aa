package segment

import (
	"strings"

	"github.com/kweidner/metasynth/internal/document"
	"github.com/kweidner/metasynth/internal/label"
)

// Assemble groups labeled, page-stamped paragraphs into maximal
// same-label sections. A new section starts at every label change.
// Title paragraphs never stand alone: they are buffered and attached to
// the section that follows them, or folded into the preceding section
// when the document ends on titles.
func Assemble(docID string, paras []MergedParagraph) ([]document.Section, []document.Diagnostic, error) {
	if len(paras) == 0 {
		return nil, nil, &document.StructuralError{DocID: docID, Reason: "no content paragraphs to assemble"}
	}

	var sections []document.Section
	var diags []document.Diagnostic
	var pending []string
	pendingPage := 0
	sawColor := false
	var cur *sectionBuilder

	flush := func() {
		if cur != nil {
			sections = append(sections, cur.build(len(sections)))
			cur = nil
		}
	}

	for _, p := range paras {
		if p.Color != "" {
			sawColor = true
		}
		if p.IsTitle {
			pending = append(pending, strings.TrimSpace(p.Text))
			if pendingPage == 0 {
				pendingPage = p.Page
			}
			continue
		}

		if cur == nil || p.Label != cur.label {
			flush()
			cur = &sectionBuilder{label: p.Label, startPage: p.Page, endPage: p.Page}
			if len(pending) > 0 {
				cur.title = strings.Join(pending, " ")
				if pendingPage > 0 && pendingPage < cur.startPage {
					cur.startPage = pendingPage
				}
				pending = nil
				pendingPage = 0
			}
		} else if len(pending) > 0 {
			// A sub-heading inside a continuing section: keep its text
			// in place so nothing is lost.
			cur.addTitleText(strings.Join(pending, " "), pendingPage)
			pending = nil
			pendingPage = 0
		}
		cur.add(p)
	}

	if len(pending) > 0 {
		if cur != nil {
			cur.addTitleText(strings.Join(pending, " "), pendingPage)
			diags = append(diags, document.Diagnostic{
				Code:     "trailing_titles_folded",
				Severity: document.SeverityInfo,
				Message:  "title paragraphs at document end folded into the preceding section",
				Page:     pendingPage,
			})
		} else {
			// The whole document is title paragraphs.
			cur = &sectionBuilder{label: label.Unknown, startPage: pendingPage, endPage: pendingPage}
			cur.addTitleText(strings.Join(pending, " "), pendingPage)
			diags = append(diags, document.Diagnostic{
				Code:     "titles_only_document",
				Severity: document.SeverityWarning,
				Message:  "document contains only title paragraphs",
				Page:     pendingPage,
			})
		}
		pending = nil
	}
	flush()

	if !sawColor {
		diags = append(diags, document.Diagnostic{
			Code:     "uncolored_document",
			Severity: document.SeverityWarning,
			Message:  "document contains no highlighted paragraphs; all content is labeled unknown",
		})
	}

	return sections, diags, nil
}

// sectionBuilder accumulates one section during assembly.
type sectionBuilder struct {
	label     label.Label
	title     string
	paras     []document.Paragraph
	startPage int
	endPage   int
	exact     int
	total     int
}

func (b *sectionBuilder) add(p MergedParagraph) {
	b.paras = append(b.paras, document.Paragraph{Text: p.Text, Page: p.Page})
	if p.Page > b.endPage {
		b.endPage = p.Page
	}
	b.total++
	if p.Match == label.MatchExact {
		b.exact++
	}
}

// addTitleText records title text as section content without counting it
// toward the confidence denominator; titles are metadata, not classified
// body content.
func (b *sectionBuilder) addTitleText(text string, page int) {
	if page == 0 {
		page = b.endPage
	}
	b.paras = append(b.paras, document.Paragraph{Text: text, Page: page})
	if page > b.endPage {
		b.endPage = page
	}
}

func (b *sectionBuilder) build(index int) document.Section {
	confidence := 0.0
	if b.total > 0 {
		confidence = float64(b.exact) / float64(b.total)
	}
	return document.Section{
		Index:      index,
		Label:      b.label,
		Title:      b.title,
		Paragraphs: b.paras,
		StartPage:  b.startPage,
		EndPage:    b.endPage,
		Confidence: confidence,
	}
}
