package document

import (
	"strings"

	"github.com/kweidner/metasynth/internal/label"
)

// TextRun is the smallest unit of document text carrying highlight metadata.
type TextRun struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"` // Raw color code from the source: a highlight name or hex value, "" when unhighlighted.
}

// RawParagraph is one source paragraph before segmentation.
type RawParagraph struct {
	Runs       []TextRun `json:"runs"`
	PageBreaks int       `json:"page_breaks,omitempty"` // Explicit page-break markers preceding this paragraph's text.
	PageHint   int       `json:"page_hint,omitempty"`   // Absolute page from formats that know it (PDF), 0 when absent.
	Style      string    `json:"style,omitempty"`       // Paragraph style name, e.g. "Heading1".

	// Stamped during traversal.
	Page    int  `json:"page,omitempty"`
	IsTitle bool `json:"is_title,omitempty"`
}

// Paragraph is one merged paragraph inside a section.
type Paragraph struct {
	Text string `json:"text"`
	Page int    `json:"page"`
}

// Section is a maximal contiguous group of same-label paragraphs.
// Immutable once produced by the assembler.
type Section struct {
	Index      int         `json:"section_index"`
	Label      label.Label `json:"label"`
	Title      string      `json:"title,omitempty"`
	Paragraphs []Paragraph `json:"paragraphs"`
	StartPage  int         `json:"start_page"`
	EndPage    int         `json:"end_page"`
	Confidence float64     `json:"confidence"` // Fraction of body paragraphs whose color matched exactly.
}

// Text joins the section's paragraphs with blank lines.
func (s Section) Text() string {
	var b strings.Builder
	for i, p := range s.Paragraphs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// Chunk is a token-bounded slice of a section's text, the unit handed to
// the downstream extraction collaborator.
type Chunk struct {
	ID             string      `json:"chunk_id"` // {docID}_s{sectionIndex}_c{n}
	DocID          string      `json:"doc_id"`
	Index          int         `json:"chunk_index"` // Sequence number within the document.
	SectionIndex   int         `json:"section_index"`
	Label          label.Label `json:"label"`
	Text           string      `json:"text"`
	OverlapContext string      `json:"overlap_context,omitempty"` // Trailing sentences of the previous chunk, never duplicated into Text.
	TokenCount     int         `json:"token_count"`
	StartPage      int         `json:"start_page"`
	EndPage        int         `json:"end_page"`
	Confidence     float64     `json:"confidence"`
}

// Result is everything one document run produces.
type Result struct {
	DocID    string           `json:"doc_id"`
	Sections []Section        `json:"sections"`
	Chunks   []Chunk          `json:"chunks"`
	Report   ValidationReport `json:"report"`
}
