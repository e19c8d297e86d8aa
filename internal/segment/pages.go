package segment

import (
	"fmt"

	"github.com/kweidner/metasynth/internal/document"
)

// PageTracker stamps paragraphs with page numbers during one document
// traversal. It is sequential state owned by a single document run;
// concurrent documents each get their own tracker.
type PageTracker struct {
	docID string
	page  int
	calls int
}

// NewPageTracker starts a tracker on page 1.
func NewPageTracker(docID string) *PageTracker {
	return &PageTracker{docID: docID, page: 1}
}

// Advance consumes one paragraph's break markers and returns the page it
// starts on. Explicit break markers increment the counter; an absolute
// page hint moves it forward. A hint below the current page means the
// source is malformed and the document must be abandoned.
func (t *PageTracker) Advance(p document.RawParagraph) (int, error) {
	t.calls++
	t.page += p.PageBreaks
	if p.PageHint > 0 {
		if p.PageHint < t.page {
			return 0, &document.StructuralError{
				DocID:  t.docID,
				Reason: fmt.Sprintf("page decreased from %d to %d at paragraph %d", t.page, p.PageHint, t.calls),
			}
		}
		t.page = p.PageHint
	}
	return t.page, nil
}

// Page returns the current page without advancing.
func (t *PageTracker) Page() int {
	return t.page
}
