package export

import (
	"fmt"
	"os"

	"github.com/fumiama/go-docx"

	"github.com/kweidner/metasynth/internal/document"
	"github.com/kweidner/metasynth/internal/label"
)

// writeVerifyDocx rebuilds the document for reviewers: one heading per
// section, body text in the section's catalog color, so a reviewer can
// see at a glance where every piece of content ended up.
func writeVerifyDocx(path string, res *document.Result, catalog *label.Catalog) error {
	w := docx.New().WithDefaultTheme()

	w.AddParagraph().AddText("Segmentierungsnachweis " + res.DocID).Size("32")

	for _, sec := range res.Sections {
		heading := fmt.Sprintf("Abschnitt %d: %s", sec.Index+1, sec.Label)
		if sec.Title != "" {
			heading = fmt.Sprintf("Abschnitt %d: %s", sec.Index+1, sec.Title)
		}
		w.AddParagraph().AddText(heading).Size("28")

		meta := fmt.Sprintf("Label %s, Seiten %d–%d, Konfidenz %.2f",
			sec.Label, sec.StartPage, sec.EndPage, sec.Confidence)
		w.AddParagraph().AddText(meta).Size("16").Color("808080")

		hex := sectionHex(sec.Label, catalog)
		for _, para := range sec.Paragraphs {
			run := w.AddParagraph().AddText(para.Text)
			if hex != "" {
				run.Color(hex)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return &RetryableError{Op: "create " + path, Err: err}
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write verification docx: %w", err)
	}
	if err := f.Close(); err != nil {
		return &RetryableError{Op: "close " + path, Err: err}
	}
	return nil
}

// sectionHex returns the catalog color for a label, "" when the label
// has no catalogued color (unknown sections stay black).
func sectionHex(l label.Label, catalog *label.Catalog) string {
	if catalog == nil {
		return ""
	}
	entry, ok := catalog.Lookup(l)
	if !ok {
		return ""
	}
	return entry.Color.Hex()
}
