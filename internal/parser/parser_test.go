package parser

import "testing"

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		wantType string
		wantErr  bool
	}{
		{"report.docx", "*parser.DOCXParser", false},
		{"page.html", "*parser.HTMLParser", false},
		{"page.htm", "*parser.HTMLParser", false},
		{"notes.md", "*parser.MarkdownParser", false},
		{"notes.markdown", "*parser.MarkdownParser", false},
		{"scan.pdf", "*parser.PDFParser", false},
		{"plain.txt", "*parser.TextParser", false},
		{"data.csv", "*parser.CSVParser", false},
		{"REPORT.DOCX", "*parser.DOCXParser", false},
		{"archive.xlsx", "", true},
		{"noextension", "", true},
	}

	for _, tt := range tests {
		p, err := ForFile(tt.filename)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got parser %T", tt.filename, p)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.filename, err)
			continue
		}
		if got := typeName(p); got != tt.wantType {
			t.Errorf("%s: expected %s, got %s", tt.filename, tt.wantType, got)
		}
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *DOCXParser:
		return "*parser.DOCXParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *PDFParser:
		return "*parser.PDFParser"
	case *TextParser:
		return "*parser.TextParser"
	case *CSVParser:
		return "*parser.CSVParser"
	}
	return "unknown"
}

func TestIsSupportedExtension(t *testing.T) {
	supported := []string{"a.docx", "b.html", "c.htm", "d.md", "e.pdf", "f.txt", "g.csv", "H.PDF"}
	for _, f := range supported {
		if !IsSupportedExtension(f) {
			t.Errorf("expected %s to be supported", f)
		}
	}
	unsupported := []string{"a.xlsx", "b.doc", "c.png", "noext", ".hidden"}
	for _, f := range unsupported {
		if IsSupportedExtension(f) {
			t.Errorf("expected %s to be unsupported", f)
		}
	}
}
