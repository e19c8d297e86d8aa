package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kweidner/metasynth/internal/document"
)

// Parser converts raw document bytes into the ordered paragraph/run
// stream the segmentation engine consumes.
type Parser interface {
	Parse(r io.Reader, filename string) ([]document.RawParagraph, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".csv":  true,
	".docx": true,
	".html": true,
	".htm":  true,
	".md":   true,
	".pdf":  true,
	".txt":  true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return &CSVParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
