package pipeline

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	umlauts    = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")
	slugStrip  = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a path-safe slug. German umlauts are
// transliterated instead of stripped since most report names carry them.
func Slugify(s string) string {
	s = umlauts.Replace(strings.ToLower(strings.TrimSpace(s)))
	s = slugStrip.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return strings.Trim(s, "-")
}

// DocIDFor derives a stable document ID from a filename and its content
// hash. The same file always maps to the same ID, which keeps chunk IDs
// reproducible across runs.
func DocIDFor(filename, contentHash string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	slug := Slugify(stem)
	if slug == "" {
		slug = "doc"
	}
	if len(contentHash) > 8 {
		contentHash = contentHash[:8]
	}
	return slug + "-" + contentHash
}
