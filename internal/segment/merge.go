package segment

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kweidner/metasynth/internal/document"
	"github.com/kweidner/metasynth/internal/label"
)

// MergedParagraph is a paragraph after run merging, classification and
// page stamping, ready for section assembly.
type MergedParagraph struct {
	Text    string
	Color   string // Dominant raw color code, "" when no run is highlighted.
	Label   label.Label
	Match   label.Match
	Page    int
	IsTitle bool
}

// MergeRuns reconstructs paragraph text from its runs and picks the
// dominant highlight color.
//
// Text is the direct concatenation of run texts. Word-processor reflow
// splits paragraphs into runs at arbitrary positions, including inside
// words; every separator that belongs in the text is already present in
// the run data, so inserting anything at a run boundary corrupts words.
// The merged text is byte-identical to the source paragraph regardless
// of how the runs were split.
//
// The dominant color is the code covering the greatest total character
// span. Ties go to the entry with the lowest catalog priority;
// uncatalogued colors rank below all catalogued ones.
func MergeRuns(runs []document.TextRun, cat *label.Catalog) (string, string) {
	var b strings.Builder
	spans := make(map[string]int)
	var order []string

	for _, r := range runs {
		b.WriteString(r.Text)
		if r.Color == "" {
			continue
		}
		n := utf8.RuneCountInString(strings.TrimSpace(r.Text))
		if n == 0 {
			continue
		}
		if _, seen := spans[r.Color]; !seen {
			order = append(order, r.Color)
		}
		spans[r.Color] += n
	}

	return b.String(), dominantColor(spans, order, cat)
}

// dominantColor picks the color with the widest span. On equal spans the
// catalog priority decides; among equally uncatalogued colors the first
// seen in the paragraph wins, keeping the result deterministic.
func dominantColor(spans map[string]int, order []string, cat *label.Catalog) string {
	best := ""
	bestSpan := 0
	bestPriority := 0

	for _, code := range order {
		span := spans[code]
		priority := colorPriority(code, cat)
		switch {
		case span > bestSpan:
			best, bestSpan, bestPriority = code, span, priority
		case span == bestSpan && priority < bestPriority:
			best, bestPriority = code, priority
		}
	}
	return best
}

func colorPriority(code string, cat *label.Catalog) int {
	rgb, ok := label.ParseColor(code)
	if !ok {
		return math.MaxInt
	}
	return cat.Priority(rgb)
}
