package label

import (
	"fmt"
	"math"
	"sort"
)

// DefaultTolerance is the maximum RGB distance for a tolerance match.
const DefaultTolerance = 10.0

// Entry maps one catalogued highlight color to a label. Priority breaks
// ties when two colors cover an equal character span; lower wins.
type Entry struct {
	Name     string
	Color    RGB
	Label    Label
	Priority int
}

// Catalog is the color-to-label table for one pipeline run. It is built
// once from configuration and passed explicitly into each component.
type Catalog struct {
	entries   []Entry
	byColor   map[RGB]int
	tolerance float64
}

// NewCatalog builds a catalog from entries. Entries are kept in priority
// order. Duplicate colors and unassignable labels are rejected.
func NewCatalog(entries []Entry, tolerance float64) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog needs at least one entry")
	}
	if tolerance < 0 {
		return nil, fmt.Errorf("tolerance must be >= 0, got %v", tolerance)
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	byColor := make(map[RGB]int, len(sorted))
	for i, e := range sorted {
		if !e.Label.Valid() || e.Label == Unknown {
			return nil, fmt.Errorf("entry %q: label %q is not assignable", e.Name, e.Label)
		}
		if prev, dup := byColor[e.Color]; dup {
			return nil, fmt.Errorf("entry %q: color %s already mapped by %q", e.Name, e.Color.Hex(), sorted[prev].Name)
		}
		byColor[e.Color] = i
	}

	return &Catalog{entries: sorted, byColor: byColor, tolerance: tolerance}, nil
}

// DefaultCatalog returns the audit-report color table.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultEntries(), DefaultTolerance)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultEntries lists the reviewer color conventions for audit reports.
// Two colors may share a label (red and darkYellow both mark
// recommendations); priority decides ties.
func DefaultEntries() []Entry {
	return []Entry{
		{Name: "cyan", Color: RGB{0, 255, 255}, Label: Summary, Priority: 1},
		{Name: "yellow", Color: RGB{255, 255, 0}, Label: Introduction, Priority: 2},
		{Name: "green", Color: RGB{0, 255, 0}, Label: Findings, Priority: 3},
		{Name: "blue", Color: RGB{0, 0, 255}, Label: Evaluation, Priority: 4},
		{Name: "darkYellow", Color: RGB{255, 140, 0}, Label: Recommendations, Priority: 5},
		{Name: "red", Color: RGB{255, 0, 0}, Label: Recommendations, Priority: 6},
		{Name: "magenta", Color: RGB{255, 0, 255}, Label: Response, Priority: 7},
		{Name: "lightGray", Color: RGB{192, 192, 192}, Label: Appendix, Priority: 8},
		{Name: "darkGray", Color: RGB{128, 128, 128}, Label: Appendix, Priority: 9},
	}
}

// Match describes how a color resolved against the catalog.
type Match int

const (
	// MatchNone means the color is outside tolerance of every entry.
	MatchNone Match = iota
	// MatchExact means the color equals a catalogued value.
	MatchExact
	// MatchTolerance means the color was accepted via distance matching.
	MatchTolerance
)

func (m Match) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchTolerance:
		return "tolerance"
	default:
		return "none"
	}
}

// Classify resolves a color to a label. Exact match first, then nearest
// catalogued color within tolerance, otherwise Unknown. It never fails.
func (c *Catalog) Classify(color RGB) (Label, Match) {
	if i, ok := c.byColor[color]; ok {
		return c.entries[i].Label, MatchExact
	}

	best := -1
	bestDist := math.MaxFloat64
	for i, e := range c.entries {
		d := color.DistanceTo(e.Color)
		// Entries are priority-ordered, so strict less keeps the
		// lowest priority on equal distance.
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best >= 0 && bestDist <= c.tolerance {
		return c.entries[best].Label, MatchTolerance
	}
	return Unknown, MatchNone
}

// Priority returns the tie-break rank for a color. Colors not in the
// catalog rank below every catalogued color.
func (c *Catalog) Priority(color RGB) int {
	if i, ok := c.byColor[color]; ok {
		return c.entries[i].Priority
	}
	return math.MaxInt
}

// Lookup finds the entry for a label, preferring the lowest priority.
func (c *Catalog) Lookup(l Label) (Entry, bool) {
	for _, e := range c.entries {
		if e.Label == l {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns the catalog content in priority order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Tolerance returns the configured distance threshold.
func (c *Catalog) Tolerance() float64 {
	return c.tolerance
}
