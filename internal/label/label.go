package label

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Label is the semantic section category assigned to highlighted content.
type Label string

const (
	Summary         Label = "summary"
	Introduction    Label = "introduction"
	Findings        Label = "findings"
	Evaluation      Label = "evaluation"
	Recommendations Label = "recommendations"
	Response        Label = "response"
	Appendix        Label = "appendix"
	Unknown         Label = "unknown"
)

// All lists every assignable label in report order, Unknown last.
func All() []Label {
	return []Label{
		Summary,
		Introduction,
		Findings,
		Evaluation,
		Recommendations,
		Response,
		Appendix,
		Unknown,
	}
}

// Valid reports whether l is one of the defined labels.
func (l Label) Valid() bool {
	switch l {
	case Summary, Introduction, Findings, Evaluation, Recommendations, Response, Appendix, Unknown:
		return true
	}
	return false
}

// Parse resolves a label name, accepting the legacy "wik" alias for summary.
func Parse(s string) (Label, error) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	if l == "wik" {
		return Summary, nil
	}
	if !l.Valid() {
		return Unknown, fmt.Errorf("unknown label: %q", s)
	}
	return l, nil
}

// RGB is a highlight color in 8-bit RGB space.
type RGB struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// Hex returns the color as an uppercase RRGGBB string without a # prefix.
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// DistanceTo returns the Euclidean distance between two colors.
func (c RGB) DistanceTo(o RGB) float64 {
	dr := float64(c.R) - float64(o.R)
	dg := float64(c.G) - float64(o.G)
	db := float64(c.B) - float64(o.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// ParseHex parses an RRGGBB or #RRGGBB string.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color: %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// highlightTable maps word-processor highlight enum names to RGB values.
// darkYellow deviates from the nominal olive on purpose: reviewers mark
// recommendations with the orange tone Word renders for it.
var highlightTable = map[string]RGB{
	"yellow":      {255, 255, 0},
	"green":       {0, 255, 0},
	"cyan":        {0, 255, 255},
	"magenta":     {255, 0, 255},
	"blue":        {0, 0, 255},
	"red":         {255, 0, 0},
	"darkBlue":    {0, 0, 128},
	"darkCyan":    {0, 128, 128},
	"darkGreen":   {0, 128, 0},
	"darkMagenta": {128, 0, 128},
	"darkRed":     {128, 0, 0},
	"darkYellow":  {255, 140, 0},
	"darkGray":    {128, 128, 128},
	"lightGray":   {192, 192, 192},
	"black":       {0, 0, 0},
	"white":       {255, 255, 255},
}

// HighlightRGB resolves a highlight enum name (case-insensitive) to its RGB value.
func HighlightRGB(name string) (RGB, bool) {
	if c, ok := highlightTable[name]; ok {
		return c, true
	}
	for k, c := range highlightTable {
		if strings.EqualFold(k, name) {
			return c, true
		}
	}
	return RGB{}, false
}

// ParseColor resolves a raw run color code: a highlight enum name or a hex value.
// An empty code means the run carries no highlight.
func ParseColor(code string) (RGB, bool) {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "none") || strings.EqualFold(code, "auto") {
		return RGB{}, false
	}
	if c, ok := HighlightRGB(code); ok {
		return c, true
	}
	if c, err := ParseHex(code); err == nil {
		return c, true
	}
	return RGB{}, false
}
