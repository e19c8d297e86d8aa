package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kweidner/metasynth/internal/chunker"
	"github.com/kweidner/metasynth/internal/label"
	"github.com/kweidner/metasynth/internal/schema"
	"github.com/kweidner/metasynth/internal/segment"
	"github.com/kweidner/metasynth/internal/validate"
)

// Profile bundles the segmentation settings for one document corpus:
// the color catalog, title heuristics, chunk sizing, validation knobs
// and optionally a category schema. Profiles load from YAML over the
// built-in defaults, so a file only needs the fields it changes.
type Profile struct {
	Tolerance  float64            `json:"tolerance" yaml:"tolerance"`
	Colors     []ColorMapping     `json:"colors" yaml:"colors"`
	Titles     TitleSettings      `json:"titles" yaml:"titles"`
	Chunking   chunker.Config     `json:"chunking" yaml:"chunking"`
	Validation ValidationSettings `json:"validation" yaml:"validation"`
	Schema     *schema.Schema     `json:"schema,omitempty" yaml:"schema"`
}

// ColorMapping binds one highlight color to a label. The color comes
// either from a Word highlight name or an RRGGBB hex value.
type ColorMapping struct {
	Name     string `json:"name,omitempty" yaml:"name"`
	Color    string `json:"color,omitempty" yaml:"color"`
	Label    string `json:"label" yaml:"label"`
	Priority int    `json:"priority" yaml:"priority"`
}

type TitleSettings struct {
	MaxWords int      `json:"max_words" yaml:"max_words"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

type ValidationSettings struct {
	RequiredLabels    []string `json:"required_labels" yaml:"required_labels"`
	CompletenessRatio float64  `json:"completeness_ratio" yaml:"completeness_ratio"`
}

// DefaultProfile mirrors the built-in catalog and sizing.
func DefaultProfile() *Profile {
	colors := make([]ColorMapping, 0, len(label.DefaultEntries()))
	for _, e := range label.DefaultEntries() {
		colors = append(colors, ColorMapping{
			Name:     e.Name,
			Label:    string(e.Label),
			Priority: e.Priority,
		})
	}

	vcfg := validate.DefaultConfig()
	required := make([]string, 0, len(vcfg.RequiredLabels))
	for _, l := range vcfg.RequiredLabels {
		required = append(required, string(l))
	}

	return &Profile{
		Tolerance: label.DefaultTolerance,
		Colors:    colors,
		Titles: TitleSettings{
			MaxWords: segment.DefaultTitleMaxWords,
			Patterns: segment.DefaultTitlePatterns(),
		},
		Chunking: chunker.DefaultConfig(),
		Validation: ValidationSettings{
			RequiredLabels:    required,
			CompletenessRatio: vcfg.CompletenessRatio,
		},
	}
}

// LoadProfile reads a YAML profile over the defaults. An empty path
// returns the defaults unchanged.
func LoadProfile(path string) (*Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Validate builds every derived component once so a bad profile fails
// at startup, not per document.
func (p *Profile) Validate() error {
	if _, err := p.Catalog(); err != nil {
		return err
	}
	if _, err := p.TitleConfig(); err != nil {
		return err
	}
	if err := p.ChunkerConfig().Validate(); err != nil {
		return err
	}
	if p.Validation.CompletenessRatio < 0 || p.Validation.CompletenessRatio > 1 {
		return fmt.Errorf("completeness_ratio %v outside [0, 1]", p.Validation.CompletenessRatio)
	}
	for _, name := range p.Validation.RequiredLabels {
		if _, err := label.Parse(name); err != nil {
			return fmt.Errorf("required label: %w", err)
		}
	}
	if p.Schema != nil {
		if err := p.Schema.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Catalog resolves the color mappings into a classification catalog.
func (p *Profile) Catalog() (*label.Catalog, error) {
	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("profile defines no color mappings")
	}
	entries := make([]label.Entry, 0, len(p.Colors))
	for i, m := range p.Colors {
		lbl, err := label.Parse(m.Label)
		if err != nil {
			return nil, fmt.Errorf("color mapping %d: %w", i, err)
		}
		if lbl == label.Unknown {
			return nil, fmt.Errorf("color mapping %d: unknown is not mappable", i)
		}

		var rgb label.RGB
		switch {
		case m.Color != "":
			rgb, err = label.ParseHex(m.Color)
			if err != nil {
				return nil, fmt.Errorf("color mapping %d: %w", i, err)
			}
		case m.Name != "":
			var ok bool
			rgb, ok = label.HighlightRGB(m.Name)
			if !ok {
				return nil, fmt.Errorf("color mapping %d: unknown highlight name %q", i, m.Name)
			}
		default:
			return nil, fmt.Errorf("color mapping %d: needs a name or a color", i)
		}

		priority := m.Priority
		if priority == 0 {
			priority = i + 1
		}
		entries = append(entries, label.Entry{Name: m.Name, Color: rgb, Label: lbl, Priority: priority})
	}
	return label.NewCatalog(entries, p.Tolerance)
}

// TitleConfig compiles the title heuristics.
func (p *Profile) TitleConfig() (segment.TitleConfig, error) {
	return segment.NewTitleConfig(p.Titles.MaxWords, p.Titles.Patterns)
}

// ChunkerConfig returns the chunk sizing.
func (p *Profile) ChunkerConfig() chunker.Config {
	return p.Chunking
}

// ValidateConfig assembles the validator configuration.
func (p *Profile) ValidateConfig() validate.Config {
	cfg := validate.Config{
		Chunking:          p.Chunking,
		CompletenessRatio: p.Validation.CompletenessRatio,
	}
	for _, name := range p.Validation.RequiredLabels {
		if lbl, err := label.Parse(name); err == nil {
			cfg.RequiredLabels = append(cfg.RequiredLabels, lbl)
		}
	}
	return cfg
}

// SchemaOrDefault returns the profile's category schema, falling back
// to the built-in audit-report set.
func (p *Profile) SchemaOrDefault() *schema.Schema {
	if p.Schema != nil {
		return p.Schema
	}
	return schema.DefaultSchema()
}
