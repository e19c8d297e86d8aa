package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// FieldKind tags the variant of a category field.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindNumber   FieldKind = "number"
	KindDate     FieldKind = "date"
	KindBoolean  FieldKind = "boolean"
	KindEnum     FieldKind = "enum"
	KindTextList FieldKind = "list_text"
)

// DateLayout is the wire format for date fields.
const DateLayout = "2006-01-02"

func validKind(k FieldKind) bool {
	switch k {
	case KindText, KindNumber, KindDate, KindBoolean, KindEnum, KindTextList:
		return true
	}
	return false
}

// FieldSpec describes one field of a category. MaxLength bounds runes
// for text fields and element count for list fields.
type FieldSpec struct {
	Kind      FieldKind `json:"kind" yaml:"kind"`
	Required  bool      `json:"required" yaml:"required"`
	MaxLength int       `json:"max_length,omitempty" yaml:"max_length"`
	Values    []string  `json:"values,omitempty" yaml:"values"`
	Min       *float64  `json:"min,omitempty" yaml:"min"`
	Max       *float64  `json:"max,omitempty" yaml:"max"`
	Default   any       `json:"default,omitempty" yaml:"default"`
}

// Category groups the fields the extraction collaborator returns for
// one category identifier.
type Category struct {
	Description string               `json:"description,omitempty" yaml:"description"`
	Fields      map[string]FieldSpec `json:"fields" yaml:"fields"`
}

// Schema is the full category table, validated once at load time.
type Schema struct {
	Categories map[string]Category `json:"categories" yaml:"categories"`
}

// DefaultSchema covers the audit-report category set.
func DefaultSchema() *Schema {
	zero := 0.0
	return &Schema{
		Categories: map[string]Category{
			"bericht": {
				Description: "Stammdaten des Prüfberichts",
				Fields: map[string]FieldSpec{
					"titel":     {Kind: KindText, Required: true, MaxLength: 300},
					"pa_nummer": {Kind: KindText, Required: true, MaxLength: 20},
					"datum":     {Kind: KindDate},
				},
			},
			"kernproblem": {
				Fields: map[string]FieldSpec{
					"beschreibung": {Kind: KindText, Required: true, MaxLength: 2000},
				},
			},
			"kosten": {
				Description: "Assoziierte Kosten in Franken",
				Fields: map[string]FieldSpec{
					"betrag":     {Kind: KindNumber, Min: &zero},
					"geschaetzt": {Kind: KindBoolean},
				},
			},
			"risiken": {
				Description: "Risiken des Bundes",
				Fields: map[string]FieldSpec{
					"punkte": {Kind: KindTextList, MaxLength: 10},
				},
			},
			"empfehlungen": {
				Fields: map[string]FieldSpec{
					"liste":            {Kind: KindTextList, MaxLength: 50},
					"prioritaet":       {Kind: KindEnum, Values: []string{"1", "2", "3"}},
					"umsetzungsstatus": {Kind: KindEnum, Values: []string{"offen", "teilweise", "umgesetzt"}},
				},
			},
		},
	}
}

// Parse decodes and validates a schema document.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a schema file from disk.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return Parse(data)
}

// Validate rejects malformed declarations before any payload is ever
// checked against them.
func (s *Schema) Validate() error {
	if len(s.Categories) == 0 {
		return fmt.Errorf("schema declares no categories")
	}
	for name, cat := range s.Categories {
		if len(cat.Fields) == 0 {
			return fmt.Errorf("category %q declares no fields", name)
		}
		for fieldName, spec := range cat.Fields {
			if !validKind(spec.Kind) {
				return fmt.Errorf("category %q field %q: unknown kind %q", name, fieldName, spec.Kind)
			}
			if spec.MaxLength < 0 {
				return fmt.Errorf("category %q field %q: negative max_length %d", name, fieldName, spec.MaxLength)
			}
			if spec.Kind == KindEnum && len(spec.Values) == 0 {
				return fmt.Errorf("category %q field %q: enum without values", name, fieldName)
			}
			if spec.Min != nil && spec.Max != nil && *spec.Min > *spec.Max {
				return fmt.Errorf("category %q field %q: min %v above max %v", name, fieldName, *spec.Min, *spec.Max)
			}
		}
	}
	return nil
}

// CategoryNames returns the declared identifiers in sorted order.
func (s *Schema) CategoryNames() []string {
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidatePayload checks a collaborator's returned payload for one
// category against the schema. Issues accumulate; an empty slice means
// the payload is valid.
func (s *Schema) ValidatePayload(category string, payload map[string]any) []string {
	cat, ok := s.Categories[category]
	if !ok {
		return []string{fmt.Sprintf("unknown category %q", category)}
	}

	var issues []string
	for fieldName, spec := range cat.Fields {
		value, present := payload[fieldName]
		if !present {
			if spec.Required {
				issues = append(issues, fmt.Sprintf("%s: required field missing", fieldName))
			}
			continue
		}
		if issue := checkValue(spec, value); issue != "" {
			issues = append(issues, fmt.Sprintf("%s: %s", fieldName, issue))
		}
	}
	for fieldName := range payload {
		if _, ok := cat.Fields[fieldName]; !ok {
			issues = append(issues, fmt.Sprintf("%s: field not declared for category %q", fieldName, category))
		}
	}
	sort.Strings(issues)
	return issues
}

func checkValue(spec FieldSpec, value any) string {
	switch spec.Kind {
	case KindText:
		text, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected text, got %T", value)
		}
		if spec.MaxLength > 0 && utf8.RuneCountInString(text) > spec.MaxLength {
			return fmt.Sprintf("text length %d above max %d", utf8.RuneCountInString(text), spec.MaxLength)
		}
	case KindNumber:
		n, ok := numericValue(value)
		if !ok {
			return fmt.Sprintf("expected number, got %T", value)
		}
		if spec.Min != nil && n < *spec.Min {
			return fmt.Sprintf("%v below min %v", n, *spec.Min)
		}
		if spec.Max != nil && n > *spec.Max {
			return fmt.Sprintf("%v above max %v", n, *spec.Max)
		}
	case KindDate:
		text, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected date string, got %T", value)
		}
		if _, err := time.Parse(DateLayout, text); err != nil {
			return fmt.Sprintf("date %q not in format %s", text, DateLayout)
		}
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("expected boolean, got %T", value)
		}
	case KindEnum:
		text, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected enum string, got %T", value)
		}
		for _, v := range spec.Values {
			if text == v {
				return ""
			}
		}
		return fmt.Sprintf("value %q not in enum [%s]", text, strings.Join(spec.Values, ", "))
	case KindTextList:
		items, issue := stringItems(value)
		if issue != "" {
			return issue
		}
		if spec.MaxLength > 0 && len(items) > spec.MaxLength {
			return fmt.Sprintf("list has %d items, above max %d", len(items), spec.MaxLength)
		}
	}
	return ""
}

func numericValue(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func stringItems(value any) ([]string, string) {
	switch items := value.(type) {
	case []string:
		return items, ""
	case []any:
		out := make([]string, 0, len(items))
		for i, item := range items {
			text, ok := item.(string)
			if !ok {
				return nil, fmt.Sprintf("list item %d: expected text, got %T", i, item)
			}
			out = append(out, text)
		}
		return out, ""
	}
	return nil, fmt.Sprintf("expected list of text, got %T", value)
}
