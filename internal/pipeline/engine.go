package pipeline

import (
	"fmt"
	"strings"

	"github.com/kweidner/metasynth/internal/chunker"
	"github.com/kweidner/metasynth/internal/config"
	"github.com/kweidner/metasynth/internal/document"
	"github.com/kweidner/metasynth/internal/label"
	"github.com/kweidner/metasynth/internal/segment"
	"github.com/kweidner/metasynth/internal/validate"
)

// Engine runs the segmentation stages for single documents. It holds
// only immutable configuration, so one Engine serves any number of
// concurrent documents.
type Engine struct {
	catalog  *label.Catalog
	titles   segment.TitleConfig
	chunkCfg chunker.Config
	valCfg   validate.Config
}

// NewEngine builds an engine from a profile.
func NewEngine(profile *config.Profile) (*Engine, error) {
	cat, err := profile.Catalog()
	if err != nil {
		return nil, fmt.Errorf("build color catalog: %w", err)
	}
	titles, err := profile.TitleConfig()
	if err != nil {
		return nil, fmt.Errorf("build title config: %w", err)
	}
	return &Engine{
		catalog:  cat,
		titles:   titles,
		chunkCfg: profile.ChunkerConfig(),
		valCfg:   profile.ValidateConfig(),
	}, nil
}

// WithChunking returns a copy of the engine with different chunk
// sizing. The validation bounds follow the override.
func (e *Engine) WithChunking(cfg chunker.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clone := *e
	clone.chunkCfg = cfg
	clone.valCfg.Chunking = cfg
	return &clone, nil
}

// ProcessDocument merges runs, classifies colors, stamps pages,
// assembles sections, splits chunks and validates the result. The
// computation is deterministic: the same paragraphs always produce the
// same Result.
func (e *Engine) ProcessDocument(docID string, paras []document.RawParagraph) (*document.Result, error) {
	if len(paras) == 0 {
		return nil, &document.StructuralError{DocID: docID, Reason: "document contains no paragraphs"}
	}

	tracker := segment.NewPageTracker(docID)
	var diags []document.Diagnostic
	merged := make([]segment.MergedParagraph, 0, len(paras))

	for _, p := range paras {
		// Pages advance even for paragraphs that are later skipped:
		// an empty paragraph can still carry a page break.
		page, err := tracker.Advance(p)
		if err != nil {
			return nil, err
		}

		text, color := segment.MergeRuns(p.Runs, e.catalog)
		if strings.TrimSpace(text) == "" {
			continue
		}

		mp := segment.MergedParagraph{
			Text:    text,
			Color:   color,
			Page:    page,
			IsTitle: p.IsTitle || segment.IsTitle(text, p.Style, e.titles),
		}
		mp.Label, mp.Match = e.classify(color, page, &diags)
		merged = append(merged, mp)
	}

	sections, asmDiags, err := segment.Assemble(docID, merged)
	if err != nil {
		return nil, err
	}
	diags = append(diags, asmDiags...)

	chunks := chunker.SplitSections(docID, sections, e.chunkCfg)
	report := validate.Validate(docID, sections, chunks, diags, e.valCfg)

	return &document.Result{DocID: docID, Sections: sections, Chunks: chunks, Report: report}, nil
}

// classify resolves a paragraph's dominant color against the catalog
// and records how the resolution went. Classification never fails; an
// unusable color just means the unknown label.
func (e *Engine) classify(color string, page int, diags *[]document.Diagnostic) (label.Label, label.Match) {
	if color == "" {
		return label.Unknown, label.MatchNone
	}

	rgb, ok := label.ParseColor(color)
	if !ok {
		*diags = append(*diags, document.Diagnostic{
			Code:     "unparseable_color",
			Severity: document.SeverityWarning,
			Message:  fmt.Sprintf("color %q is neither a highlight name nor a hex value", color),
			Page:     page,
		})
		return label.Unknown, label.MatchNone
	}

	l, m := e.catalog.Classify(rgb)
	switch m {
	case label.MatchTolerance:
		*diags = append(*diags, document.Diagnostic{
			Code:     "tolerance_match",
			Severity: document.SeverityInfo,
			Message:  fmt.Sprintf("color %s accepted as %s within tolerance", rgb.Hex(), l),
			Page:     page,
		})
	case label.MatchNone:
		*diags = append(*diags, document.Diagnostic{
			Code:     "unmapped_color",
			Severity: document.SeverityWarning,
			Message:  fmt.Sprintf("color %s is outside tolerance of every catalogued color", rgb.Hex()),
			Page:     page,
		})
	}
	return l, m
}
