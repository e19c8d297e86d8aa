package validate

import (
	"strings"
	"testing"

	"github.com/kweidner/metasynth/internal/chunker"
	"github.com/kweidner/metasynth/internal/document"
	"github.com/kweidner/metasynth/internal/label"
)

func chunk(id string, sectionIndex int, lbl label.Label, tokens, startPage int) document.Chunk {
	return document.Chunk{
		ID:           id,
		DocID:        "doc-1",
		SectionIndex: sectionIndex,
		Label:        lbl,
		Text:         strings.TrimSpace(strings.Repeat("wort ", tokens)),
		TokenCount:   tokens,
		StartPage:    startPage,
		EndPage:      startPage,
	}
}

func findResult(t *testing.T, report document.ValidationReport, rule string) document.RuleResult {
	t.Helper()
	for _, r := range report.Results {
		if r.Rule == rule {
			return r
		}
	}
	t.Fatalf("rule %q missing from report", rule)
	return document.RuleResult{}
}

func TestValidate_AllRulesPresentInOrder(t *testing.T) {
	report := Validate("doc-1", nil, nil, nil, DefaultConfig())

	want := []string{"label_distribution", "size_bounds", "no_overlap", "completeness", "page_monotonicity"}
	if len(report.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(report.Results))
	}
	for i, rule := range want {
		if report.Results[i].Rule != rule {
			t.Errorf("result %d: expected rule %q, got %q", i, rule, report.Results[i].Rule)
		}
	}
	if report.DocID != "doc-1" {
		t.Errorf("expected doc ID %q, got %q", "doc-1", report.DocID)
	}
	if report.GeneratedAt.IsZero() {
		t.Error("expected GeneratedAt to be set")
	}
}

func TestLabelDistribution_WarnsOnMissingLabels(t *testing.T) {
	chunks := []document.Chunk{
		chunk("c0", 0, label.Summary, 100, 1),
		chunk("c1", 1, label.Findings, 100, 2),
	}

	report := Validate("doc-1", nil, chunks, nil, DefaultConfig())
	res := findResult(t, report, "label_distribution")
	if res.Passed {
		t.Error("expected label_distribution to fail without recommendations")
	}
	if res.Severity != document.SeverityWarning {
		t.Errorf("expected warning severity, got %q", res.Severity)
	}
	if !strings.Contains(res.Message, "recommendations") {
		t.Errorf("expected missing label in message, got %q", res.Message)
	}

	// Warnings alone do not fail the report.
	if !report.Passed() {
		t.Error("expected report to pass with only warning failures")
	}
}

func TestLabelDistribution_PassesWhenAllPresent(t *testing.T) {
	chunks := []document.Chunk{
		chunk("c0", 0, label.Summary, 100, 1),
		chunk("c1", 1, label.Findings, 100, 2),
		chunk("c2", 2, label.Recommendations, 100, 3),
	}

	report := Validate("doc-1", nil, chunks, nil, DefaultConfig())
	if res := findResult(t, report, "label_distribution"); !res.Passed {
		t.Errorf("expected pass, got failure: %s", res.Message)
	}
}

func TestSizeBounds_FlagsOutOfRangeChunks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunking = chunker.Config{MaxTokens: 500, MinTokens: 50}

	chunks := []document.Chunk{
		chunk("c0", 0, label.Findings, 400, 1),
		chunk("c1", 0, label.Findings, 30, 2),
		chunk("c2", 1, label.Summary, 600, 3),
	}

	report := Validate("doc-1", nil, chunks, nil, cfg)
	res := findResult(t, report, "size_bounds")
	if res.Passed {
		t.Error("expected size_bounds to fail")
	}
	if res.Severity != document.SeverityError {
		t.Errorf("expected error severity, got %q", res.Severity)
	}
	if !strings.Contains(res.Message, "c1") || !strings.Contains(res.Message, "c2") {
		t.Errorf("expected both violations in message, got %q", res.Message)
	}
	if report.Passed() {
		t.Error("expected report to fail on error-severity result")
	}
}

func TestSizeBounds_PermitsUndersizedSingleton(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunking = chunker.Config{MaxTokens: 500, MinTokens: 50}

	// Section 1 produced exactly one small chunk.
	chunks := []document.Chunk{
		chunk("c0", 0, label.Findings, 400, 1),
		chunk("c1", 1, label.Response, 10, 2),
	}

	report := Validate("doc-1", nil, chunks, nil, cfg)
	res := findResult(t, report, "size_bounds")
	if !res.Passed {
		t.Errorf("expected pass with permitted singleton, got failure: %s", res.Message)
	}
	if !strings.Contains(res.Message, "singleton") {
		t.Errorf("expected singleton note in message, got %q", res.Message)
	}
}

func TestOverlap_FailsOnUnexpectedContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunking = chunker.Config{MaxTokens: 500, MinTokens: 50}

	c := chunk("c0", 0, label.Findings, 100, 1)
	c.OverlapContext = "vorheriger Satz"

	report := Validate("doc-1", nil, []document.Chunk{c}, nil, cfg)
	res := findResult(t, report, "no_overlap")
	if res.Passed {
		t.Error("expected no_overlap to fail")
	}
	if !strings.Contains(res.Message, "c0") {
		t.Errorf("expected chunk ID in message, got %q", res.Message)
	}
}

func TestOverlap_DetectsDuplicatedBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunking = chunker.Config{MaxTokens: 500, MinTokens: 50}

	repeated := "Die Prüfung ergab keine wesentlichen Beanstandungen im Berichtsjahr."
	c0 := chunk("c0", 0, label.Findings, 100, 1)
	c0.Text = "Erster Abschnitt des Berichts. " + repeated
	c1 := chunk("c1", 0, label.Findings, 100, 1)
	c1.Text = repeated + " Weitere Feststellungen folgen im Anschluss."

	report := Validate("doc-1", nil, []document.Chunk{c0, c1}, nil, cfg)
	res := findResult(t, report, "no_overlap")
	if res.Passed {
		t.Error("expected no_overlap to fail on duplicated boundary text")
	}
	if !strings.Contains(res.Message, "c1") || !strings.Contains(res.Message, "c0") {
		t.Errorf("expected both chunk IDs in message, got %q", res.Message)
	}
}

func TestOverlap_IgnoresShortBoundaryRepeats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunking = chunker.Config{MaxTokens: 500, MinTokens: 50}

	c0 := chunk("c0", 0, label.Findings, 100, 1)
	c0.Text = "Der Bericht beschreibt die Lage."
	c1 := chunk("c1", 0, label.Findings, 100, 1)
	c1.Text = "Die Lage hat sich im Folgejahr nicht verändert."

	report := Validate("doc-1", nil, []document.Chunk{c0, c1}, nil, cfg)
	if res := findResult(t, report, "no_overlap"); !res.Passed {
		t.Errorf("expected short repeats to pass, got failure: %s", res.Message)
	}
}

func TestOverlap_SkippedWhenConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunking = chunker.Config{MaxTokens: 500, MinTokens: 50, OverlapTokens: 100}

	c := chunk("c0", 0, label.Findings, 100, 1)
	c.OverlapContext = "vorheriger Satz"

	report := Validate("doc-1", nil, []document.Chunk{c}, nil, cfg)
	if res := findResult(t, report, "no_overlap"); !res.Passed {
		t.Errorf("expected skip to pass, got failure: %s", res.Message)
	}
}

func TestCompleteness_DetectsContentLoss(t *testing.T) {
	sec := document.Section{
		Index: 0,
		Label: label.Findings,
		Paragraphs: []document.Paragraph{
			{Text: strings.Repeat("inhalt ", 100), Page: 1},
		},
	}
	// Chunks cover only a small part of the section text.
	chunks := []document.Chunk{chunk("c0", 0, label.Findings, 10, 1)}

	report := Validate("doc-1", []document.Section{sec}, chunks, nil, DefaultConfig())
	res := findResult(t, report, "completeness")
	if res.Passed {
		t.Error("expected completeness to fail")
	}
	if res.Severity != document.SeverityError {
		t.Errorf("expected error severity, got %q", res.Severity)
	}
}

func TestCompleteness_PassesOnFullCoverage(t *testing.T) {
	text := strings.Repeat("inhalt ", 50)
	sec := document.Section{
		Index:      0,
		Label:      label.Findings,
		Paragraphs: []document.Paragraph{{Text: text, Page: 1}},
	}
	chunks := []document.Chunk{{
		ID: "c0", SectionIndex: 0, Label: label.Findings,
		Text: sec.Text(), TokenCount: 66, StartPage: 1, EndPage: 1,
	}}

	report := Validate("doc-1", []document.Section{sec}, chunks, nil, DefaultConfig())
	if res := findResult(t, report, "completeness"); !res.Passed {
		t.Errorf("expected pass, got failure: %s", res.Message)
	}
}

func TestPageMonotonicity_DetectsDecrease(t *testing.T) {
	chunks := []document.Chunk{
		chunk("c0", 0, label.Findings, 100, 3),
		chunk("c1", 1, label.Summary, 100, 2),
	}

	report := Validate("doc-1", nil, chunks, nil, DefaultConfig())
	res := findResult(t, report, "page_monotonicity")
	if res.Passed {
		t.Error("expected page_monotonicity to fail")
	}
	if res.Severity != document.SeverityError {
		t.Errorf("expected error severity, got %q", res.Severity)
	}
}

func TestValidate_CarriesDiagnosticsThrough(t *testing.T) {
	diags := []document.Diagnostic{
		{Code: "tolerance_match", Severity: document.SeverityInfo, Message: "color near findings", Page: 2},
	}

	report := Validate("doc-1", nil, nil, diags, DefaultConfig())
	if len(report.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(report.Diagnostics))
	}
	if report.Diagnostics[0].Code != "tolerance_match" {
		t.Errorf("expected diagnostic code %q, got %q", "tolerance_match", report.Diagnostics[0].Code)
	}
}

func TestValidate_NeverMutatesInput(t *testing.T) {
	chunks := []document.Chunk{
		chunk("c0", 0, label.Summary, 100, 1),
	}
	before := chunks[0]

	Validate("doc-1", nil, chunks, nil, DefaultConfig())
	if chunks[0] != before {
		t.Error("expected input chunks to stay unchanged")
	}
}
