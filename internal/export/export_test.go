package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kweidner/metasynth/internal/document"
	"github.com/kweidner/metasynth/internal/label"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleResult() *document.Result {
	return &document.Result{
		DocID: "bericht-2024-0042",
		Sections: []document.Section{{
			Index:      0,
			Label:      label.Findings,
			Title:      "2 Feststellungen",
			Paragraphs: []document.Paragraph{{Text: "Feststellung eins wurde dokumentiert.", Page: 1}},
			StartPage:  1,
			EndPage:    1,
			Confidence: 1.0,
		}},
		Chunks: []document.Chunk{{
			ID:           "bericht-2024-0042_s0_c0",
			DocID:        "bericht-2024-0042",
			Index:        0,
			SectionIndex: 0,
			Label:        label.Findings,
			Text:         "Feststellung eins wurde dokumentiert.",
			TokenCount:   5,
			StartPage:    1,
			EndPage:      1,
			Confidence:   1.0,
		}},
		Report: document.ValidationReport{
			DocID: "bericht-2024-0042",
			Results: []document.RuleResult{
				{Rule: "size_bounds", Passed: true, Severity: document.SeverityError, Message: "all chunks within bounds"},
			},
			Diagnostics: []document.Diagnostic{
				{Code: "tolerance_match", Severity: document.SeverityInfo, Message: "color FEFE01 accepted as introduction within tolerance", Page: 2},
			},
			GeneratedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestExporter_WriteResult(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, label.DefaultCatalog(), discardLogger())

	res := sampleResult()
	if err := e.WriteResult(res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docDir := filepath.Join(dir, res.DocID)
	for _, name := range []string{"chunks.jsonl", "sections.json", "report.json", "report.md", "report.html", "verify.docx"} {
		info, err := os.Stat(filepath.Join(docDir, name))
		if err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("expected %s to be non-empty", name)
		}
	}
}

func TestExporter_ChunkFeedRoundTrips(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, label.DefaultCatalog(), discardLogger())

	res := sampleResult()
	if err := e.WriteResult(res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, res.DocID, "chunks.jsonl"))
	if err != nil {
		t.Fatalf("open chunk feed: %v", err)
	}
	defer f.Close()

	var got []document.Chunk
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var c document.Chunk
		if err := json.Unmarshal(scanner.Bytes(), &c); err != nil {
			t.Fatalf("decode chunk line: %v", err)
		}
		got = append(got, c)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan chunk feed: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != res.Chunks[0] {
		t.Errorf("expected chunk %+v, got %+v", res.Chunks[0], got[0])
	}
}

func TestReportMarkdown_Verdict(t *testing.T) {
	res := sampleResult()
	md := ReportMarkdown(res)

	if !strings.Contains(md, "BESTANDEN") {
		t.Errorf("expected passing verdict, got:\n%s", md)
	}
	if !strings.Contains(md, "bericht-2024-0042_s0_c0") {
		t.Errorf("expected chunk id in report, got:\n%s", md)
	}
	if !strings.Contains(md, "tolerance_match") {
		t.Errorf("expected diagnostic in report, got:\n%s", md)
	}

	res.Report.Results = append(res.Report.Results, document.RuleResult{
		Rule: "completeness", Passed: false, Severity: document.SeverityError, Message: "text lost",
	})
	md = ReportMarkdown(res)
	if !strings.Contains(md, "FEHLGESCHLAGEN") {
		t.Errorf("expected failing verdict, got:\n%s", md)
	}
}

func TestReportMarkdown_EscapesPipes(t *testing.T) {
	res := sampleResult()
	res.Sections[0].Title = "Kosten | Nutzen"
	md := ReportMarkdown(res)
	if !strings.Contains(md, `Kosten \| Nutzen`) {
		t.Errorf("expected escaped pipe in table cell, got:\n%s", md)
	}
}

func TestReportHTML_RendersTables(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, label.DefaultCatalog(), discardLogger())

	res := sampleResult()
	if err := e.WriteResult(res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, res.DocID, "report.html"))
	if err != nil {
		t.Fatalf("read report html: %v", err)
	}
	html := string(data)
	if !strings.Contains(html, "<table>") {
		t.Errorf("expected rendered table in html report")
	}
	if !strings.Contains(html, "Segmentierungsbericht") {
		t.Errorf("expected report heading in html")
	}
}

func TestWriteResult_UnwritableDirIsRetryable(t *testing.T) {
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("file, not dir"), 0o644); err != nil {
		t.Fatalf("prepare fixture: %v", err)
	}

	e := NewExporter(blocked, label.DefaultCatalog(), discardLogger())
	err := e.WriteResult(sampleResult())
	if err == nil {
		t.Fatal("expected error when output dir is a file, got nil")
	}
	var retryable *RetryableError
	if !errors.As(err, &retryable) {
		t.Errorf("expected retryable error, got %T: %v", err, err)
	}
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		t.Errorf("expected wrapped path error, got %v", err)
	}
}
