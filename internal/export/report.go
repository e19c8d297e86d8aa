package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/kweidner/metasynth/internal/document"
)

// Tables need GFM; plain CommonMark leaves them as text.
var reportRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// writeReportFiles writes the human-readable report as Markdown and as
// rendered HTML.
func writeReportFiles(docDir string, res *document.Result) error {
	md := ReportMarkdown(res)

	mdPath := filepath.Join(docDir, "report.md")
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return &RetryableError{Op: "write " + mdPath, Err: err}
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html lang=\"de\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>Segmentierungsbericht %s</title>\n", res.DocID)
	buf.WriteString("<style>body{font-family:sans-serif;max-width:60em;margin:2em auto}table{border-collapse:collapse}td,th{border:1px solid #999;padding:4px 8px}</style>\n")
	buf.WriteString("</head>\n<body>\n")
	if err := reportRenderer.Convert([]byte(md), &buf); err != nil {
		return fmt.Errorf("render report html: %w", err)
	}
	buf.WriteString("</body>\n</html>\n")

	htmlPath := filepath.Join(docDir, "report.html")
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0o644); err != nil {
		return &RetryableError{Op: "write " + htmlPath, Err: err}
	}
	return nil
}

// ReportMarkdown renders one document's outcome as Markdown. The
// wording is German because the reports go to German-speaking auditors.
func ReportMarkdown(res *document.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Segmentierungsbericht %s\n\n", res.DocID)
	fmt.Fprintf(&b, "Erstellt: %s\n\n", res.Report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	verdict := "BESTANDEN"
	if !res.Report.Passed() {
		verdict = "FEHLGESCHLAGEN"
	}
	fmt.Fprintf(&b, "Ergebnis: **%s**", verdict)
	if n := res.Report.Warnings(); n > 0 {
		fmt.Fprintf(&b, " (%d Warnungen)", n)
	}
	b.WriteString("\n\n")

	b.WriteString("## Abschnitte\n\n")
	b.WriteString("| Nr. | Label | Titel | Seiten | Absätze | Konfidenz |\n")
	b.WriteString("|----:|-------|-------|--------|--------:|----------:|\n")
	for _, sec := range res.Sections {
		title := sec.Title
		if title == "" {
			title = "—"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %d–%d | %d | %.2f |\n",
			sec.Index+1, sec.Label, escapeCell(title), sec.StartPage, sec.EndPage, len(sec.Paragraphs), sec.Confidence)
	}
	b.WriteString("\n")

	b.WriteString("## Chunks\n\n")
	b.WriteString("| ID | Label | Seiten | Tokens |\n")
	b.WriteString("|----|-------|--------|-------:|\n")
	for _, c := range res.Chunks {
		fmt.Fprintf(&b, "| %s | %s | %d–%d | %d |\n", c.ID, c.Label, c.StartPage, c.EndPage, c.TokenCount)
	}
	b.WriteString("\n")

	b.WriteString("## Prüfregeln\n\n")
	for _, r := range res.Report.Results {
		mark := "✓"
		if !r.Passed {
			mark = "✗"
		}
		fmt.Fprintf(&b, "- %s **%s** (%s)", mark, r.Rule, r.Severity)
		if r.Message != "" {
			fmt.Fprintf(&b, ": %s", r.Message)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(res.Report.Diagnostics) > 0 {
		b.WriteString("## Diagnosen\n\n")
		for _, d := range res.Report.Diagnostics {
			fmt.Fprintf(&b, "- [%s] %s: %s", d.Severity, d.Code, d.Message)
			if d.Page > 0 {
				fmt.Fprintf(&b, " (Seite %d)", d.Page)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// escapeCell keeps pipe characters from breaking table rows.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
