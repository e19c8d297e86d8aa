package parser

import (
	"strings"
	"testing"

	"github.com/kweidner/metasynth/internal/document"
)

func parseHTML(t *testing.T, input string) []document.RawParagraph {
	t.Helper()
	p := &HTMLParser{}
	paras, err := p.Parse(strings.NewReader(input), "report.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return paras
}

func joinRuns(para document.RawParagraph) string {
	var b strings.Builder
	for _, r := range para.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

func TestHTMLParser_HeadingsAndParagraphs(t *testing.T) {
	paras := parseHTML(t, `<html><body><h1>Prüfbericht</h1><p>Erster Absatz.</p><h2>Feststellungen</h2><p>Zweiter Absatz.</p></body></html>`)

	if len(paras) != 4 {
		t.Fatalf("expected 4 paragraphs, got %d", len(paras))
	}
	wantStyles := []string{"Heading1", "", "Heading2", ""}
	for i, want := range wantStyles {
		if paras[i].Style != want {
			t.Errorf("paragraph %d: expected style %q, got %q", i, want, paras[i].Style)
		}
	}
	if got := joinRuns(paras[0]); got != "Prüfbericht" {
		t.Errorf("expected heading text %q, got %q", "Prüfbericht", got)
	}
}

func TestHTMLParser_BackgroundColorSpans(t *testing.T) {
	paras := parseHTML(t, `<p>de<span style="background-color:#FFFF00">s vorliegenden</span> Berichts</p>`)

	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paras))
	}
	want := []document.TextRun{
		{Text: "de", Color: ""},
		{Text: "s vorliegenden", Color: "FFFF00"},
		{Text: " Berichts", Color: ""},
	}
	got := paras[0].Runs
	if len(got) != len(want) {
		t.Fatalf("expected %d runs, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if joined := joinRuns(paras[0]); joined != "des vorliegenden Berichts" {
		t.Errorf("expected concatenation %q, got %q", "des vorliegenden Berichts", joined)
	}
}

func TestHTMLParser_NestedElementsInheritColor(t *testing.T) {
	paras := parseHTML(t, `<p><span style="background-color: #00B050">Grün <b>fett</b> weiter</span></p>`)

	runs := paras[0].Runs
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d: %+v", len(runs), runs)
	}
	for i, r := range runs {
		if r.Color != "00B050" {
			t.Errorf("run %d: expected inherited color %q, got %q", i, "00B050", r.Color)
		}
	}
	if joined := joinRuns(paras[0]); joined != "Grün fett weiter" {
		t.Errorf("expected %q, got %q", "Grün fett weiter", joined)
	}
}

func TestHTMLParser_SeparatorBetweenInlineElementsKept(t *testing.T) {
	paras := parseHTML(t, `<p><b>eins</b> <i>zwei</i></p>`)

	if joined := joinRuns(paras[0]); joined != "eins zwei" {
		t.Errorf("expected words to stay separated, got %q", joined)
	}
}

func TestHTMLParser_PrettyPrintedWhitespaceTrimmed(t *testing.T) {
	paras := parseHTML(t, "<p>\n    Eingerückter   Text\n</p>")

	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paras))
	}
	if got := joinRuns(paras[0]); got != "Eingerückter Text" {
		t.Errorf("expected normalized text %q, got %q", "Eingerückter Text", got)
	}
}

func TestHTMLParser_SkipsNonContentElements(t *testing.T) {
	paras := parseHTML(t, `<body><nav><p>Menü</p></nav><header><p>Kopf</p></header><p>Inhalt.</p><script>var x = 1;</script><footer><p>Fuss</p></footer></body>`)

	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paras))
	}
	if got := joinRuns(paras[0]); got != "Inhalt." {
		t.Errorf("expected %q, got %q", "Inhalt.", got)
	}
}

func TestHTMLParser_ListItemsAndTableCells(t *testing.T) {
	paras := parseHTML(t, `<ul><li>Punkt eins</li><li>Punkt zwei</li></ul><table><tr><td>Zelle</td></tr></table>`)

	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paras))
	}
	want := []string{"Punkt eins", "Punkt zwei", "Zelle"}
	for i, w := range want {
		if got := joinRuns(paras[i]); got != w {
			t.Errorf("paragraph %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestHTMLParser_PageBreakBefore(t *testing.T) {
	paras := parseHTML(t, `<p>Seite eins.</p><div style="page-break-before: always"><p>Seite zwei.</p></div><p style="break-before: page">Seite drei.</p>`)

	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paras))
	}
	if paras[0].PageBreaks != 0 {
		t.Errorf("expected 0 breaks before first paragraph, got %d", paras[0].PageBreaks)
	}
	if paras[1].PageBreaks != 1 {
		t.Errorf("expected 1 break before second paragraph, got %d", paras[1].PageBreaks)
	}
	if paras[2].PageBreaks != 1 {
		t.Errorf("expected 1 break before third paragraph, got %d", paras[2].PageBreaks)
	}
}

func TestHTMLParser_EmptyDocument(t *testing.T) {
	paras := parseHTML(t, "")
	if len(paras) != 0 {
		t.Errorf("expected 0 paragraphs for empty input, got %d", len(paras))
	}
}
