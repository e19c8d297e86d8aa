package parser

import (
	"fmt"
	"strings"
	"testing"
)

func TestCSVParser_RowsBecomeLabeledText(t *testing.T) {
	input := "Name,Betrag,Status\nServermiete,1200,offen\nLizenz,450,bezahlt\n"
	p := &CSVParser{}
	paras, err := p.Parse(strings.NewReader(input), "kosten.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paras))
	}
	text := paras[0].Runs[0].Text
	if !strings.Contains(text, "Headers: Name, Betrag, Status") {
		t.Errorf("expected header line in output, got %q", text)
	}
	if !strings.Contains(text, "Name: Servermiete, Betrag: 1200, Status: offen") {
		t.Errorf("expected labeled row in output, got %q", text)
	}
	if paras[0].Runs[0].Color != "" {
		t.Errorf("expected uncolored run, got %q", paras[0].Runs[0].Color)
	}
}

func TestCSVParser_BatchesLargeFiles(t *testing.T) {
	var b strings.Builder
	b.WriteString("ID,Wert\n")
	for i := 1; i <= 45; i++ {
		fmt.Fprintf(&b, "%d,Wert%d\n", i, i)
	}

	p := &CSVParser{}
	paras, err := p.Parse(strings.NewReader(b.String()), "data.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 45 rows in batches of 20 gives 3 paragraphs.
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paras))
	}
	for i, para := range paras {
		if !strings.HasPrefix(para.Runs[0].Text, "Headers: ID, Wert") {
			t.Errorf("paragraph %d: expected header prefix, got %q", i, para.Runs[0].Text)
		}
	}
	if !strings.Contains(paras[2].Runs[0].Text, "ID: 45, Wert: Wert45") {
		t.Errorf("expected last row in final batch, got %q", paras[2].Runs[0].Text)
	}
}

func TestCSVParser_EmptyFile(t *testing.T) {
	p := &CSVParser{}
	paras, err := p.Parse(strings.NewReader(""), "empty.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paras) != 0 {
		t.Errorf("expected 0 paragraphs, got %d", len(paras))
	}
}

func TestCSVParser_HeaderOnly(t *testing.T) {
	p := &CSVParser{}
	paras, err := p.Parse(strings.NewReader("Name,Betrag\n"), "header.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paras) != 0 {
		t.Errorf("expected 0 paragraphs for header-only file, got %d", len(paras))
	}
}
