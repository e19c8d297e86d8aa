package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingStyles(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.
`
	p := &MarkdownParser{}
	paras, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(paras) != 6 {
		t.Fatalf("expected 6 paragraphs, got %d", len(paras))
	}

	wantStyles := []string{"Heading1", "", "Heading2", "", "Heading3", ""}
	for i, want := range wantStyles {
		if paras[i].Style != want {
			t.Errorf("paragraph %d: expected style %q, got %q", i, want, paras[i].Style)
		}
	}

	if got := paras[0].Runs[0].Text; got != "Title" {
		t.Errorf("expected heading text %q, got %q", "Title", got)
	}
	if got := paras[1].Runs[0].Text; got != "Intro text." {
		t.Errorf("expected body text %q, got %q", "Intro text.", got)
	}
	if got := paras[2].Runs[0].Text; got != "Section A" {
		t.Errorf("expected heading text %q, got %q", "Section A", got)
	}
}

func TestMarkdownParser_NoColors(t *testing.T) {
	input := "# Heading\n\nBody paragraph.\n"

	p := &MarkdownParser{}
	paras, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, para := range paras {
		for _, run := range para.Runs {
			if run.Color != "" {
				t.Errorf("paragraph %d: expected uncolored run, got color %q", i, run.Color)
			}
		}
	}
}

func TestMarkdownParser_ListItemsBecomeParagraphs(t *testing.T) {
	input := `## Empfehlungen

- Erste Empfehlung umsetzen.
- Zweite Empfehlung dokumentieren.
- Dritte Empfehlung verwerfen.
`
	p := &MarkdownParser{}
	paras, err := p.Parse(strings.NewReader(input), "list.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(paras) != 4 {
		t.Fatalf("expected 4 paragraphs (heading + 3 items), got %d", len(paras))
	}
	if got := paras[1].Runs[0].Text; got != "Erste Empfehlung umsetzen." {
		t.Errorf("expected first item text %q, got %q", "Erste Empfehlung umsetzen.", got)
	}
	if got := paras[3].Runs[0].Text; got != "Dritte Empfehlung verwerfen." {
		t.Errorf("expected last item text %q, got %q", "Dritte Empfehlung verwerfen.", got)
	}
}

func TestMarkdownParser_CodeBlocksKeepContent(t *testing.T) {
	input := "# API Reference\n\nSome intro.\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"

	p := &MarkdownParser{}
	paras, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var all []string
	for _, para := range paras {
		for _, run := range para.Runs {
			all = append(all, run.Text)
		}
	}
	joined := strings.Join(all, "\n")

	if !strings.Contains(joined, "GET /api/users") {
		t.Errorf("expected code block content in output, got %q", joined)
	}
	if !strings.Contains(joined, "More text after code.") {
		t.Errorf("expected post-code text in output, got %q", joined)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	paras, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paras) != 0 {
		t.Errorf("expected 0 paragraphs for empty input, got %d", len(paras))
	}
}
