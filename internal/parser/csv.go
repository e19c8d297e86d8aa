package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/kweidner/metasynth/internal/document"
)

// CSVParser handles CSV files. Rows are rendered as "header: value"
// text in batches of 20 so downstream chunking stays manageable. CSV
// carries no highlight colors, so the whole file ends up unclassified.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) ([]document.RawParagraph, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// First row is headers.
	headers := records[0]

	const batchSize = 20
	dataRows := records[1:]

	var paragraphs []document.RawParagraph
	for i := 0; i < len(dataRows); i += batchSize {
		end := i + batchSize
		if end > len(dataRows) {
			end = len(dataRows)
		}
		batch := dataRows[i:end]

		var text strings.Builder
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n")
		for _, row := range batch {
			for j, cell := range row {
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
				if j < len(row)-1 {
					text.WriteString(", ")
				}
			}
			text.WriteString("\n")
		}

		paragraphs = append(paragraphs, document.RawParagraph{
			Runs: []document.TextRun{{Text: strings.TrimRight(text.String(), "\n")}},
		})
	}

	return paragraphs, nil
}
