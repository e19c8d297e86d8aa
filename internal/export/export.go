// Package export writes a processed document's artifacts to disk: the
// chunk feed consumed downstream, the validation report, and a
// verification document for reviewers.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kweidner/metasynth/internal/document"
	"github.com/kweidner/metasynth/internal/label"
)

// Exporter writes one subdirectory per document below the output
// directory.
type Exporter struct {
	dir     string
	catalog *label.Catalog
	log     *slog.Logger
}

func NewExporter(dir string, catalog *label.Catalog, log *slog.Logger) *Exporter {
	return &Exporter{dir: dir, catalog: catalog, log: log}
}

// WriteResult writes every artifact for one result. The chunk feed and
// the reports are the contract; a failed verification document only
// logs a warning.
func (e *Exporter) WriteResult(res *document.Result) error {
	docDir := filepath.Join(e.dir, res.DocID)
	if err := os.MkdirAll(docDir, 0o755); err != nil {
		return &RetryableError{Op: "create " + docDir, Err: err}
	}

	if err := writeChunksJSONL(filepath.Join(docDir, "chunks.jsonl"), res.Chunks); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(docDir, "sections.json"), res.Sections); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(docDir, "report.json"), res.Report); err != nil {
		return err
	}
	if err := writeReportFiles(docDir, res); err != nil {
		return err
	}

	if err := writeVerifyDocx(filepath.Join(docDir, "verify.docx"), res, e.catalog); err != nil {
		e.log.Warn("verification docx failed", "doc_id", res.DocID, "error", err)
	}

	e.log.Info("exported document",
		"doc_id", res.DocID,
		"dir", docDir,
		"chunks", len(res.Chunks),
		"passed", res.Report.Passed())
	return nil
}

// RetryableError indicates a transient filesystem failure; a later
// attempt may succeed.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %s: %s", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }
