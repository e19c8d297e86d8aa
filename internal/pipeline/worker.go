package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kweidner/metasynth/internal/document"
	"github.com/kweidner/metasynth/internal/export"
	"github.com/kweidner/metasynth/internal/metrics"
	"github.com/kweidner/metasynth/internal/parser"
)

// Worker processes one job at a time: every file in the job runs
// parse, segment and export, with bounded concurrency across files.
type Worker struct {
	engine   *Engine
	exporter *export.Exporter
	log      *slog.Logger

	maxConcurrentFiles int
	docTimeout         time.Duration
	pdfFallback        bool
}

func NewWorker(engine *Engine, exporter *export.Exporter, log *slog.Logger, maxFiles int, docTimeout time.Duration, pdfFallback bool) *Worker {
	if maxFiles < 1 {
		maxFiles = 1
	}
	if docTimeout <= 0 {
		docTimeout = 2 * time.Minute
	}
	return &Worker{
		engine:             engine,
		exporter:           exporter,
		log:                log,
		maxConcurrentFiles: maxFiles,
		docTimeout:         docTimeout,
		pdfFallback:        pdfFallback,
	}
}

// Process runs the full pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	job.SetStatus(StatusSegmenting, "processing")

	engine := w.engine
	if cfg := job.Chunking(); cfg != nil {
		var err error
		engine, err = w.engine.WithChunking(*cfg)
		if err != nil {
			// Overrides are validated at submission, so this only
			// fires when a caller bypassed the API.
			log.Error("invalid chunk override", "error", err)
			job.SetStatus(StatusFailed, "invalid_chunking")
			return
		}
	}

	n := job.FileCount()
	sem := make(chan struct{}, w.maxConcurrentFiles)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			w.processFile(ctx, engine, job, i, log)
		}(i)
	}
	wg.Wait()

	completed, failed := 0, 0
	for _, f := range job.Snapshot().Files {
		switch f.Status {
		case StatusCompleted:
			completed++
		case StatusFailed:
			failed++
		}
	}

	switch {
	case failed == 0:
		job.SetStatus(StatusCompleted, "done")
	case completed > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "done")
	}
	log.Info("job finished", "files", n, "completed", completed, "failed", failed)
}

// fileOutcome is what one file's run hands back to processFile:
// either a result or the failure that ended the run.
type fileOutcome struct {
	res *document.Result
	err error
	msg string
}

// processFile runs one file through the pipeline under the
// per-document deadline. A run that misses the deadline is abandoned
// and its eventual outcome discarded; sticky terminal file states
// keep its late phase updates from reopening the failure.
func (w *Worker) processFile(ctx context.Context, engine *Engine, job *Job, i int, log *slog.Logger) {
	info := job.FileInfo(i)
	flog := log.With("doc_id", info.DocID, "filename", info.Filename)
	start := time.Now()

	fail := func(msg string) {
		job.SetFileError(i, msg)
		metrics.DocumentsProcessed.WithLabelValues("failed").Inc()
	}

	if ctx.Err() != nil {
		fail(ctx.Err().Error())
		return
	}

	fctx, cancel := context.WithTimeout(ctx, w.docTimeout)
	defer cancel()

	done := make(chan fileOutcome, 1)
	go func() { done <- w.runFile(fctx, engine, job, i, flog) }()

	var out fileOutcome
	select {
	case out = <-done:
	case <-fctx.Done():
		if errors.Is(fctx.Err(), context.DeadlineExceeded) {
			flog.Error("document processing timed out", "timeout", w.docTimeout)
			fail(fmt.Sprintf("timeout after %s", w.docTimeout))
		} else {
			fail(fctx.Err().Error())
		}
		return
	}

	if out.err != nil {
		if document.IsStructural(out.err) {
			metrics.StructuralErrors.Inc()
		}
		fail(out.msg)
		return
	}
	res := out.res

	job.SetFileResult(i, res)

	metrics.DocumentsProcessed.WithLabelValues("completed").Inc()
	metrics.SectionsProduced.Add(float64(len(res.Sections)))
	for _, c := range res.Chunks {
		metrics.ChunksProduced.WithLabelValues(string(c.Label)).Inc()
	}
	for _, d := range res.Report.Diagnostics {
		switch d.Code {
		case "tolerance_match":
			metrics.ToleranceMatches.Inc()
		case "unparseable_color", "unmapped_color":
			metrics.UnknownColorParagraphs.Inc()
		}
	}
	if !res.Report.Passed() {
		metrics.ValidationFailures.Inc()
	}
	metrics.ProcessingSeconds.Observe(time.Since(start).Seconds())
}

// runFile executes the parse, segment and export phases for one file.
// It advances the file's phase status but leaves the terminal state
// and metrics to processFile.
func (w *Worker) runFile(ctx context.Context, engine *Engine, job *Job, i int, flog *slog.Logger) fileOutcome {
	info := job.FileInfo(i)

	// Phase 1: Parse
	job.SetFileStatus(i, StatusParsing)
	p, err := parser.ForFile(info.Filename)
	if err != nil {
		flog.Error("unsupported format", "error", err)
		return fileOutcome{err: err, msg: err.Error()}
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = w.pdfFallback
	}

	paras, err := p.Parse(bytes.NewReader(job.FileData(i)), info.Filename)
	if err != nil {
		flog.Error("parse failed", "error", err)
		return fileOutcome{err: err, msg: fmt.Sprintf("parse: %s", err)}
	}

	// Phase 2: Segment, chunk and validate
	job.SetFileStatus(i, StatusSegmenting)
	res, err := engine.ProcessDocument(info.DocID, paras)
	if err != nil {
		flog.Error("segmentation failed", "error", err, "structural", document.IsStructural(err))
		return fileOutcome{err: err, msg: err.Error()}
	}
	flog.Info("document segmented",
		"sections", len(res.Sections),
		"chunks", len(res.Chunks),
		"passed", res.Report.Passed())

	// Phase 3: Export
	job.SetFileStatus(i, StatusExporting)
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		lastErr = w.exporter.WriteResult(res)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		flog.Warn("retryable export error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return fileOutcome{err: ctx.Err(), msg: ctx.Err().Error()}
		}
	}
	if lastErr != nil {
		flog.Error("export failed", "error", lastErr)
		return fileOutcome{err: lastErr, msg: fmt.Sprintf("export: %s", lastErr)}
	}

	return fileOutcome{res: res}
}
