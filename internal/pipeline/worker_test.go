package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kweidner/metasynth/internal/config"
	"github.com/kweidner/metasynth/internal/export"
)

// An export directory nested under a regular file can never be
// created, so every export attempt fails retryably and the run spends
// the rest of its deadline in backoff.
func TestWorker_DocTimeout(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	profile := config.DefaultProfile()
	engine, err := NewEngine(profile)
	if err != nil {
		t.Fatalf("expected engine to build, got error %v", err)
	}
	catalog, err := profile.Catalog()
	if err != nil {
		t.Fatalf("expected catalog to build, got error %v", err)
	}

	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("expected blocker file written, got error %v", err)
	}
	exporter := export.NewExporter(filepath.Join(blocker, "out"), catalog, log)

	w := NewWorker(engine, exporter, log, 1, 100*time.Millisecond, false)
	job := NewJob([]SubmittedFile{{Filename: "bericht.txt", Data: []byte("Erster Satz. Zweiter Satz.")}})

	start := time.Now()
	w.Process(context.Background(), job)
	elapsed := time.Since(start)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected job status %q, got %q", StatusFailed, snap.Status)
	}
	if snap.Files[0].Status != StatusFailed {
		t.Errorf("expected file status %q, got %q", StatusFailed, snap.Files[0].Status)
	}
	if snap.Files[0].Error == "" {
		t.Error("expected a file error message")
	}
	// The full retry schedule sleeps for several seconds; a run ended
	// by the deadline returns long before that.
	if elapsed > 5*time.Second {
		t.Errorf("expected the deadline to end the run, took %s", elapsed)
	}
}

func TestWorker_CancelledContextFailsFast(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	profile := config.DefaultProfile()
	engine, err := NewEngine(profile)
	if err != nil {
		t.Fatalf("expected engine to build, got error %v", err)
	}
	catalog, err := profile.Catalog()
	if err != nil {
		t.Fatalf("expected catalog to build, got error %v", err)
	}
	exporter := export.NewExporter(t.TempDir(), catalog, log)

	w := NewWorker(engine, exporter, log, 1, time.Minute, false)
	job := NewJob([]SubmittedFile{{Filename: "bericht.txt", Data: []byte("Inhalt.")}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Process(ctx, job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected job status %q, got %q", StatusFailed, snap.Status)
	}
	if snap.Files[0].Error == "" {
		t.Error("expected the context error recorded on the file")
	}
}
