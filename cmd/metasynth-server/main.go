package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kweidner/metasynth/internal/api"
	"github.com/kweidner/metasynth/internal/config"
	"github.com/kweidner/metasynth/internal/export"
	"github.com/kweidner/metasynth/internal/pipeline"
	"github.com/kweidner/metasynth/internal/watch"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		log.Error("invalid profile", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine, err := pipeline.NewEngine(profile)
	if err != nil {
		log.Error("invalid segmentation profile", "error", err)
		os.Exit(1)
	}
	catalog, err := profile.Catalog()
	if err != nil {
		log.Error("invalid color catalog", "error", err)
		os.Exit(1)
	}
	exporter := export.NewExporter(cfg.OutputDir, catalog, log)

	orch := pipeline.NewOrchestrator(cfg, engine, exporter, log)
	orch.Start(ctx)

	// Optional inbox watcher: documents dropped into the inbox are
	// submitted as jobs.
	var watcher *watch.Watcher
	if cfg.InboxDir != "" {
		watcher, err = watch.New(cfg.InboxDir, cfg.WatchDebounce, log)
		if err != nil {
			log.Error("failed to create inbox watcher", "error", err)
			os.Exit(1)
		}
		if err := watcher.Start(ctx); err != nil {
			log.Error("failed to start inbox watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			for ev := range watcher.Events() {
				if ev.Op == watch.OpRemoved {
					continue
				}
				job := pipeline.NewJob([]pipeline.SubmittedFile{{
					Filename: filepath.Base(ev.AbsPath),
					Data:     ev.Data,
				}})
				if err := orch.Submit(job); err != nil {
					log.Error("failed to submit inbox job", "path", ev.Path, "error", err)
				}
			}
		}()
	}

	srv := api.NewServer(orch, profile, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		if watcher != nil {
			watcher.Stop()
		}
		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting metasynth", "port", cfg.Port, "output_dir", cfg.OutputDir, "inbox", cfg.InboxDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
