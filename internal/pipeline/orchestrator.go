package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kweidner/metasynth/internal/config"
	"github.com/kweidner/metasynth/internal/export"
	"github.com/kweidner/metasynth/internal/metrics"
)

// Orchestrator manages the document segmentation pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	engine   *Engine
	exporter *export.Exporter
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Start launches its workers.
func NewOrchestrator(cfg config.Config, engine *Engine, exporter *export.Exporter, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		engine:   engine,
		exporter: exporter,
		log:      log,
		cfg:      cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for n := 0; n < o.cfg.WorkerCount; n++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.engine, o.exporter, o.log, o.cfg.MaxConcurrentFiles, o.cfg.DocTimeout, o.cfg.PDFFallbackPdftotext)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					metrics.QueueDepth.Set(float64(len(o.queue)))
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		metrics.QueueDepth.Set(float64(len(o.queue)))
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// JobCount returns the number of tracked jobs.
func (o *Orchestrator) JobCount() int {
	return o.jobs.Len()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
