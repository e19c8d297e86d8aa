// Package metrics exposes the pipeline's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DocumentsProcessed counts finished documents by outcome.
	DocumentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metasynth_documents_processed_total",
		Help: "Documents processed, partitioned by outcome.",
	}, []string{"status"})

	// SectionsProduced counts assembled sections.
	SectionsProduced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metasynth_sections_produced_total",
		Help: "Sections assembled across all documents.",
	})

	// ChunksProduced counts emitted chunks by section label.
	ChunksProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metasynth_chunks_produced_total",
		Help: "Chunks emitted, partitioned by section label.",
	}, []string{"label"})

	// ValidationFailures counts documents whose report failed.
	ValidationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metasynth_validation_failures_total",
		Help: "Documents whose validation report failed at error severity.",
	})

	// ToleranceMatches counts colors accepted within tolerance rather
	// than exactly.
	ToleranceMatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metasynth_tolerance_matches_total",
		Help: "Paragraph colors classified via tolerance instead of an exact match.",
	})

	// UnknownColorParagraphs counts paragraphs whose color could not be
	// classified.
	UnknownColorParagraphs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metasynth_unknown_color_paragraphs_total",
		Help: "Paragraphs with an unparseable or unmapped highlight color.",
	})

	// StructuralErrors counts documents rejected for invariant
	// violations such as decreasing page numbers.
	StructuralErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metasynth_structural_errors_total",
		Help: "Documents rejected with a structural error.",
	})

	// ProcessingSeconds observes per-document wall time.
	ProcessingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "metasynth_document_processing_seconds",
		Help:    "Wall time spent segmenting one document.",
		Buckets: prometheus.DefBuckets,
	})

	// QueueDepth tracks the number of jobs waiting in the queue.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metasynth_queue_depth",
		Help: "Jobs currently waiting in the processing queue.",
	})
)

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
