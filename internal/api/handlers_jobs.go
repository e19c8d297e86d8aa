package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kweidner/metasynth/internal/document"
	"github.com/kweidner/metasynth/internal/pipeline"
)

// handleJobStatus returns the job snapshot with per-file status.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// finishedJob resolves and gates a job that has reached a terminal
// state. Results only exist once processing is over.
func (s *Server) finishedJob(w http.ResponseWriter, r *http.Request) (*pipeline.Job, pipeline.JobSnapshot, bool) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, pipeline.JobSnapshot{}, false
	}
	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted, pipeline.StatusPartial, pipeline.StatusFailed:
		return job, snap, true
	default:
		jsonError(w, fmt.Sprintf("job is %s, results are available once it finishes", snap.Status), http.StatusConflict)
		return nil, snap, false
	}
}

// handleJobChunks returns the chunk feed of every completed file in
// the job.
func (s *Server) handleJobChunks(w http.ResponseWriter, r *http.Request) {
	job, snap, ok := s.finishedJob(w, r)
	if !ok {
		return
	}

	type docChunks struct {
		DocID  string           `json:"doc_id"`
		Chunks []document.Chunk `json:"chunks"`
	}
	docs := make([]docChunks, 0)
	for _, res := range job.Results() {
		docs = append(docs, docChunks{DocID: res.DocID, Chunks: res.Chunks})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":    snap.ID,
		"status":    snap.Status,
		"documents": docs,
	})
}

// handleJobReport returns the validation reports of every completed
// file in the job.
func (s *Server) handleJobReport(w http.ResponseWriter, r *http.Request) {
	job, snap, ok := s.finishedJob(w, r)
	if !ok {
		return
	}

	reports := make([]document.ValidationReport, 0)
	for _, res := range job.Results() {
		reports = append(reports, res.Report)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":  snap.ID,
		"status":  snap.Status,
		"reports": reports,
	})
}
