package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kweidner/metasynth/internal/chunker"
	"github.com/kweidner/metasynth/internal/parser"
	"github.com/kweidner/metasynth/internal/pipeline"
)

// handleSegment accepts one or more documents and queues a
// segmentation job for them.
func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	// Limit total request size. One job may carry a whole report folder.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var (
		files    []pipeline.SubmittedFile
		rejected []map[string]string
	)
	reject := func(filename, reason string) {
		rejected = append(rejected, map[string]string{
			"filename": filename,
			"error":    reason,
		})
	}

	for _, fh := range headers {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			reject(filename, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)))
			continue
		}

		f, err := fh.Open()
		if err != nil {
			reject(filename, "failed to open file")
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil {
			reject(filename, "failed to read file")
			continue
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			reject(filename, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes))
			continue
		}

		files = append(files, pipeline.SubmittedFile{Filename: filename, Data: data})
	}

	if len(files) == 0 {
		jsonError(w, "no usable files in upload", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(files)

	override, ok, err := chunkOverride(r, s.profile.Chunking)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if ok {
		job.SetChunking(override)
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"files":    snap.Files,
		"rejected": rejected,
		"poll_url": fmt.Sprintf("/api/jobs/%s", snap.ID),
	})
}

// chunkOverride reads optional per-request chunk sizing form fields.
// The override starts from the active profile, so a request only
// needs the fields it changes.
func chunkOverride(r *http.Request, base chunker.Config) (chunker.Config, bool, error) {
	cfg := base
	set := false
	for _, field := range []struct {
		name string
		dst  *int
	}{
		{"max_tokens", &cfg.MaxTokens},
		{"min_tokens", &cfg.MinTokens},
		{"overlap_tokens", &cfg.OverlapTokens},
	} {
		v := r.FormValue(field.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, false, fmt.Errorf("%s: %q is not a number", field.name, v)
		}
		*field.dst = n
		set = true
	}
	if set {
		if err := cfg.Validate(); err != nil {
			return cfg, false, err
		}
	}
	return cfg, set, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
