package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kweidner/metasynth/internal/chunker"
	"github.com/kweidner/metasynth/internal/document"
)

// JobStatus represents the state of a segmentation job or of one file
// inside it.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusSegmenting JobStatus = "segmenting"
	StatusExporting  JobStatus = "exporting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// terminal reports whether a file status is final. Terminal states
// stick: once a file is completed or failed, late updates from a
// discarded run are ignored.
func terminal(s JobStatus) bool {
	return s == StatusCompleted || s == StatusFailed
}

// FileEntry tracks one document inside a job. A job carries several
// files when a whole report folder is submitted at once.
type FileEntry struct {
	Filename    string    `json:"filename"`
	DocID       string    `json:"doc_id"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	ContentHash string    `json:"content_hash"`
	Sections    int       `json:"sections"`
	Chunks      int       `json:"chunks"`
	Passed      bool      `json:"passed"`

	// Internal: not serialized.
	fileData []byte
	result   *document.Result
}

// Job tracks the state of one submission of one or more documents.
type Job struct {
	mu sync.Mutex

	ID        string       `json:"job_id"`
	Status    JobStatus    `json:"status"`
	Phase     string       `json:"phase"`
	Files     []*FileEntry `json:"files"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	chunkOverride *chunker.Config
}

// NewJob creates a queued job for the given files. Each file gets a
// deterministic doc ID derived from its name and content, so the same
// file always yields the same chunk IDs.
func NewJob(files []SubmittedFile) *Job {
	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, f := range files {
		hash := ContentHashHex(f.Data)
		job.Files = append(job.Files, &FileEntry{
			Filename:    f.Filename,
			DocID:       DocIDFor(f.Filename, hash),
			Status:      StatusQueued,
			ContentHash: hash,
			fileData:    f.Data,
		})
	}
	return job
}

// SubmittedFile is one uploaded or watched file awaiting processing.
type SubmittedFile struct {
	Filename string
	Data     []byte
}

// SetChunking applies per-job chunk sizing. Call before submitting.
func (j *Job) SetChunking(cfg chunker.Config) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.chunkOverride = &cfg
}

// Chunking returns the per-job chunk sizing override, nil when the
// job uses the profile defaults.
func (j *Job) Chunking() *chunker.Config {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.chunkOverride
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// SetFileStatus updates one file's status. No-op once the file is in
// a terminal state.
func (j *Job) SetFileStatus(i int, status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if terminal(j.Files[i].Status) {
		return
	}
	j.Files[i].Status = status
	j.UpdatedAt = time.Now()
}

// SetFileError marks one file as failed.
func (j *Job) SetFileError(i int, msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if terminal(j.Files[i].Status) {
		return
	}
	j.Files[i].Status = StatusFailed
	j.Files[i].Error = msg
	j.UpdatedAt = time.Now()
}

// SetFileResult records a completed file's segmentation outcome.
func (j *Job) SetFileResult(i int, res *document.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	f := j.Files[i]
	if terminal(f.Status) {
		return
	}
	f.Status = StatusCompleted
	f.Sections = len(res.Sections)
	f.Chunks = len(res.Chunks)
	f.Passed = res.Report.Passed()
	f.result = res
	f.fileData = nil
	j.UpdatedAt = time.Now()
}

// FileData returns the raw bytes of one file.
func (j *Job) FileData(i int) []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Files[i].fileData
}

// FileCount returns the number of files in the job.
func (j *Job) FileCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.Files)
}

// FileInfo returns a read-only copy of one file's state.
func (j *Job) FileInfo(i int) FileSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	f := j.Files[i]
	return FileSnapshot{
		Filename:    f.Filename,
		DocID:       f.DocID,
		Status:      f.Status,
		Error:       f.Error,
		ContentHash: f.ContentHash,
		Sections:    f.Sections,
		Chunks:      f.Chunks,
		Passed:      f.Passed,
	}
}

// Result returns the segmentation result for a doc ID, if that file
// completed.
func (j *Job) Result(docID string) (*document.Result, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, f := range j.Files {
		if f.DocID == docID && f.result != nil {
			return f.result, true
		}
	}
	return nil, false
}

// Results returns every completed file result in submission order.
func (j *Job) Results() []*document.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*document.Result, 0, len(j.Files))
	for _, f := range j.Files {
		if f.result != nil {
			out = append(out, f.result)
		}
	}
	return out
}

// FileSnapshot is a read-only copy of one file's state.
type FileSnapshot struct {
	Filename    string    `json:"filename"`
	DocID       string    `json:"doc_id"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	ContentHash string    `json:"content_hash"`
	Sections    int       `json:"sections"`
	Chunks      int       `json:"chunks"`
	Passed      bool      `json:"passed"`
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string         `json:"job_id"`
	Status    JobStatus      `json:"status"`
	Phase     string         `json:"phase"`
	Files     []FileSnapshot `json:"files"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	files := make([]FileSnapshot, 0, len(j.Files))
	for _, f := range j.Files {
		files = append(files, FileSnapshot{
			Filename:    f.Filename,
			DocID:       f.DocID,
			Status:      f.Status,
			Error:       f.Error,
			ContentHash: f.ContentHash,
			Sections:    f.Sections,
			Chunks:      f.Chunks,
			Passed:      f.Passed,
		})
	}
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Files:     files,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
