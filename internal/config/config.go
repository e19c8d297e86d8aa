package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Segmentation profile
	ProfilePath string

	// Filesystem layout
	OutputDir string
	InboxDir  string

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentFiles int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Deadline for one document's parse-segment-export run
	DocTimeout time.Duration

	// Inbox watcher
	WatchDebounce time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

// Load reads the environment, overlaying a .env file first when one
// exists in the working directory.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("METASYNTH_API_KEY"),

		ProfilePath: os.Getenv("PROFILE_PATH"),

		OutputDir: envOr("OUTPUT_DIR", "out"),
		InboxDir:  os.Getenv("INBOX_DIR"),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentFiles: envInt("MAX_CONCURRENT_FILES", 5),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		DocTimeout: envDuration("DOC_TIMEOUT", 2*time.Minute),

		WatchDebounce: envDuration("WATCH_DEBOUNCE", 2*time.Second),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentFiles <= 0 {
		cfg.MaxConcurrentFiles = 5
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.DocTimeout <= 0 {
		cfg.DocTimeout = 2 * time.Minute
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 2 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("METASYNTH_API_KEY is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
