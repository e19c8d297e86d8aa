package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kweidner/metasynth/internal/document"
)

// writeChunksJSONL writes one chunk per line in document order. Field
// order is fixed by the struct, so consumers can diff feeds between
// runs.
func writeChunksJSONL(path string, chunks []document.Chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return &RetryableError{Op: "create " + path, Err: err}
	}

	enc := json.NewEncoder(f)
	for _, c := range chunks {
		if err := enc.Encode(c); err != nil {
			f.Close()
			return fmt.Errorf("encode chunk %s: %w", c.ID, err)
		}
	}

	if err := f.Close(); err != nil {
		return &RetryableError{Op: "close " + path, Err: err}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return &RetryableError{Op: "write " + path, Err: err}
	}
	return nil
}
