package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// line tags each record so mints and fills can share one file.
type line struct {
	Kind string `json:"kind"`
	Mint *Mint  `json:"mint,omitempty"`
	Fill *Fill  `json:"fill,omitempty"`
}

// JSONLRecorder appends records as JSON lines.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{file: file, enc: json.NewEncoder(file)}, nil
}

func (r *JSONLRecorder) RecordMint(m Mint) error {
	return r.write(line{Kind: "mint", Mint: &m})
}

func (r *JSONLRecorder) RecordFill(f Fill) error {
	return r.write(line{Kind: "fill", Fill: &f})
}

func (r *JSONLRecorder) write(l line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return fmt.Errorf("recorder closed")
	}
	return r.enc.Encode(l)
}

func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
