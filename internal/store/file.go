package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"CandleWatch/internal/model"
)

// fileState is the on-disk JSON document.
type fileState struct {
	Selection model.Selection `json:"selection"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FileStore keeps the selection in a small JSON file.
type FileStore struct {
	mu       sync.Mutex
	filePath string
}

func NewFileStore(filePath string) *FileStore {
	return &FileStore{filePath: filePath}
}

// Load reads the selection. A missing file is not an error.
func (f *FileStore) Load() (model.Selection, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Selection{}, false, nil
		}
		return model.Selection{}, false, fmt.Errorf("read selection: %w", err)
	}
	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		return model.Selection{}, false, fmt.Errorf("decode selection: %w", err)
	}
	return st.Selection, true, nil
}

// Save writes the selection atomically via a temp file rename.
func (f *FileStore) Save(sel model.Selection) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(fileState{Selection: sel, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := f.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write selection: %w", err)
	}
	return os.Rename(tmp, f.filePath)
}

func (f *FileStore) Close() error { return nil }
