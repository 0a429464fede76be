package docnum

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileStore keeps the counter record as a small JSON file. Used when
// the tool runs without a database (desktop-style single-user mode).
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (Counters, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Counters{}, nil
		}
		return Counters{}, fmt.Errorf("docnum: read counter file: %w", err)
	}
	var c Counters
	if err := json.Unmarshal(data, &c); err != nil {
		return Counters{}, fmt.Errorf("docnum: decode counter file: %w", err)
	}
	return c, nil
}

func (s *FileStore) Save(_ context.Context, c Counters) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("docnum: encode counters: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("docnum: write counter file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("docnum: replace counter file: %w", err)
	}
	return nil
}
