package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps application records in a single JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileContent struct {
	Items []*Record `json:"items"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) List(_ context.Context) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.load()
	if err != nil {
		return nil, err
	}
	return content.Items, nil
}

func (s *FileStore) Get(_ context.Context, jobID int) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, rec := range content.Items {
		if rec.JobID == jobID {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrNotFound, jobID)
}

func (s *FileStore) Put(_ context.Context, rec *Record) error {
	if rec == nil || rec.JobID <= 0 {
		return errors.New("record with a job id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range content.Items {
		if existing.JobID == rec.JobID {
			content.Items[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		content.Items = append(content.Items, rec)
	}

	return s.save(content)
}

func (s *FileStore) IDs(ctx context.Context) ([]int, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return recordIDs(records), nil
}

// load returns an empty content for a missing or empty file.
func (s *FileStore) load() (*fileContent, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &fileContent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	var content fileContent
	if len(data) == 0 {
		return &content, nil
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("decode history file %s: %w", s.path, err)
	}

	sortRecords(content.Items)
	return &content, nil
}

// save replaces the file through a rename.
func (s *FileStore) save(content *fileContent) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	sortRecords(content.Items)

	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return os.Rename(tmp, s.path)
}
