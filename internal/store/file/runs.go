package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/npepeverse/pepebot/internal/store"
)

// RunStore keeps run records in one JSON file:
// {"task_name": {"last_period": "...", "updated_at": "..."}}.
// The file is read once at open; every write rewrites it atomically.
type RunStore struct {
	path string

	mu      sync.Mutex
	records map[string]store.RunRecord
}

type fileRecord struct {
	LastPeriod string    `json:"last_period"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewRunStore opens (or prepares) the JSON file at path.
func NewRunStore(path string) (*RunStore, error) {
	s := &RunStore{path: path, records: make(map[string]store.RunRecord)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read run records: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var raw map[string]fileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse run records %s: %w", path, err)
	}
	for name, r := range raw {
		s.records[name] = store.RunRecord{TaskName: name, LastPeriod: r.LastPeriod, UpdatedAt: r.UpdatedAt}
	}
	return s, nil
}

func (s *RunStore) LastPeriod(_ context.Context, task string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[task].LastPeriod, nil
}

func (s *RunStore) SetLastPeriod(_ context.Context, task, period string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.records[task]
	s.records[task] = store.RunRecord{TaskName: task, LastPeriod: period, UpdatedAt: time.Now().UTC()}
	if err := s.flushLocked(); err != nil {
		if had {
			s.records[task] = prev
		} else {
			delete(s.records, task)
		}
		return err
	}
	return nil
}

func (s *RunStore) List(_ context.Context) ([]store.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.RunRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskName < out[j].TaskName })
	return out, nil
}

func (s *RunStore) Close() error { return nil }

// flushLocked writes all records via temp file + rename. Caller holds s.mu.
func (s *RunStore) flushLocked() error {
	raw := make(map[string]fileRecord, len(s.records))
	for name, r := range s.records {
		raw[name] = fileRecord{LastPeriod: r.LastPeriod, UpdatedAt: r.UpdatedAt}
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create run record dir: %w", err)
	}

	// Atomic write: temp file → rename
	tmpFile, err := os.CreateTemp(dir, "runs-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}
	tmpFile.Close()

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace run records: %w", err)
	}
	cleanup = false
	return nil
}
