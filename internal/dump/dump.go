// Package dump persists executed batches as JSON records so they can be
// undone or replayed later. The record is the ground truth for undo: it
// lists the executed operations in execution order.
package dump

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/danieljhkim/rnr/internal/clock"
	"github.com/danieljhkim/rnr/internal/fsops"
	"github.com/danieljhkim/rnr/internal/solver"
)

// Version is the current dump format version. Readers reject records
// written with a different version.
const Version = 1

// Mode records the flags the batch ran with.
type Mode struct {
	Backup      bool `json:"backup"`
	IncludeDirs bool `json:"include_dirs"`
	Hidden      bool `json:"hidden"`
	Force       bool `json:"force"`
}

// Record is the serialized form of an executed batch.
type Record struct {
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
	Mode      Mode   `json:"mode"`

	// Operations is the executed operation list in execution order.
	Operations []solver.Operation `json:"operations"`

	// CreatedDirs lists parent directories the executor created,
	// shallowest first. Undo can optionally prune them.
	CreatedDirs []string `json:"created_dirs,omitempty"`
}

// Store writes and reads dump records.
type Store struct {
	fs  fsops.FS
	clk clock.Clock
}

// NewStore creates a Store over the given filesystem and clock.
func NewStore(fs fsops.FS, clk clock.Clock) *Store {
	return &Store{fs: fs, clk: clk}
}

// Write serializes a record for the given operations into dir, named
// rnr-<timestamp>.json. It returns the file path.
func (s *Store) Write(dir string, mode Mode, operations []solver.Operation, createdDirs []string) (string, error) {
	now := s.clk.Now()
	record := Record{
		Version:     Version,
		Timestamp:   now.Format(time.RFC3339),
		Mode:        mode,
		Operations:  operations,
		CreatedDirs: createdDirs,
	}

	data, err := json.MarshalIndent(&record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize dump: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("rnr-%s.json", now.Format("2006-01-02_150405")))
	if err := s.fs.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write dump file %q: %w", path, err)
	}
	return path, nil
}

// Read loads and validates a dump record from path.
func (s *Store) Read(path string) (*Record, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump file %q: %w", path, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse dump file %q: %w", path, err)
	}
	if record.Version != Version {
		return nil, fmt.Errorf("dump file %q has unsupported version %d (expected %d)", path, record.Version, Version)
	}
	return &record, nil
}

// UndoBatch derives the batch that reverts the record: operations
// inverted and reversed. Backups are not taken while undoing.
func (r *Record) UndoBatch() solver.Batch {
	return solver.Batch{Operations: solver.Invert(r.Operations)}
}

// RedoBatch derives the batch that replays the record forward.
func (r *Record) RedoBatch() solver.Batch {
	operations := make([]solver.Operation, len(r.Operations))
	copy(operations, r.Operations)
	return solver.Batch{Operations: operations}
}
