package dump

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/rnr/internal/clock"
	"github.com/danieljhkim/rnr/internal/fsops"
	"github.com/danieljhkim/rnr/internal/solver"
)

func newTestStore() *Store {
	fixed := time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)
	return NewStore(fsops.NewRealFS(), clock.NewFakeClock(fixed))
}

func TestStore_WriteAndRead(t *testing.T) {
	root := t.TempDir()
	store := newTestStore()

	operations := []solver.Operation{
		{Source: "a.txt", Target: "b.txt"},
		{Source: "c.txt", Target: "d.txt"},
	}
	mode := Mode{Backup: true, Force: true}
	createdDirs := []string{"archive", "archive/2024"}

	path, err := store.Write(root, mode, operations, createdDirs)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "rnr-2024-06-01_150405.json"), path)

	record, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, Version, record.Version)
	assert.Equal(t, "2024-06-01T15:04:05Z", record.Timestamp)
	assert.Equal(t, mode, record.Mode)
	assert.Equal(t, operations, record.Operations)
	assert.Equal(t, createdDirs, record.CreatedDirs)
}

func TestStore_WriteProducesStableSchema(t *testing.T) {
	root := t.TempDir()
	store := newTestStore()

	path, err := store.Write(root, Mode{}, []solver.Operation{{Source: "x", Target: "y"}}, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "version")
	assert.Contains(t, doc, "timestamp")
	assert.Contains(t, doc, "mode")
	assert.Contains(t, doc, "operations")

	mode, ok := doc["mode"].(map[string]interface{})
	require.True(t, ok)
	for _, key := range []string{"backup", "include_dirs", "hidden", "force"} {
		assert.Contains(t, mode, key)
	}
}

func TestStore_ReadRejectsUnknownVersion(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "dump.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99, "timestamp": "", "mode": {}, "operations": []}`), 0o644))

	_, err := newTestStore().Read(path)
	assert.ErrorContains(t, err, "unsupported version")
}

func TestStore_ReadRejectsMalformedJSON(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "dump.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := newTestStore().Read(path)
	assert.Error(t, err)
}

func TestStore_ReadMissingFile(t *testing.T) {
	_, err := newTestStore().Read(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestRecord_UndoBatch(t *testing.T) {
	record := &Record{
		Operations: []solver.Operation{
			{Source: "a", Target: "b"},
			{Source: "c", Target: "d"},
		},
	}

	batch := record.UndoBatch()
	assert.Equal(t, []solver.Operation{
		{Source: "d", Target: "c"},
		{Source: "b", Target: "a"},
	}, batch.Operations)
	// Undo batches never take backups.
	assert.False(t, batch.Backup)
}

func TestRecord_RedoBatch(t *testing.T) {
	record := &Record{
		Operations: []solver.Operation{{Source: "a", Target: "b"}},
	}

	batch := record.RedoBatch()
	assert.Equal(t, record.Operations, batch.Operations)

	// The derived batch is a copy, not a view of the record.
	batch.Operations[0].Source = "mutated"
	assert.Equal(t, "a", record.Operations[0].Source)
}
