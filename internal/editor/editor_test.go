package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/rnr/internal/solver"
)

func TestChoose(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	assert.Equal(t, "vi", Choose(""))

	t.Setenv("EDITOR", "nano")
	assert.Equal(t, "nano", Choose(""))

	t.Setenv("VISUAL", "emacs")
	assert.Equal(t, "emacs", Choose(""))

	assert.Equal(t, "code -w", Choose("code -w"))
}

func TestParsePlain(t *testing.T) {
	paths := []string{"/tmp/a.txt", "/tmp/b.txt"}

	t.Run("unchanged lines produce no operations", func(t *testing.T) {
		result, err := ParsePlain(paths, []string{"/tmp/a.txt", "/tmp/b.txt"})
		require.NoError(t, err)
		assert.Empty(t, result.Operations)
		assert.Empty(t, result.Deletions)
	})

	t.Run("edited line becomes a rename", func(t *testing.T) {
		result, err := ParsePlain(paths, []string{"/tmp/a_new.txt", "/tmp/b.txt"})
		require.NoError(t, err)
		require.Len(t, result.Operations, 1)
		assert.Equal(t, solver.Operation{Source: "/tmp/a.txt", Target: "/tmp/a_new.txt"}, result.Operations[0])
	})

	t.Run("removed line is an error", func(t *testing.T) {
		_, err := ParsePlain(paths, []string{"/tmp/a.txt"})
		assert.ErrorIs(t, err, ErrLineCount)
	})

	t.Run("added line is an error", func(t *testing.T) {
		_, err := ParsePlain(paths, []string{"/tmp/a.txt", "/tmp/b.txt", "/tmp/c.txt"})
		assert.ErrorIs(t, err, ErrLineCount)
	})
}

func TestParseIndexed(t *testing.T) {
	paths := []string{"/tmp/a.txt", "/tmp/b.txt"}

	t.Run("unchanged lines produce nothing", func(t *testing.T) {
		result, err := ParseIndexed(paths, []string{"1\t/tmp/a.txt", "2\t/tmp/b.txt"})
		require.NoError(t, err)
		assert.Empty(t, result.Operations)
		assert.Empty(t, result.Deletions)
	})

	t.Run("edited path becomes a rename", func(t *testing.T) {
		result, err := ParseIndexed(paths, []string{"1\t/tmp/a_new.txt", "2\t/tmp/b.txt"})
		require.NoError(t, err)
		require.Len(t, result.Operations, 1)
		assert.Equal(t, solver.Operation{Source: "/tmp/a.txt", Target: "/tmp/a_new.txt"}, result.Operations[0])
		assert.Empty(t, result.Deletions)
	})

	t.Run("removed line marks a deletion", func(t *testing.T) {
		result, err := ParseIndexed(paths, []string{"1\t/tmp/a.txt"})
		require.NoError(t, err)
		assert.Empty(t, result.Operations)
		assert.Equal(t, []string{"/tmp/b.txt"}, result.Deletions)
	})

	t.Run("reordered lines keep their identity", func(t *testing.T) {
		result, err := ParseIndexed(paths, []string{"2\t/tmp/b_new.txt", "1\t/tmp/a.txt"})
		require.NoError(t, err)
		require.Len(t, result.Operations, 1)
		assert.Equal(t, solver.Operation{Source: "/tmp/b.txt", Target: "/tmp/b_new.txt"}, result.Operations[0])
	})

	t.Run("missing tab is an error", func(t *testing.T) {
		_, err := ParseIndexed(paths, []string{"/tmp/a.txt"})
		assert.ErrorIs(t, err, ErrBadIndex)
	})

	t.Run("non-numeric index is an error", func(t *testing.T) {
		_, err := ParseIndexed(paths, []string{"x\t/tmp/a.txt"})
		assert.ErrorIs(t, err, ErrBadIndex)
	})

	t.Run("out of range index is an error", func(t *testing.T) {
		_, err := ParseIndexed(paths, []string{"99\t/tmp/a.txt"})
		assert.ErrorIs(t, err, ErrBadIndex)
	})

	t.Run("duplicate index is an error", func(t *testing.T) {
		_, err := ParseIndexed(paths, []string{"1\t/tmp/a.txt", "1\t/tmp/b_new.txt"})
		assert.ErrorIs(t, err, ErrBadIndex)
	})
}

func TestOpen_NoChanges(t *testing.T) {
	// `true` exits immediately without touching the scratch file.
	result, err := Open([]string{"/tmp/a.txt", "/tmp/b.txt"}, "true", false)
	require.NoError(t, err)
	assert.Empty(t, result.Operations)
	assert.Empty(t, result.Deletions)
}

func TestOpen_EditorFailure(t *testing.T) {
	_, err := Open([]string{"/tmp/a.txt"}, "false", false)
	assert.Error(t, err)
}

func TestOpen_MissingEditor(t *testing.T) {
	_, err := Open([]string{"/tmp/a.txt"}, "rnr-no-such-editor-binary", false)
	assert.Error(t, err)
}

func TestOpen_EmptyEditorCommand(t *testing.T) {
	_, err := Open([]string{"/tmp/a.txt"}, "  ", false)
	assert.Error(t, err)
}
