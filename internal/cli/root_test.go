package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores the shared flag state between command invocations;
// cobra only overwrites flags that appear in the new argument list, and
// remembers which flags were changed by earlier parses.
func resetFlags() {
	force = false
	dryRun = false
	backup = false
	hidden = false
	includeDirs = false
	recursive = false
	silent = true
	maxDepth = 0
	colorMode = "never"
	dumpFlag = false
	noDump = false
	verbosity = 0
	fromFileUndo = false
	fromFilePrune = false
	regexLimit = 1
	regexTransform = ""

	for _, cmd := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		cmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}
}

// runCommand executes the root command with the given arguments from dir.
func runCommand(t *testing.T, dir string, args ...string) int {
	t.Helper()
	resetFlags()

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() {
		_ = os.Chdir(cwd)
	}()

	rootCmd.SetArgs(args)
	return Execute()
}

func TestDumpEnabled(t *testing.T) {
	tests := []struct {
		name      string
		force     bool
		dump      bool
		noDump    bool
		defaultOn bool
		want      bool
	}{
		{name: "forced batches dump by default", force: true, defaultOn: true, want: true},
		{name: "dry-run batches do not dump by default", force: false, defaultOn: true, want: false},
		{name: "--dump forces a dump in dry-run", force: false, dump: true, defaultOn: true, want: true},
		{name: "--no-dump suppresses the forced default", force: true, noDump: true, defaultOn: true, want: false},
		{name: "undo does not dump by default", force: true, defaultOn: false, want: false},
		{name: "undo dumps with explicit --dump", force: true, dump: true, defaultOn: false, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			force = tt.force
			dumpFlag = tt.dump
			noDump = tt.noDump
			assert.Equal(t, tt.want, dumpEnabled(tt.defaultOn))
		})
	}
}

func TestSetupColors(t *testing.T) {
	for _, mode := range []string{"always", "auto", "never"} {
		assert.NoError(t, setupColors(mode), mode)
	}
	assert.Error(t, setupColors("sometimes"))
}

func TestExecute_UnknownCommand(t *testing.T) {
	assert.Equal(t, 2, runCommand(t, t.TempDir(), "no-such-command"))
}

func TestExecute_MissingArguments(t *testing.T) {
	assert.Equal(t, 2, runCommand(t, t.TempDir(), "regex", "only-expr"))
}

func TestExecute_ConflictingFlags(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), nil, 0o644))

	code := runCommand(t, root, "regex", "a", "b", "a.txt", "--force", "--dry-run")
	assert.Equal(t, 2, code)

	code = runCommand(t, root, "regex", "a", "b", "a.txt", "--dump", "--no-dump")
	assert.Equal(t, 2, code)
}

func TestExecute_MaxDepthRequiresRecursive(t *testing.T) {
	root := t.TempDir()
	code := runCommand(t, root, "regex", "a", "b", "a.txt", "--max-depth", "2")
	assert.Equal(t, 2, code)
}

func TestExecute_InvalidRegex(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), nil, 0o644))

	code := runCommand(t, root, "regex", "(unclosed", "x", "a.txt")
	assert.Equal(t, 1, code)
}

func TestRegexCommand_DryRunByDefault(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "file-01.txt"), nil, 0o644))

	code := runCommand(t, root, "regex", "file", "renamed", "file-01.txt")
	assert.Equal(t, 0, code)

	// Nothing moved and nothing was dumped.
	assert.FileExists(t, filepath.Join(root, "file-01.txt"))
	assert.NoFileExists(t, filepath.Join(root, "renamed-01.txt"))
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRegexCommand_Force(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "file-01.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file-02.txt"), nil, 0o644))

	code := runCommand(t, root, "regex", "file", "renamed", "file-01.txt", "file-02.txt", "--force")
	assert.Equal(t, 0, code)

	assert.FileExists(t, filepath.Join(root, "renamed-01.txt"))
	assert.FileExists(t, filepath.Join(root, "renamed-02.txt"))
	assert.NoFileExists(t, filepath.Join(root, "file-01.txt"))

	// Forced batches dump to the working directory by default.
	dumps, err := filepath.Glob(filepath.Join(root, "rnr-*.json"))
	require.NoError(t, err)
	assert.Len(t, dumps, 1)
}

func TestRegexCommand_ConflictRejectsBatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o644))

	// a.txt -> b.txt collides with the existing out-of-batch b.txt.
	code := runCommand(t, root, "regex", "a", "b", "a.txt", "--force")
	assert.Equal(t, 1, code)

	// No filesystem mutation happened.
	data, err := os.ReadFile(filepath.Join(root, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}

func TestFromFileCommand_Undo(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "file-01.txt"), []byte("one"), 0o644))

	code := runCommand(t, root, "regex", "file", "renamed", "file-01.txt", "--force")
	require.Equal(t, 0, code)
	require.FileExists(t, filepath.Join(root, "renamed-01.txt"))

	dumps, err := filepath.Glob(filepath.Join(root, "rnr-*.json"))
	require.NoError(t, err)
	require.Len(t, dumps, 1)

	code = runCommand(t, root, "from-file", dumps[0], "--undo", "--force")
	assert.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(root, "file-01.txt"))
	assert.NoFileExists(t, filepath.Join(root, "renamed-01.txt"))
}

func TestToASCIICommand_Force(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "möve.txt"), nil, 0o644))

	code := runCommand(t, root, "to-ascii", "möve.txt", "--force", "--no-dump")
	assert.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(root, "move.txt"))
	assert.NoFileExists(t, filepath.Join(root, "möve.txt"))
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, 0, runCommand(t, t.TempDir(), "version"))
}
