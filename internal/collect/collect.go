// Package collect expands command-line path arguments into the ordered,
// de-duplicated list of rename candidates.
//
// The collector honors recursion, max depth, hidden-entry and directory
// filters. Symlinks are never followed; they appear as leaves. Output
// order is deterministic: arguments in the order given, directory entries
// lexicographically, directories before their children.
package collect

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/rnr/internal/fsops"
)

// Options controls which paths the collector emits.
type Options struct {
	// Recursive walks directory arguments instead of taking them literally.
	Recursive bool

	// MaxDepth bounds the walk depth in recursive mode. The walk root is
	// depth 0; a value of k includes entries at depths 1 through k.
	// Zero means unlimited.
	MaxDepth int

	// IncludeDirs keeps directories in the output. Directories are still
	// traversed in recursive mode when this is false.
	IncludeDirs bool

	// Hidden keeps entries whose name starts with a dot. A skipped hidden
	// directory is not traversed.
	Hidden bool
}

// Collector gathers rename candidates from the filesystem.
type Collector struct {
	fs  fsops.FS
	log zerolog.Logger
}

// New creates a Collector over the given filesystem.
func New(fs fsops.FS, log zerolog.Logger) *Collector {
	return &Collector{fs: fs, log: log}
}

// Collect expands args into candidate paths according to opts.
func (c *Collector) Collect(args []string, opts Options) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	add := func(path string) error {
		if !utf8.ValidString(path) {
			return fmt.Errorf("path %q is not valid UTF-8", path)
		}
		key, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", path, err)
		}
		if seen[key] {
			return nil
		}
		seen[key] = true
		paths = append(paths, filepath.Clean(path))
		return nil
	}

	for _, arg := range args {
		if !utf8.ValidString(arg) {
			return nil, fmt.Errorf("argument %q is not valid UTF-8", arg)
		}

		info, err := c.fs.Lstat(arg)
		if err != nil {
			if os.IsNotExist(err) {
				c.log.Warn().Str("path", arg).Msg("path is not accessible, skipping")
				continue
			}
			return nil, fmt.Errorf("failed to read %q: %w", arg, err)
		}

		isDir := info.IsDir()
		if opts.Recursive && isDir {
			if err := c.walk(arg, 0, opts, add); err != nil {
				return nil, err
			}
			continue
		}

		if !opts.Hidden && isHidden(arg) {
			continue
		}
		if isDir && !opts.IncludeDirs {
			continue
		}
		if err := add(arg); err != nil {
			return nil, err
		}
	}

	return paths, nil
}

// walk traverses dir depth-first, emitting entries through add. Each
// directory is emitted before its children.
func (c *Collector) walk(dir string, depth int, opts Options, add func(string) error) error {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return nil
	}

	entries, err := c.fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %q: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !utf8.ValidString(name) {
			return fmt.Errorf("path %q is not valid UTF-8", filepath.Join(dir, name))
		}
		if !opts.Hidden && name[0] == '.' {
			continue
		}

		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if opts.IncludeDirs {
				if err := add(path); err != nil {
					return err
				}
			}
			if err := c.walk(path, depth+1, opts, add); err != nil {
				return err
			}
			continue
		}
		if err := add(path); err != nil {
			return err
		}
	}

	return nil
}

// isHidden reports whether the final path component starts with a dot.
func isHidden(path string) bool {
	base := filepath.Base(path)
	return len(base) > 1 && base[0] == '.' && base != ".."
}
