// Package editor drives the interactive rename flow: it writes the
// collected paths to a scratch file, opens the user's editor on it, and
// parses the edited file back into rename and delete operations.
//
// Two formats exist. Without deletion, the file lists bare paths whose
// lines correspond positionally to the sources, and the line count must
// not change. With deletion enabled, each line is "INDEX<TAB>PATH" with
// 1-based indices; removing a line deletes that source.
package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/danieljhkim/rnr/internal/solver"
)

// Sentinel errors for editor-session failures.
var (
	// ErrLineCount indicates the plain format came back with a different
	// number of lines than it was given.
	ErrLineCount = errors.New("line count changed")

	// ErrBadIndex indicates a malformed, out-of-range or duplicated index
	// in the indexed format.
	ErrBadIndex = errors.New("bad index")
)

// Result holds what the user asked for in the editor session.
type Result struct {
	Operations []solver.Operation
	Deletions  []string
}

// Choose picks the editor command: the explicit argument, then VISUAL,
// then EDITOR, then vi.
func Choose(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if visual := os.Getenv("VISUAL"); visual != "" {
		return visual
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	return "vi"
}

// Open writes paths to a scratch file, runs editorCmd on it synchronously
// and parses the result. The scratch file is removed on every exit path.
func Open(paths []string, editorCmd string, allowDelete bool) (*Result, error) {
	scratch, err := os.CreateTemp("", "rnr-editor-*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}
	scratchPath := scratch.Name()
	defer func() {
		_ = os.Remove(scratchPath)
	}()

	var b strings.Builder
	for i, path := range paths {
		if allowDelete {
			fmt.Fprintf(&b, "%d\t%s\n", i+1, path)
		} else {
			fmt.Fprintf(&b, "%s\n", path)
		}
	}
	if _, err := scratch.WriteString(b.String()); err != nil {
		_ = scratch.Close()
		return nil, fmt.Errorf("failed to write scratch file: %w", err)
	}
	if err := scratch.Close(); err != nil {
		return nil, fmt.Errorf("failed to close scratch file: %w", err)
	}

	if err := run(editorCmd, scratchPath); err != nil {
		return nil, err
	}

	edited, err := os.ReadFile(scratchPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scratch file back: %w", err)
	}

	lines := nonEmptyLines(string(edited))
	if allowDelete {
		return ParseIndexed(paths, lines)
	}
	return ParsePlain(paths, lines)
}

// run spawns the editor command with the scratch path as its final
// argument, inheriting the terminal.
func run(editorCmd, scratchPath string) error {
	parts := strings.Fields(editorCmd)
	if len(parts) == 0 {
		return fmt.Errorf("empty editor command")
	}

	cmd := exec.Command(parts[0], append(parts[1:], scratchPath)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %q failed: %w", editorCmd, err)
	}
	return nil
}

// nonEmptyLines splits content into lines, dropping blank ones.
func nonEmptyLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ParsePlain interprets the plain format: line i is the new target for
// source i. Added or removed lines are an error.
func ParsePlain(paths []string, lines []string) (*Result, error) {
	if len(paths) != len(lines) {
		return nil, fmt.Errorf("%w: expected %d lines but got %d (use --delete to enable deletion)",
			ErrLineCount, len(paths), len(lines))
	}

	result := &Result{}
	for i, source := range paths {
		target := filepath.Clean(strings.TrimSpace(lines[i]))
		if source != target {
			result.Operations = append(result.Operations, solver.Operation{
				Source: source,
				Target: target,
			})
		}
	}
	return result, nil
}

// ParseIndexed interprets the indexed format: "INDEX<TAB>PATH" lines with
// 1-based indices into paths. A missing index marks that source for
// deletion; a changed path marks it for rename.
func ParseIndexed(paths []string, lines []string) (*Result, error) {
	targets := make(map[int]string, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			return nil, fmt.Errorf("%w: line %q is missing the index prefix (expected INDEX<TAB>PATH)",
				ErrBadIndex, line)
		}
		index, err := strconv.Atoi(strings.TrimSpace(line[:tab]))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid index in line %q", ErrBadIndex, line)
		}
		if index < 1 || index > len(paths) {
			return nil, fmt.Errorf("%w: index %d is out of range (1-%d)", ErrBadIndex, index, len(paths))
		}
		if _, dup := targets[index]; dup {
			return nil, fmt.Errorf("%w: duplicate index %d", ErrBadIndex, index)
		}
		targets[index] = strings.TrimSpace(line[tab+1:])
	}

	result := &Result{}
	for i, source := range paths {
		target, kept := targets[i+1]
		if !kept {
			result.Deletions = append(result.Deletions, source)
			continue
		}
		target = filepath.Clean(target)
		if source != target {
			result.Operations = append(result.Operations, solver.Operation{
				Source: source,
				Target: target,
			})
		}
	}
	return result, nil
}
