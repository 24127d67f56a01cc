package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	infoColor    = color.New(color.FgCyan)
	sourceColor  = color.New(color.FgBlue)
	targetColor  = color.New(color.FgGreen)
	dimColor     = color.New(color.FgHiBlack)
)

// setupColors applies the --color mode. In auto mode color is enabled
// only on a TTY and when NO_COLOR is unset.
func setupColors(mode string) error {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto":
		color.NoColor = os.Getenv("NO_COLOR") != "" ||
			!isatty.IsTerminal(os.Stdout.Fd())
	default:
		return fmt.Errorf("invalid color mode %q (expected always, auto or never)", mode)
	}
	return nil
}

// printer renders user-facing output. It implements executor.Reporter so
// the executor can narrate steps as it performs them. With silent set,
// informational output is suppressed; errors still go to stderr.
type printer struct {
	silent bool
}

// Rename prints a source -> target diff line.
func (p *printer) Rename(source, target string) {
	if p.silent {
		return
	}
	fmt.Printf("%s -> %s\n", sourceColor.Sprint(source), targetColor.Sprint(target))
}

// Backup prints a backup line.
func (p *printer) Backup(source, target string) {
	if p.silent {
		return
	}
	fmt.Printf("%s %s -> %s\n", dimColor.Sprint("backup:"), sourceColor.Sprint(source), targetColor.Sprint(target))
}

// CreateDirs prints a directory creation line.
func (p *printer) CreateDirs(path string) {
	if p.silent {
		return
	}
	fmt.Printf("%s %s\n", dimColor.Sprint("mkdir:"), targetColor.Sprint(path))
}

// Delete prints a deletion line.
func (p *printer) Delete(path string) {
	if p.silent {
		return
	}
	fmt.Printf("%s %s\n", dimColor.Sprint("delete:"), errorColor.Sprint(path))
}

// Success prints a success message with a checkmark.
func (p *printer) Success(msg string) {
	if p.silent {
		return
	}
	_, _ = successColor.Printf("✓ %s\n", msg)
}

// Warn prints a warning message.
func (p *printer) Warn(msg string) {
	if p.silent {
		return
	}
	_, _ = warnColor.Printf("⚠ %s\n", msg)
}

// Info prints an informational message.
func (p *printer) Info(msg string) {
	if p.silent {
		return
	}
	_, _ = infoColor.Println(msg)
}

// Error prints an error message to stderr. Errors are never silenced.
func (p *printer) Error(msg string) {
	_, _ = errorColor.Fprintf(os.Stderr, "✗ %s\n", msg)
}
