package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/rnr/internal/logging"
)

var (
	// Shared flags across subcommands
	force       bool
	dryRun      bool
	backup      bool
	hidden      bool
	includeDirs bool
	recursive   bool
	silent      bool
	maxDepth    int
	colorMode   string
	dumpFlag    bool
	noDump      bool
	verbosity   int
)

// rootCmd is the root command for rnr.
var rootCmd = &cobra.Command{
	Use:     "rnr",
	Version: "dev",
	Short:   "Batch rename files, directories and symlinks",
	Long: `rnr renames batches of files, directories and symlinks safely.

Targets are computed from a regex substitution, an ASCII transliteration
or an interactive editor session. Every batch is validated before any
change is made: no silent overwrites, no lost files, no ordering hazards.
Executed batches are dumped to a file so they can be undone or replayed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbosity)
		if err := setupColors(colorMode); err != nil {
			return &parseError{err}
		}
		if force && dryRun {
			return &parseError{errors.New("--force and --dry-run are mutually exclusive")}
		}
		if dumpFlag && noDump {
			return &parseError{errors.New("--dump and --no-dump are mutually exclusive")}
		}
		if cmd.Flags().Changed("max-depth") && !recursive {
			return &parseError{errors.New("--max-depth requires --recursive")}
		}
		if maxDepth < 0 {
			return &parseError{errors.New("--max-depth must not be negative")}
		}
		return nil
	},
}

// SetVersion overrides the build version injected by the linker.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// parseArgs wraps a cobra positional validator so its failures map to
// exit code 2.
func parseArgs(validator cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validator(cmd, args); err != nil {
			return &parseError{err}
		}
		return nil
	}
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &parseError{err}
	})

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&force, "force", "f", false, "Make actual changes to files")
	pf.BoolVarP(&dryRun, "dry-run", "n", false, "Only show what would be done (default mode)")
	pf.BoolVarP(&backup, "backup", "b", false, "Generate file backups before renaming")
	pf.BoolVarP(&hidden, "hidden", "x", false, "Include hidden files and directories")
	pf.BoolVarP(&includeDirs, "include-dirs", "D", false, "Rename matching directories")
	pf.BoolVarP(&recursive, "recursive", "r", false, "Recursive mode")
	pf.BoolVarP(&silent, "silent", "s", false, "Do not print any information")
	pf.IntVarP(&maxDepth, "max-depth", "d", 0, "Set max depth in recursive mode (0 = unlimited)")
	pf.StringVar(&colorMode, "color", "auto", "Set color output mode (always, auto, never)")
	pf.BoolVar(&dumpFlag, "dump", false, "Force dumping operations into a file even in dry-run mode")
	pf.BoolVar(&noDump, "no-dump", false, "Do not dump operations into a file")
	pf.CountVarP(&verbosity, "verbose", "v", "Increase diagnostic verbosity (-v, -vv, -vvv)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the rnr version",
		Args:  parseArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(os.Stdout, rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	rootCmd.AddCommand(regexCmd)
	rootCmd.AddCommand(toASCIICmd)
	rootCmd.AddCommand(fromFileCmd)
	rootCmd.AddCommand(editorCmd)
}

// Execute runs the root command and maps failures to exit codes:
// 0 success, 1 validation or execution failure, 2 argument parsing
// failure.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var parseErr *parseError
	if errors.As(err, &parseErr) || strings.HasPrefix(err.Error(), "unknown command") {
		_, _ = fmt.Fprintln(os.Stderr, formatError(err))
		return 2
	}

	_, _ = fmt.Fprintln(os.Stderr, formatError(err))
	return 1
}

// formatError renders an error for the terminal.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}
