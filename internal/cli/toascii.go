package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/rnr/internal/renamer"
)

var toASCIICmd = &cobra.Command{
	Use:   "to-ascii <PATH>...",
	Short: "Transliterate file names to ASCII",
	Long: `Rename each path by transliterating its file-name component to ASCII.
Characters whose transliteration would introduce a path separator are
replaced by underscores. Parent directories are left untouched.`,
	Args: parseArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRule(renamer.NewASCII(), args)
	},
}
