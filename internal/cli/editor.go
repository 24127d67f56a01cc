package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/rnr/internal/editor"
	"github.com/danieljhkim/rnr/internal/solver"
)

var (
	editorCommand string
	editorDelete  bool
)

var editorCmd = &cobra.Command{
	Use:   "editor <PATH>...",
	Short: "Rename paths interactively in a text editor",
	Long: `Open the collected paths in a text editor and rename them by editing
the lines. Without --delete each line maps positionally to a source and
the line count must not change. With --delete each line is prefixed by
an index and a tab; removing a line deletes that path.

The editor is chosen from --editor, then VISUAL, then EDITOR, then vi.`,
	Args: parseArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline()

		sources, err := p.collectPaths(args)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			p.printer.Info("nothing to edit")
			return nil
		}

		result, err := editor.Open(sources, editor.Choose(editorCommand), editorDelete)
		if err != nil {
			return err
		}

		batch := solver.Batch{
			Operations: result.Operations,
			Deletions:  result.Deletions,
			Backup:     backup,
		}
		_, err = p.run(batch, dumpEnabled(true))
		return err
	},
}

func init() {
	editorCmd.Flags().StringVar(&editorCommand, "editor", "", "Editor command to open the path list with")
	editorCmd.Flags().BoolVar(&editorDelete, "delete", false, "Allow deleting paths by removing their lines")
}
