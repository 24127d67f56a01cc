package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/rnr/internal/dump"
	"github.com/danieljhkim/rnr/internal/executor"
	"github.com/danieljhkim/rnr/internal/logging"
	"github.com/danieljhkim/rnr/internal/solver"
)

var (
	fromFileUndo  bool
	fromFilePrune bool
)

var fromFileCmd = &cobra.Command{
	Use:   "from-file <DUMPFILE>",
	Short: "Replay or undo operations from a dump file",
	Long: `Read a dump file written by a previous run and feed its operations
through the solver again, forward by default or inverted with --undo.
The derived batch is validated like any other; it is rejected if the
filesystem changed underneath it.`,
	Args: parseArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline()

		store := dump.NewStore(p.fs, p.clk)
		record, err := store.Read(args[0])
		if err != nil {
			return err
		}

		var batch solver.Batch
		if fromFileUndo {
			batch = record.UndoBatch()
		} else {
			batch = record.RedoBatch()
			batch.Backup = backup
		}

		// Undoing defaults to no dump; replaying follows the normal policy.
		if _, err := p.run(batch, dumpEnabled(!fromFileUndo)); err != nil {
			return err
		}

		if fromFileUndo && fromFilePrune && force {
			executor.PruneDirs(p.fs, record.CreatedDirs, logging.GetLogger("executor"))
		}
		return nil
	},
}

func init() {
	fromFileCmd.Flags().BoolVarP(&fromFileUndo, "undo", "u", false, "Undo the operations from the dump file")
	fromFileCmd.Flags().BoolVar(&fromFilePrune, "prune-dirs", false, "With --undo, remove auto-created parent directories left empty")
}
