package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/rnr/internal/renamer"
)

var (
	regexLimit     int
	regexTransform string
)

var regexCmd = &cobra.Command{
	Use:   "regex <EXPRESSION> <REPLACEMENT> <PATH>...",
	Short: "Rename paths by regex substitution on the file name",
	Long: `Rename each path by applying a regex substitution to its file-name
component. The replacement supports numbered (${1}) and named (${name})
backreferences. Only the first match is replaced unless --replace-limit
changes the limit (0 replaces every match).`,
	Args: parseArgs(cobra.MinimumNArgs(3)),
	RunE: func(cmd *cobra.Command, args []string) error {
		transform, err := renamer.ParseTransform(regexTransform)
		if err != nil {
			return &parseError{err}
		}
		rule, err := renamer.NewRegex(args[0], args[1], regexLimit, transform)
		if err != nil {
			return err
		}
		return runRule(rule, args[2:])
	},
}

// runRule collects the paths, maps them through the rule and runs the
// resulting batch.
func runRule(rule *renamer.Rule, pathArgs []string) error {
	p := newPipeline()

	sources, err := p.collectPaths(pathArgs)
	if err != nil {
		return err
	}
	operations, err := applyRule(rule, sources)
	if err != nil {
		return err
	}

	batch := newBatch(operations)
	_, err = p.run(batch, dumpEnabled(true))
	return err
}

func init() {
	regexCmd.Flags().IntVarP(&regexLimit, "replace-limit", "l", 1, "Limit of replacements per file name (0 = all)")
	regexCmd.Flags().StringVarP(&regexTransform, "transform", "t", "", "Transform replacement text (upper, lower, ascii)")
}
