package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reoring/recordsync"
)

// ValidationResult is the JSON payload of a successful validate.
type ValidationResult struct {
	Valid   bool                  `json:"valid"`
	Records recordsync.Collection `json:"records"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Validate a JSON record collection",
		Long: `Validate a JSON record collection against the record schema.

Checks stop at the first problem, which is reported with its line number.
Exits with status 1 when the text is rejected.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	env, err := opts.load(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.closeFn()
	f := opts.formatter(cmd)

	text, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	f.VerboseLog("validating %s (%d bytes)", path, len(text))

	c, err := recordsync.Validate(text, env.opts...)
	if err != nil {
		return reportDiagnostic(f, err, text)
	}
	return f.Success(fmt.Sprintf("✓ valid: %d records", len(c)), ValidationResult{Valid: true, Records: c})
}
