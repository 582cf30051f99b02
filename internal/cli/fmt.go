package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/recordsync"
)

// NewFmtCommand creates the fmt command.
func NewFmtCommand(rootOpts *RootOptions) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt <file|->",
		Short: "Rewrite a record collection in canonical form",
		Long: `Validate a record collection and print it in canonical form: two-space
indentation with keys in id, value order. With --write the file is updated
in place.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(rootOpts, args[0], write, cmd)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the file")
	return cmd
}

func runFmt(opts *RootOptions, path string, write bool, cmd *cobra.Command) error {
	if write && path == "-" {
		return NewExitError(ExitCommandError, "--write needs a file, not stdin")
	}
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
	c, err := recordsync.Validate(text, env.opts...)
	if err != nil {
		return reportDiagnostic(f, err, text)
	}
	out := recordsync.ToText(c)
	if !write {
		return f.Success(out, map[string]any{"text": out, "records": c})
	}
	if out == text {
		f.VerboseLog("%s already canonical", path)
		return f.Success(fmt.Sprintf("%s unchanged", path), map[string]any{"path": path, "changed": false})
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to write %s", path), err)
	}
	env.log.Info("formatted", "path", path, "records", len(c))
	return f.Success(fmt.Sprintf("%s formatted", path), map[string]any{"path": path, "changed": true})
}
