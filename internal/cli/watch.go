package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reoring/recordsync"
	"github.com/reoring/recordsync/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Validate a JSON file on every save",
		Long: `Watch a JSON file and validate it each time it is saved, printing either
the accepted collection size or the first problem found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, rootOpts, args[0], cmd)
		},
	}
}

func runWatch(ctx context.Context, opts *RootOptions, path string, cmd *cobra.Command) error {
	env, err := opts.load(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.closeFn()
	f := opts.formatter(cmd)

	store := recordsync.NewStore(recordsync.WithLogger(env.log))
	engine := recordsync.NewEngine(store, env.opts...)
	defer engine.Close()

	fw, err := watch.NewFileWatcher(engine, path, watch.Options{Logger: env.log})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to watch file", err)
	}
	if err := fw.Start(); err != nil {
		return WrapExitError(ExitCommandError, "failed to watch file", err)
	}
	defer fw.Stop()

	report := func(r watch.Result) error {
		if r.Err != nil {
			if d, ok := recordsync.AsDiagnostic(r.Err); ok {
				return f.Diagnostic(d, engine.Text())
			}
			fmt.Fprintf(f.Writer, "Error: %v\n", r.Err)
			return nil
		}
		return f.Success(fmt.Sprintf("✓ %s: %d records", r.Path, len(r.Records)), ValidationResult{Valid: true, Records: r.Records})
	}

	if err := report(fw.Sync()); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-fw.Results():
			if err := report(r); err != nil {
				return err
			}
		case err := <-fw.Errors():
			env.log.Warn("watch error", "error", err)
		}
	}
}
