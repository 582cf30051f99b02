package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reoring/recordsync/events"
)

// TailOptions holds tail flags.
type TailOptions struct {
	URL     string
	Subject string
	Count   int
}

// NewTailCommand creates the tail command.
func NewTailCommand(rootOpts *RootOptions) *cobra.Command {
	to := &TailOptions{}
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print commits published by a running server",
		Long: `Subscribe to the NATS subject a serve process publishes to and print one
line per commit. Runs until interrupted, or until --count events were shown.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTail(ctx, rootOpts, to, cmd)
		},
	}
	cmd.Flags().StringVar(&to.URL, "url", "", "NATS server URL (overrides nats.url)")
	cmd.Flags().StringVar(&to.Subject, "subject", "", "subject to follow (overrides nats.subject)")
	cmd.Flags().IntVarP(&to.Count, "count", "n", 0, "exit after this many events (0 = never)")
	return cmd
}

func runTail(ctx context.Context, opts *RootOptions, to *TailOptions, cmd *cobra.Command) error {
	env, err := opts.load(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.closeFn()
	f := opts.formatter(cmd)

	url, subject := env.cfg.NATS.URL, env.cfg.NATS.Subject
	if to.URL != "" {
		url = to.URL
	}
	if to.Subject != "" {
		subject = to.Subject
	}
	if url == "" {
		return NewExitError(ExitCommandError, "no NATS server: set nats.url or pass --url")
	}

	sub, err := events.NewNATSSubscriber(url, env.log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect to NATS", err)
	}
	defer sub.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	evs, err := sub.Events(ctx, subject)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to subscribe", err)
	}
	f.VerboseLog("following %s on %s", subject, url)

	seen := 0
	for ev := range evs {
		text := fmt.Sprintf("%s %s: %d records", ev.At.Format(time.RFC3339), ev.ID, ev.Count)
		if err := f.Success(text, ev); err != nil {
			return err
		}
		seen++
		if to.Count > 0 && seen >= to.Count {
			return nil
		}
	}
	return nil
}
