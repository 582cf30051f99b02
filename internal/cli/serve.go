package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reoring/recordsync"
	"github.com/reoring/recordsync/events"
	"github.com/reoring/recordsync/httpapi"
	"github.com/reoring/recordsync/watch"
)

// ServeOptions holds serve flags.
type ServeOptions struct {
	Addr string
	File string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	so := &ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the record store over HTTP and WebSocket",
		Long: `Start an HTTP server holding one record store seeded from the config.

Commits are pushed to WebSocket clients on /ws and, when nats.url is set,
published to NATS. With --file the given JSON file is applied on every save.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, so, cmd)
		},
	}
	cmd.Flags().StringVar(&so.Addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&so.File, "file", "", "JSON file to keep applied")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, so *ServeOptions, cmd *cobra.Command) error {
	env, err := opts.load(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.closeFn()

	addr := env.cfg.Server.Addr
	if so.Addr != "" {
		addr = so.Addr
	}

	store := recordsync.NewStore(recordsync.WithLogger(env.log))
	store.SetData(env.cfg.Seed)

	// The engine reports highlight changes to the server, which needs the
	// engine to exist first.
	var srv *httpapi.Server
	notify := func(h recordsync.Highlight) {
		if srv != nil {
			srv.NotifyHighlight(h)
		}
	}
	engine := recordsync.NewEngine(store, append(env.opts, recordsync.WithHighlightFunc(notify))...)
	defer engine.Close()
	srv = httpapi.NewServer(engine, httpapi.Config{Addr: addr, MaxBodyBytes: env.cfg.MaxBytes, Logger: env.log})

	var pub events.Publisher = &events.NoopPublisher{}
	if env.cfg.NATS.URL != "" {
		np, err := events.NewNATSPublisher(env.cfg.NATS.URL)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to connect to NATS", err)
		}
		pub = np
	}
	defer pub.Close()
	detach := events.Bridge(store, pub, env.cfg.NATS.Subject, env.log)
	defer detach()

	if so.File != "" {
		fw, err := watch.NewFileWatcher(engine, so.File, watch.Options{Logger: env.log})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to watch file", err)
		}
		if err := fw.Start(); err != nil {
			return WrapExitError(ExitCommandError, "failed to watch file", err)
		}
		defer fw.Stop()
		go drainResults(fw)
		fw.Sync()
	}

	if err := srv.Start(); err != nil {
		return WrapExitError(ExitCommandError, "failed to start server", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "serving on %s\n", srv.Addr())

	<-ctx.Done()
	return srv.Stop()
}

// drainResults discards watcher output; the watcher logs each outcome.
func drainResults(fw *watch.FileWatcher) {
	for {
		select {
		case _, ok := <-fw.Results():
			if !ok {
				return
			}
		case _, ok := <-fw.Errors():
			if !ok {
				return
			}
		}
	}
}
