// Package cli implements the recordsync command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/reoring/recordsync"
	"github.com/reoring/recordsync/config"
	"github.com/reoring/recordsync/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Lang       string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "recordsync",
		Short: "Edit an {id, value} record collection as JSON text",
		Long: `recordsync keeps a JSON text view and a typed record collection in sync.

Text is validated fail-fast against the record schema; the first problem is
reported with the line it was found on.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Lang, "lang", "", "message language (overrides the config file)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewFmtCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewTailCommand(opts))

	return cmd
}

// env is what every command needs after flags are parsed.
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	opts    []recordsync.Option
	closeFn func()
}

// load reads the config, applies flag overrides and builds the logger.
// Logs go to errw so they never mix with command output.
func (o *RootOptions) load(errw io.Writer) (*env, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Lang != "" {
		cfg.Language = o.Lang
	}
	logOpts := logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}
	if o.Verbose {
		logOpts.Level = "debug"
	}
	log, closer, err := logging.New(logOpts, errw)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	engOpts, err := cfg.EngineOptions()
	if err != nil {
		_ = closer.Close()
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	engOpts = append(engOpts, recordsync.WithLogger(log))
	return &env{cfg: cfg, log: log, opts: engOpts, closeFn: func() { _ = closer.Close() }}, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
