package cli

import (
	"github.com/spf13/cobra"

	"github.com/reoring/recordsync"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "seed",
		Short:         "Print the configured seed collection",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := rootOpts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.closeFn()
			text := recordsync.ToText(env.cfg.Seed)
			return rootOpts.formatter(cmd).Success(text, map[string]any{"text": text, "records": env.cfg.Seed})
		},
	}
}
