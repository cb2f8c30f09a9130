package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewClearCommand builds the `clear` subcommand, which drops the cached
// port so the next discovery run starts with a full scan.
func NewClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop the cached port",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := currentConfig(ctx)
			if err != nil {
				return err
			}
			store, err := fileStore(ctx, cfg)
			if err != nil {
				return err
			}
			if err := store.ClearPort(ctx); err != nil {
				return err
			}
			log.Debug().Str("path", store.Path()).Msg("port cache cleared")

			formatter := newFormatter(cmd, false, false)
			return formatter.PrintSummary("Port cache cleared.")
		},
	}
}
