package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/portscout/portscout/pkg/config"
	"github.com/portscout/portscout/pkg/logging"
	"github.com/portscout/portscout/pkg/workspace"
)

const cliExecutable = "portscout"

// NewCommand constructs the top-level portscout CLI command, wiring global
// flags, configuration loading, and shared workspace preparation.
func NewCommand() *cobra.Command {
	var (
		configFile        string
		workspaceDir      string
		workspaceDisabled bool
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Portscout locates the companion server port",
		Long: `Portscout resolves which local port the portscout companion server is
listening on. It consults a cached port first and falls back to a batched
concurrent scan of the configured range.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")

			manager := config.NewManager()
			if err := manager.Load(config.DefaultSources(configFile, cmd.Flags(), debug)...); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg := manager.Get()

			if err := logging.ConfigureGlobal(logging.Options{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			}); err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			ctx := config.WithContext(cmd.Context(), manager)

			if !workspaceDisabled {
				prepared, err := workspace.Prepare(workspaceDir)
				if err != nil {
					return fmt.Errorf("prepare workspace: %w", err)
				}
				ctx = workspace.WithContext(ctx, prepared)
				log.Debug().Str("workspace", prepared).Msg("workspace ready")
			} else {
				log.Debug().Msg("workspace disabled for this run")
			}

			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringVar(&workspaceDir, "workspace-dir", "", "Override workspace root directory")
	cmd.PersistentFlags().BoolVar(&workspaceDisabled, "no-workspace", false, "Disable port cache persistence for this run")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewDiscoverCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewClearCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
