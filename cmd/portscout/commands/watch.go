package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/portscout/portscout/pkg/event"
	"github.com/portscout/portscout/pkg/storage"
)

// NewWatchCommand builds the `watch` subcommand. It follows the port cache
// file and reports every change until interrupted, so other tooling can
// react when a different process rediscovers the server.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow port cache changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := currentConfig(ctx)
			if err != nil {
				return err
			}
			store, err := fileStore(ctx, cfg)
			if err != nil {
				return err
			}

			bus := event.New()
			bus.Subscribe(event.TopicCacheChanged, func(_ context.Context, data any) {
				cached, _ := data.(*storage.CachedPort)
				if cached == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "port cache cleared")
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "port cache updated: %s:%d (%s)\n",
					cached.Host, cached.Port, cached.UpdatedAt.Format("15:04:05"))
			})

			watcher, err := storage.NewCacheWatcher(store, func(cached *storage.CachedPort) {
				bus.PublishSync(ctx, event.TopicCacheChanged, cached)
			}, log.Logger)
			if err != nil {
				return fmt.Errorf("start cache watcher: %w", err)
			}
			defer watcher.Close() //nolint:errcheck

			log.Info().Str("path", store.Path()).Msg("watching port cache")
			if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
