package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/portscout/portscout/pkg/discovery"
	"github.com/portscout/portscout/pkg/event"
	"github.com/portscout/portscout/pkg/portutil"
	"github.com/portscout/portscout/pkg/probe"
)

// NewDiscoverCommand builds the `discover` subcommand, the main entry point
// for resolving the companion server port.
func NewDiscoverCommand() *cobra.Command {
	var (
		force     bool
		portRange string
		timeout   time.Duration
		batchSize int
		jsonOut   bool
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Locate the companion server port",
		Long: `Discover resolves the companion server port. A cached port is verified
first; on a miss the configured range is scanned in ascending concurrent
batches and the lowest responding port wins.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := currentConfig(ctx)
			if err != nil {
				return err
			}

			minPort, maxPort := cfg.Discovery.PortMin, cfg.Discovery.PortMax
			if portRange != "" {
				minPort, maxPort, err = portutil.ParseRange(portRange)
				if err != nil {
					return fmt.Errorf("invalid --ports value: %w", err)
				}
			}
			if timeout <= 0 {
				timeout = cfg.Discovery.ProbeTimeout
			}
			if batchSize <= 0 {
				batchSize = cfg.Discovery.BatchSize
			}

			formatter := newFormatter(cmd, jsonOut, quiet)

			host := cfg.Discovery.Host
			if cfg.Discovery.PingRemote && !probe.HostReachable(ctx, host, 1, timeout) {
				log.Warn().Str("host", host).Msg("host unreachable, skipping scan")
				res := &discovery.Result{Source: discovery.SourceNone}
				if err := formatter.PrintDiscovery(res, host); err != nil {
					return err
				}
				return nil
			}

			probeFn, err := buildProbe(cfg)
			if err != nil {
				return err
			}
			store := buildStore(ctx, cfg)

			bus := event.New()
			if !quiet && !jsonOut {
				bus.Subscribe(event.TopicDiscoveryProgress, func(_ context.Context, data any) {
					ev, ok := data.(discovery.ProgressEvent)
					if !ok {
						return
					}
					fmt.Fprintln(cmd.ErrOrStderr(), formatter.ProgressLine(ev))
				})
			}
			bus.Subscribe(event.TopicDiscoveryCompleted, func(_ context.Context, data any) {
				if res, ok := data.(*discovery.Result); ok {
					log.Debug().
						Str("source", string(res.Source)).
						Int("scanned", res.Scanned).
						Dur("elapsed", res.Elapsed).
						Msg("discovery run finished")
				}
			})

			sink := discovery.ProgressFunc(func(ev discovery.ProgressEvent) {
				bus.PublishSync(ctx, event.TopicDiscoveryProgress, ev)
			})

			d := discovery.NewDiscoverer(store, probeFn).
				WithTimeout(timeout).
				WithBatchSize(batchSize).
				WithProgressSink(sink).
				WithLogger(log.Logger)

			bus.PublishSync(ctx, event.TopicDiscoveryStarted, discovery.Options{
				MinPort:   minPort,
				MaxPort:   maxPort,
				ForceScan: force,
			})

			res, err := d.Discover(ctx, discovery.Options{
				MinPort:   minPort,
				MaxPort:   maxPort,
				ForceScan: force,
			})
			if err != nil {
				formatter.PrintError(err) //nolint:errcheck
				return err
			}

			bus.PublishSync(ctx, event.TopicDiscoveryCompleted, res)

			return formatter.PrintDiscovery(res, host)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the cached port and always scan")
	cmd.Flags().StringVarP(&portRange, "ports", "p", "", "Port range to scan, e.g. 5000-5100 (defaults to configuration)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-probe timeout (defaults to configuration)")
	cmd.Flags().IntVar(&batchSize, "batch", 0, "Ports probed concurrently per batch (defaults to configuration)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the discovered port")

	return cmd
}
