package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/portscout/portscout/pkg/storage"
)

// statusReport is the shape `status` renders.
type statusReport struct {
	Cached    bool      `json:"cached"`
	Port      int       `json:"port,omitempty"`
	Live      bool      `json:"live"`
	Host      string    `json:"host"`
	CheckedAt time.Time `json:"checked_at"`
}

// NewStatusCommand builds the `status` subcommand. It inspects the cached
// port without scanning: either nothing is cached, or the cached port is
// re-probed once to report whether the server still answers there. The
// command exits non-zero when nothing is cached or the port is stale.
func NewStatusCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether the cached port still answers",
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

			report := statusReport{
				Host:      cfg.Discovery.Host,
				CheckedAt: time.Now().UTC(),
			}

			port, ok, err := store.GetPort(ctx)
			if err != nil && !storage.IsNotFound(err) {
				return err
			}
			formatter := newFormatter(cmd, jsonOut, false)
			if !ok {
				if jsonOut {
					if err := formatter.PrintJSON(report); err != nil {
						return err
					}
				}
				return errors.New("no port cached")
			}

			report.Cached = true
			report.Port = port

			probeFn, err := buildProbe(cfg)
			if err != nil {
				return err
			}
			probeCtx, cancel := ctxWithTimeout(ctx, cfg.Discovery.ProbeTimeout)
			defer cancel()
			live, _ := probeFn(probeCtx, port)
			report.Live = live

			if jsonOut {
				if err := formatter.PrintJSON(report); err != nil {
					return err
				}
			} else {
				err := formatter.PrintTable(
					[]string{"host", "port", "live"},
					[][]string{{report.Host, strconv.Itoa(port), boolWord(live)}},
				)
				if err != nil {
					return err
				}
			}
			if !live {
				return fmt.Errorf("cached port %d is stale", port)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON")

	return cmd
}
