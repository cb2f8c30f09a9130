package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/portscout/portscout/cmd/portscout/internal/format"
	"github.com/portscout/portscout/pkg/config"
	"github.com/portscout/portscout/pkg/discovery"
	"github.com/portscout/portscout/pkg/probe"
	"github.com/portscout/portscout/pkg/storage"
	"github.com/portscout/portscout/pkg/workspace"
)

// currentConfig pulls the loaded configuration out of the command context.
func currentConfig(ctx context.Context) (config.Config, error) {
	manager, ok := config.FromContext(ctx)
	if !ok {
		return config.Config{}, fmt.Errorf("configuration not initialized")
	}
	return manager.Get(), nil
}

// buildStore selects the port cache backing for this run. A workspace-backed
// file store when persistence is available, an in-memory store otherwise.
func buildStore(ctx context.Context, cfg config.Config) discovery.PortStore {
	root, ok := workspace.FromContext(ctx)
	if !ok || !cfg.Cache.Enabled {
		log.Debug().Msg("port cache persistence disabled, using in-memory store")
		return storage.NewMemoryStore()
	}
	return storage.NewFileStore(root, cfg.Discovery.Host).WithLogger(log.Logger)
}

// fileStore returns the workspace-backed store, or an error when the run
// has no workspace. Used by commands that only make sense against the
// persistent cache.
func fileStore(ctx context.Context, cfg config.Config) (*storage.FileStore, error) {
	root, ok := workspace.FromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("no workspace available (running with --no-workspace?)")
	}
	return storage.NewFileStore(root, cfg.Discovery.Host).WithLogger(log.Logger), nil
}

// buildProbe selects the configured probe implementation.
func buildProbe(cfg config.Config) (discovery.ProbeFunc, error) {
	switch cfg.Discovery.Probe {
	case "tcp":
		return probe.TCP(cfg.Discovery.Host), nil
	case "http", "":
		return probe.HTTP(cfg.Discovery.Host, probe.HTTPOptions{
			Path:              cfg.Server.StatusPath,
			AppName:           cfg.Server.AppName,
			VersionConstraint: cfg.Server.VersionConstraint,
			Timeout:           cfg.Discovery.ProbeTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown probe type %q", cfg.Discovery.Probe)
	}
}

// ctxWithTimeout applies a timeout when one is configured.
func ctxWithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func boolWord(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// newFormatter builds the output formatter for a command invocation.
func newFormatter(cmd *cobra.Command, jsonOut, quiet bool) *format.Formatter {
	mode := format.ModeText
	if jsonOut {
		mode = format.ModeJSON
	}
	useColor := false
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return format.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode, quiet, useColor)
}
