package discovery

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Runner is the subset of Discoverer that FindServerPort depends on.
// Narrowed for test substitution.
type Runner interface {
	Discover(ctx context.Context, opts Options) (*Result, error)
}

// FinderOptions bundles the collaborators for FindServerPort.
type FinderOptions struct {
	Discoverer Runner
	Logger     *zerolog.Logger
	MinPort    int
	MaxPort    int
}

// FindServerPort runs discovery and interprets the outcome for callers
// that only care about "which port, if any". All failures, including an
// error from the discovery run itself, collapse to (0, false); nothing
// propagates.
func FindServerPort(ctx context.Context, forceScan bool, opts FinderOptions) (int, bool) {
	logger := opts.Logger
	if logger == nil {
		logger = &log.Logger
	}

	if opts.Discoverer == nil {
		logger.Warn().Msg("Server port discovery failed after scanning range.")
		return 0, false
	}

	res, err := opts.Discoverer.Discover(ctx, Options{
		MinPort:   opts.MinPort,
		MaxPort:   opts.MaxPort,
		ForceScan: forceScan,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Server port discovery failed after scanning range.")
		return 0, false
	}

	if !res.Found {
		logger.Warn().Msg("Server port discovery failed after scanning range.")
		return 0, false
	}

	logger.Info().Str("source", string(res.Source)).Msgf("Server discovered on port %d", res.Port)
	return res.Port, true
}
