package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"

	"github.com/portscout/portscout/pkg/discovery"
)

const (
	// DefaultStatusPath is the companion server's identity endpoint.
	DefaultStatusPath = "/api/status"

	// DefaultAppName is the identity the status endpoint must report.
	DefaultAppName = "portscout-server"

	// DefaultVersionConstraint is the semver range an answering server
	// must satisfy to count as live.
	DefaultVersionConstraint = ">= 1.0.0"
)

// StatusResponse is the JSON body the companion server's status endpoint
// returns.
type StatusResponse struct {
	App     string `json:"app"`
	Version string `json:"version"`
}

// HTTPOptions tunes the HTTP identity probe. Zero values fall back to
// the package defaults.
type HTTPOptions struct {
	Path              string
	AppName           string
	VersionConstraint string
	Timeout           time.Duration
}

// HTTP returns a probe that requests the status endpoint on the candidate
// port and reports live only when the responder identifies itself as the
// companion server at a compatible version. Any other listener on the
// port, however healthy, reports not-live.
func HTTP(host string, opts HTTPOptions) (discovery.ProbeFunc, error) {
	if opts.Path == "" {
		opts.Path = DefaultStatusPath
	}
	if opts.AppName == "" {
		opts.AppName = DefaultAppName
	}
	if opts.VersionConstraint == "" {
		opts.VersionConstraint = DefaultVersionConstraint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}

	constraint, err := semver.NewConstraint(opts.VersionConstraint)
	if err != nil {
		return nil, fmt.Errorf("invalid version constraint %q: %w", opts.VersionConstraint, err)
	}

	client := &http.Client{Timeout: opts.Timeout}

	return func(ctx context.Context, port int) (bool, error) {
		url := "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + opts.Path
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return false, nil
		}

		var status StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return false, nil // a listener, but not ours
		}
		if status.App != opts.AppName {
			log.Debug().
				Int("port", port).
				Str("app", status.App).
				Msg("status endpoint answered with a foreign identity")
			return false, nil
		}

		version, err := semver.NewVersion(status.Version)
		if err != nil {
			return false, nil
		}
		if !constraint.Check(version) {
			log.Debug().
				Int("port", port).
				Str("version", status.Version).
				Str("constraint", opts.VersionConstraint).
				Msg("companion server version outside supported range")
			return false, nil
		}
		return true, nil
	}, nil
}
