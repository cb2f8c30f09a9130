// pkg/config/types.go
package config

import "time"

// Config is the root configuration structure for portscout.
type Config struct {
	Log       LogConfig       `description:"Logging configuration" koanf:"log"`
	Discovery DiscoveryConfig `description:"Port discovery configuration" koanf:"discovery"`
	Server    ServerConfig    `description:"Companion server identity" koanf:"server"`
	Cache     CacheConfig     `description:"Port cache configuration" koanf:"cache"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level (debug, info, warn, error)" koanf:"level"`
	Format string `description:"Log format: json | text" koanf:"format" validate:"oneof=json text"`
	File   string `description:"Log file path (optional, leave empty for stdout)" koanf:"file"`
}

// DiscoveryConfig holds the scan parameters.
type DiscoveryConfig struct {
	// Host the companion server is expected on. Usually loopback; remote
	// hosts get an ICMP reachability pre-check when PingRemote is set.
	Host string `description:"Companion server host" koanf:"host" validate:"required"`

	PortMin int `description:"Lower bound of the scan range (inclusive)" koanf:"port_min" validate:"min=1,max=65535"`
	PortMax int `description:"Upper bound of the scan range (inclusive)" koanf:"port_max" validate:"min=1,max=65535"`

	BatchSize    int           `description:"Ports probed concurrently per batch" koanf:"batch_size" validate:"min=1"`
	ProbeTimeout time.Duration `description:"Per-probe timeout" koanf:"probe_timeout"`

	// Probe selects the health check: "http" verifies server identity,
	// "tcp" only checks that something accepts connections.
	Probe string `description:"Probe type: http | tcp" koanf:"probe" validate:"oneof=http tcp"`

	PingRemote bool `description:"ICMP reachability pre-check for non-loopback hosts" koanf:"ping_remote"`
}

// ServerConfig describes how the companion server identifies itself.
type ServerConfig struct {
	StatusPath        string `description:"Status endpoint path" koanf:"status_path"`
	AppName           string `description:"Expected application name in the status response" koanf:"app_name"`
	VersionConstraint string `description:"Semver range an answering server must satisfy" koanf:"version_constraint"`
}

// CacheConfig controls port cache persistence.
type CacheConfig struct {
	Enabled bool `description:"Persist the discovered port across runs" koanf:"enabled"`
}
