// pkg/config/config.go
package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/portscout/portscout/pkg/discovery"
	"github.com/portscout/portscout/pkg/probe"
)

var validate = validator.New()

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex // protects currentConfig during runtime updates
}

// NewManager creates a Manager with a fresh koanf instance.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
	}
}

// DefaultConfig returns a Config populated with hardcoded default values.
// These serve as the baseline if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
		Discovery: DiscoveryConfig{
			Host:         "127.0.0.1",
			PortMin:      5000,
			PortMax:      5100,
			BatchSize:    discovery.DefaultBatchSize,
			ProbeTimeout: discovery.DefaultProbeTimeout,
			Probe:        "http",
			PingRemote:   true,
		},
		Server: ServerConfig{
			StatusPath:        probe.DefaultStatusPath,
			AppName:           probe.DefaultAppName,
			VersionConstraint: probe.DefaultVersionConstraint,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
	}
}

// Load merges the given sources in priority order and unmarshals the
// result into the manager's current config. The final config is validated
// before it replaces the previous one.
func (m *Manager) Load(sources ...ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := make([]ConfigSource, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	for _, src := range ordered {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("load config source %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("unmarshal final config: %w", err)
	}

	postProcess(&newCfg)

	if err := Validate(&newCfg); err != nil {
		return err
	}

	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfgCopy := m.currentConfig
	return cfgCopy
}

// Validate checks a loaded Config for contradictions the tag-level rules
// cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Discovery.PortMax < cfg.Discovery.PortMin {
		return fmt.Errorf("invalid configuration: discovery.port_max (%d) below discovery.port_min (%d)",
			cfg.Discovery.PortMax, cfg.Discovery.PortMin)
	}
	return nil
}

// postProcess applies adjustments after loading and unmarshaling.
func postProcess(cfg *Config) {
	if cfg.Discovery.ProbeTimeout <= 0 {
		cfg.Discovery.ProbeTimeout = discovery.DefaultProbeTimeout
	}
	if cfg.Discovery.BatchSize < 1 {
		cfg.Discovery.BatchSize = discovery.DefaultBatchSize
	}
}

// DefaultConfigAsMap converts DefaultConfig to a map for koanf's
// confmap provider, making every key known up front.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		// Log configuration
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,
		"log.file":   def.Log.File,

		// Discovery configuration
		"discovery.host":          def.Discovery.Host,
		"discovery.port_min":      def.Discovery.PortMin,
		"discovery.port_max":      def.Discovery.PortMax,
		"discovery.batch_size":    def.Discovery.BatchSize,
		"discovery.probe_timeout": def.Discovery.ProbeTimeout,
		"discovery.probe":         def.Discovery.Probe,
		"discovery.ping_remote":   def.Discovery.PingRemote,

		// Companion server identity
		"server.status_path":        def.Server.StatusPath,
		"server.app_name":           def.Server.AppName,
		"server.version_constraint": def.Server.VersionConstraint,

		// Cache configuration
		"cache.enabled": def.Cache.Enabled,
	}
}

// BindFlags defines command-line flags corresponding to configuration
// settings. Call when setting up the root cobra command.
func BindFlags(flags *pflag.FlagSet) {
	var flagvar bool
	flags.BoolVar(&flagvar, "debug", false, "Enable debug logging")

	flags.String("discovery.host", "", "Companion server host")
	flags.Int("discovery.port_min", 0, "Lower bound of the scan range")
	flags.Int("discovery.port_max", 0, "Upper bound of the scan range")
}
