// pkg/config/source.go
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Source priorities. Lower loads first; later loads override earlier ones.
const (
	priorityDefaults = 10
	priorityFile     = 20
	priorityEnv      = 30
	priorityFlags    = 40
)

// envPrefix is the prefix every portscout environment variable carries.
const envPrefix = "PORTSCOUT_"

// ConfigSource is one layer of the merged configuration.
type ConfigSource interface {
	// Name identifies the source in error messages.
	Name() string

	// Priority orders merging. Lower values load first.
	Priority() int

	// Load merges this source's values into k.
	Load(k *koanf.Koanf) error
}

// DefaultSource seeds the baseline values so every key is known before
// the override layers apply.
type DefaultSource struct{}

func (s *DefaultSource) Name() string  { return "defaults" }
func (s *DefaultSource) Priority() int { return priorityDefaults }

func (s *DefaultSource) Load(k *koanf.Koanf) error {
	if err := k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}
	return nil
}

// FileSource layers a YAML config file over the defaults. A missing file
// is not an error; an unset path disables the layer entirely.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string  { return "file:" + s.Path }
func (s *FileSource) Priority() int { return priorityFile }

func (s *FileSource) Load(k *koanf.Koanf) error {
	if s.Path == "" {
		return nil
	}
	if _, err := os.Stat(s.Path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("stat config file %s: %w", s.Path, err)
	}
	if err := k.Load(file.Provider(s.Path), yaml.Parser()); err != nil {
		return fmt.Errorf("parse config file %s: %w", s.Path, err)
	}
	return nil
}

// EnvSource layers PORTSCOUT_* environment variables. Double underscores
// separate nesting levels so keys that themselves contain underscores
// stay addressable:
//
//	PORTSCOUT_LOG__LEVEL          -> log.level
//	PORTSCOUT_DISCOVERY__PORT_MIN -> discovery.port_min
type EnvSource struct {
	Prefix string // defaults to PORTSCOUT_
}

func (s *EnvSource) Name() string  { return "env" }
func (s *EnvSource) Priority() int { return priorityEnv }

func (s *EnvSource) Load(k *koanf.Koanf) error {
	prefix := s.Prefix
	if prefix == "" {
		prefix = envPrefix
	}
	mapper := func(key string) string {
		key = strings.ToLower(strings.TrimPrefix(key, prefix))
		return strings.ReplaceAll(key, "__", ".")
	}
	if err := k.Load(env.Provider(prefix, ".", mapper), nil); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}
	return nil
}

// FlagSource layers explicitly set command-line flags on top of
// everything else. Flags left at their defaults do not override.
type FlagSource struct {
	Flags *pflag.FlagSet
	Debug bool // forces log.level to debug when set
}

func (s *FlagSource) Name() string  { return "flags" }
func (s *FlagSource) Priority() int { return priorityFlags }

func (s *FlagSource) Load(k *koanf.Koanf) error {
	if s.Flags != nil {
		if err := k.Load(posflag.Provider(s.Flags, ".", k), nil); err != nil {
			return fmt.Errorf("load flags: %w", err)
		}
	}
	if s.Debug {
		_ = k.Set("log.level", "debug")
	}
	return nil
}

// DefaultSources assembles the standard layer stack:
// defaults -> file -> env -> flags.
func DefaultSources(configPath string, flags *pflag.FlagSet, debug bool) []ConfigSource {
	return []ConfigSource{
		&DefaultSource{},
		&FileSource{Path: configPath},
		&EnvSource{},
		&FlagSource{Flags: flags, Debug: debug},
	}
}
