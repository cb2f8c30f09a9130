// Package storage persists the last known good companion server port.
//
// The cache is a single YAML file under the workspace cache directory,
// guarded by a sibling flock so the CLI and a background watcher in
// another process never interleave partial writes.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/portscout/portscout/pkg/portutil"
)

const (
	cacheFileName = "server_port.yaml"
	lockFileName  = "server_port.lock"

	// lockRetryInterval paces TryLockContext while another process holds
	// the cache lock.
	lockRetryInterval = 50 * time.Millisecond
)

// CachedPort is the on-disk shape of the port cache.
type CachedPort struct {
	Port      int       `yaml:"port"`
	Host      string    `yaml:"host"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// FileStore is a flock-guarded, YAML-backed port cache. It implements
// both the read and write sides consumed by the discovery engine.
type FileStore struct {
	path     string
	lockPath string
	host     string
	logger   zerolog.Logger
}

// NewFileStore builds a FileStore rooted at the workspace directory.
// host scopes the cache entry: a cached port recorded for one host is
// invisible when discovering against another.
func NewFileStore(workspaceRoot, host string) *FileStore {
	dir := filepath.Join(workspaceRoot, "cache")
	return &FileStore{
		path:     filepath.Join(dir, cacheFileName),
		lockPath: filepath.Join(dir, lockFileName),
		host:     host,
		logger:   log.Logger,
	}
}

// WithLogger overrides the logger used for diagnostics.
func (s *FileStore) WithLogger(logger zerolog.Logger) *FileStore {
	s.logger = logger
	return s
}

// Path returns the cache file location, for watchers and diagnostics.
func (s *FileStore) Path() string {
	return s.path
}

// GetPort returns the cached port for this store's host. A missing,
// corrupt, or foreign-host entry reads as "no cache".
func (s *FileStore) GetPort(ctx context.Context) (int, bool, error) {
	lock := flock.New(s.lockPath)
	locked, err := lock.TryRLockContext(ctx, lockRetryInterval)
	if err != nil {
		return 0, false, fmt.Errorf("acquire cache read lock: %w", err)
	}
	if !locked {
		return 0, false, fmt.Errorf("cache read lock unavailable: %s", s.lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn().Err(err).Msg("release cache read lock failed")
		}
	}()

	entry, err := s.load()
	if err != nil {
		if IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if entry == nil {
		return 0, false, nil
	}
	if entry.Host != "" && s.host != "" && entry.Host != s.host {
		s.logger.Debug().
			Str("cached_host", entry.Host).
			Str("host", s.host).
			Msg("ignoring port cached for a different host")
		return 0, false, nil
	}
	return entry.Port, true, nil
}

// SetPort records a freshly discovered port.
func (s *FileStore) SetPort(ctx context.Context, port int) error {
	if err := portutil.Validate(port); err != nil {
		return NewInvalidInputError("port", err.Error())
	}

	lock := flock.New(s.lockPath)
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("acquire cache write lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("cache write lock unavailable: %s", s.lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn().Err(err).Msg("release cache write lock failed")
		}
	}()

	entry := CachedPort{Port: port, Host: s.host, UpdatedAt: time.Now().UTC()}
	data, err := yaml.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("marshal port cache entry: %w", err)
	}
	return s.writeAtomic(data)
}

// ClearPort removes the cache entry. Clearing an absent entry is a no-op.
func (s *FileStore) ClearPort(ctx context.Context) error {
	lock := flock.New(s.lockPath)
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("acquire cache write lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("cache write lock unavailable: %s", s.lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn().Err(err).Msg("release cache write lock failed")
		}
	}()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear port cache: %w", err)
	}
	return nil
}

// load reads and decodes the cache file without taking the lock.
// A corrupt file is degraded to "no cache" rather than failing discovery.
func (s *FileStore) load() (*CachedPort, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewNotFoundError("port cache", s.path)
		}
		return nil, fmt.Errorf("read port cache: %w", err)
	}

	var entry CachedPort
	if err := yaml.Unmarshal(data, &entry); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("port cache is corrupt, treating as empty")
		return nil, nil
	}
	if portutil.Validate(entry.Port) != nil {
		s.logger.Warn().Int("port", entry.Port).Str("path", s.path).Msg("port cache holds an invalid port, treating as empty")
		return nil, nil
	}
	return &entry, nil
}

// writeAtomic writes via a temp file and rename so readers never observe
// a torn entry.
func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, cacheFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
