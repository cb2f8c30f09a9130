// Package workspace prepares the on-disk directory portscout uses for
// the port cache and log files.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// envWorkspace overrides the default workspace root when set.
const envWorkspace = "PORTSCOUT_WORKSPACE"

var defaultSubdirs = []string{
	"cache",
	"logs",
}

// Indirection for tests.
var (
	userHomeDir = os.UserHomeDir
	getGOOS     = func() string { return runtime.GOOS }
)

// Prepare ensures the workspace root and required subdirectories exist
// and returns the absolute root path. An empty root selects the platform
// default location.
func Prepare(root string) (string, error) {
	var err error
	if root == "" {
		if root, err = defaultRoot(); err != nil {
			return "", err
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve workspace path: %w", err)
	}

	if err := os.MkdirAll(absRoot, 0o750); err != nil {
		return "", fmt.Errorf("create workspace root: %w", err)
	}
	for _, sub := range defaultSubdirs {
		path := filepath.Join(absRoot, sub)
		if err := os.MkdirAll(path, 0o750); err != nil {
			return "", fmt.Errorf("create workspace subdir %q: %w", sub, err)
		}
	}

	return absRoot, nil
}

// defaultRoot picks the platform-conventional data directory unless the
// environment overrides it.
func defaultRoot() (string, error) {
	if dir := os.Getenv(envWorkspace); dir != "" {
		return dir, nil
	}

	switch getGOOS() {
	case "darwin":
		return underHome("Library", "Application Support", "Portscout")
	case "windows":
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "Portscout"), nil
		}
		return underHome("AppData", "Roaming", "Portscout")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "portscout"), nil
		}
		return underHome(".local", "share", "portscout")
	}
}

// underHome joins path elements beneath the user's home directory.
func underHome(elem ...string) (string, error) {
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if home == "" {
		return "", errors.New("cannot determine workspace directory")
	}
	return filepath.Join(append([]string{home}, elem...)...), nil
}

// Subdirectories returns the workspace subdirectories Prepare creates.
func Subdirectories() []string {
	subs := make([]string, len(defaultSubdirs))
	copy(subs, defaultSubdirs)
	return subs
}

type ctxKey string

const workspaceRootKey ctxKey = "workspace.root"

// WithContext stores the prepared workspace root on the provided context.
func WithContext(ctx context.Context, root string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, workspaceRootKey, root)
}

// FromContext extracts the workspace root from context.
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	root, ok := ctx.Value(workspaceRootKey).(string)
	if !ok || root == "" {
		return "", false
	}
	return root, true
}
