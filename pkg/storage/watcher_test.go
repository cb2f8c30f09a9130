package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCacheWatcherNotifiesOnWriteAndClear(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewFileStore(root, "127.0.0.1")
	// The watched directory must exist before Start.
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o750))

	changes := make(chan *CachedPort, 4)
	watcher, err := NewCacheWatcher(store, func(entry *CachedPort) {
		changes <- entry
	}, zerolog.Nop())
	require.NoError(t, err)

	go func() { _ = watcher.Start(ctx) }()
	time.Sleep(200 * time.Millisecond) // let the watch register

	require.NoError(t, store.SetPort(ctx, 5013))

	select {
	case entry := <-changes:
		require.NotNil(t, entry)
		require.Equal(t, 5013, entry.Port)
	case <-time.After(3 * time.Second):
		t.Fatal("no notification after cache write")
	}

	require.NoError(t, store.ClearPort(ctx))

	select {
	case entry := <-changes:
		require.Nil(t, entry, "clearing the cache notifies with a nil entry")
	case <-time.After(3 * time.Second):
		t.Fatal("no notification after cache clear")
	}
}

func TestCacheWatcherDebouncesRapidWrites(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewFileStore(root, "127.0.0.1")
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o750))

	changes := make(chan *CachedPort, 16)
	watcher, err := NewCacheWatcher(store, func(entry *CachedPort) {
		changes <- entry
	}, zerolog.Nop())
	require.NoError(t, err)

	go func() { _ = watcher.Start(ctx) }()
	time.Sleep(200 * time.Millisecond)

	for port := 5001; port <= 5005; port++ {
		require.NoError(t, store.SetPort(ctx, port))
	}

	// All five writes land within the debounce window; expect one
	// notification carrying the final value.
	select {
	case entry := <-changes:
		require.NotNil(t, entry)
		require.Equal(t, 5005, entry.Port)
	case <-time.After(3 * time.Second):
		t.Fatal("no notification after rapid writes")
	}

	select {
	case entry := <-changes:
		t.Fatalf("expected a single debounced notification, got extra %+v", entry)
	case <-time.After(300 * time.Millisecond):
	}
}
