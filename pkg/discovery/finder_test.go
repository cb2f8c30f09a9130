package discovery

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	res  *Result
	err  error
	opts Options
}

func (s *stubRunner) Discover(_ context.Context, opts Options) (*Result, error) {
	s.opts = opts
	return s.res, s.err
}

func TestFindServerPortSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	runner := &stubRunner{res: &Result{Port: 5013, Found: true, Source: SourceCache}}
	port, ok := FindServerPort(context.Background(), false, FinderOptions{
		Discoverer: runner,
		Logger:     &logger,
		MinPort:    5001,
		MaxPort:    5100,
	})

	require.True(t, ok)
	require.Equal(t, 5013, port)
	require.Contains(t, buf.String(), "Server discovered on port 5013")
	require.Equal(t, Options{MinPort: 5001, MaxPort: 5100}, runner.opts)
}

func TestFindServerPortForceScanPassedThrough(t *testing.T) {
	runner := &stubRunner{res: &Result{Port: 5001, Found: true, Source: SourceScan}}
	_, ok := FindServerPort(context.Background(), true, FinderOptions{Discoverer: runner})
	require.True(t, ok)
	require.True(t, runner.opts.ForceScan)
}

func TestFindServerPortNotFound(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	runner := &stubRunner{res: &Result{Found: false, Source: SourceNone}}
	port, ok := FindServerPort(context.Background(), false, FinderOptions{Discoverer: runner, Logger: &logger})

	require.False(t, ok)
	require.Zero(t, port)
	require.Contains(t, buf.String(), "Server port discovery failed after scanning range.")
}

func TestFindServerPortSwallowsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	runner := &stubRunner{err: errors.New("boom")}
	port, ok := FindServerPort(context.Background(), false, FinderOptions{Discoverer: runner, Logger: &logger})

	require.False(t, ok)
	require.Zero(t, port)
	require.Contains(t, buf.String(), "Server port discovery failed after scanning range.")
}

func TestFindServerPortNilDiscoverer(t *testing.T) {
	port, ok := FindServerPort(context.Background(), false, FinderOptions{})
	require.False(t, ok)
	require.Zero(t, port)
}
