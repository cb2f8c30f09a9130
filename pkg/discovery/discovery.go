// Package discovery locates the companion server's TCP port within a
// configured range, preferring a previously cached port and falling back
// to a batched concurrent range scan.
package discovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultProbeTimeout bounds a single probe. Probes that have not
	// settled within this window count as failures for their port.
	DefaultProbeTimeout = 2 * time.Second

	// DefaultBatchSize is the number of ports probed concurrently per batch.
	DefaultBatchSize = 5
)

// ProbeFunc checks whether the companion server is reachable and correctly
// identified on the given port. Returning an error is equivalent to
// returning false; errors never abort a scan.
type ProbeFunc func(ctx context.Context, port int) (bool, error)

// PortStore is the read side of the port cache.
type PortStore interface {
	// GetPort returns the last known good port. ok is false when nothing
	// is cached.
	GetPort(ctx context.Context) (port int, ok bool, err error)
}

// PortWriter is the optional write side of the port cache. Stores that do
// not implement it are tolerated; persistence is then skipped.
type PortWriter interface {
	SetPort(ctx context.Context, port int) error
	ClearPort(ctx context.Context) error
}

// ProgressEvent reports cumulative scan progress after each batch settles.
type ProgressEvent struct {
	SessionID uuid.UUID
	Scanned   int
	Total     int
	BatchLow  int
	BatchHigh int
	Timestamp time.Time
}

// ProgressSink receives progress notifications. Implementations must be
// fast and must not block; they are called synchronously between batches.
type ProgressSink interface {
	OnProgress(ProgressEvent)
}

// ProgressFunc adapts a plain function to a ProgressSink.
type ProgressFunc func(ProgressEvent)

func (f ProgressFunc) OnProgress(ev ProgressEvent) { f(ev) }

// Source indicates how a discovery result was obtained.
type Source string

const (
	SourceCache Source = "cache"
	SourceScan  Source = "scan"
	SourceNone  Source = "none"
)

// Result is the outcome of a single discovery run.
type Result struct {
	SessionID uuid.UUID     `json:"session_id"`
	Port      int           `json:"port"`
	Found     bool          `json:"found"`
	Source    Source        `json:"source"`
	Scanned   int           `json:"scanned"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Options are per-run parameters for Discover.
type Options struct {
	MinPort int
	MaxPort int
	// ForceScan skips the cache fast path and always scans the full range.
	ForceScan bool
}

var (
	errNilStore = errors.New("discovery: port store is required")
	errNilProbe = errors.New("discovery: probe function is required")
)

// Discoverer resolves the companion server port. Construct with
// NewDiscoverer and customize with the With* builders.
type Discoverer struct {
	store     PortStore
	probe     ProbeFunc
	timeout   time.Duration
	batchSize int
	sink      ProgressSink
	logger    zerolog.Logger
}

// NewDiscoverer builds a Discoverer with default timeout and batch size.
func NewDiscoverer(store PortStore, probe ProbeFunc) *Discoverer {
	return &Discoverer{
		store:     store,
		probe:     probe,
		timeout:   DefaultProbeTimeout,
		batchSize: DefaultBatchSize,
		logger:    log.Logger,
	}
}

// WithTimeout overrides the per-probe timeout.
func (d *Discoverer) WithTimeout(timeout time.Duration) *Discoverer {
	if timeout > 0 {
		d.timeout = timeout
	}
	return d
}

// WithBatchSize overrides the per-batch concurrency bound.
func (d *Discoverer) WithBatchSize(size int) *Discoverer {
	if size > 0 {
		d.batchSize = size
	}
	return d
}

// WithProgressSink attaches a sink to receive per-batch progress.
func (d *Discoverer) WithProgressSink(sink ProgressSink) *Discoverer {
	d.sink = sink
	return d
}

// WithLogger overrides the logger used for diagnostics.
func (d *Discoverer) WithLogger(logger zerolog.Logger) *Discoverer {
	d.logger = logger
	return d
}

// Discover resolves the companion server port.
//
// Unless opts.ForceScan is set, a cached port is probed first; a positive
// probe returns immediately without touching the rest of the range and
// without persisting anything. On a cache miss the cache is cleared and
// the full range [MinPort, MaxPort] is scanned in ascending batches. The
// lowest live port of the earliest positive batch wins and is persisted.
//
// Probe failures, timeouts, and storage failures never surface as errors.
// The returned error is non-nil only for contract violations (nil store or
// probe) and caller cancellation.
func (d *Discoverer) Discover(ctx context.Context, opts Options) (*Result, error) {
	if d.store == nil {
		return nil, errNilStore
	}
	if d.probe == nil {
		return nil, errNilProbe
	}

	start := time.Now()
	res := &Result{SessionID: uuid.New(), Source: SourceNone}
	logger := d.logger.With().Stringer("session_id", res.SessionID).Logger()

	if !opts.ForceScan {
		if port, ok := d.cachedPort(ctx, logger); ok {
			if d.probePort(ctx, port) {
				logger.Debug().Int("port", port).Msg("cached port is live")
				res.Port = port
				res.Found = true
				res.Source = SourceCache
				res.Elapsed = time.Since(start)
				return res, nil
			}
			logger.Debug().Int("port", port).Msg("cached port is stale")
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The cache is cleared on every scan entry, before the first range
	// probe, so a crash mid-scan cannot leave a stale port behind.
	d.clearCache(ctx, logger)

	port, scanned, found, err := d.scanRange(ctx, opts.MinPort, opts.MaxPort, res.SessionID)
	res.Scanned = scanned
	if err != nil {
		return nil, err
	}

	if found {
		res.Port = port
		res.Found = true
		res.Source = SourceScan
		d.persistPort(ctx, port, logger)
	} else {
		logger.Debug().
			Int("port_min", opts.MinPort).
			Int("port_max", opts.MaxPort).
			Int("scanned", scanned).
			Msg("range scan exhausted without a live port")
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

// scanRange probes [min, max] in ascending batches. Within a batch all
// probes run concurrently; batches run sequentially so an earlier batch's
// match always wins over a later one.
func (d *Discoverer) scanRange(ctx context.Context, min, max int, sid uuid.UUID) (port, scanned int, found bool, err error) {
	total := 0
	if max >= min {
		total = max - min + 1
	}

	for lo := min; lo <= max; lo += d.batchSize {
		if err := ctx.Err(); err != nil {
			return 0, scanned, false, err
		}

		hi := lo + d.batchSize - 1
		if hi > max {
			hi = max
		}

		live := make([]bool, hi-lo+1)
		var wg sync.WaitGroup
		for p := lo; p <= hi; p++ {
			wg.Add(1)
			go func(idx, candidate int) {
				defer wg.Done()
				live[idx] = d.probePort(ctx, candidate)
			}(p-lo, p)
		}
		wg.Wait()

		scanned += hi - lo + 1
		d.emit(ProgressEvent{
			SessionID: sid,
			Scanned:   scanned,
			Total:     total,
			BatchLow:  lo,
			BatchHigh: hi,
			Timestamp: time.Now(),
		})

		// Lowest port wins within the batch, matching scan order.
		for p := lo; p <= hi; p++ {
			if live[p-lo] {
				return p, scanned, true, nil
			}
		}
	}

	return 0, scanned, false, nil
}

// probePort races a single probe against the configured timeout. A probe
// that settles after the deadline is discarded, not cancelled; the buffered
// channel lets the goroutine finish without leaking.
func (d *Discoverer) probePort(ctx context.Context, port int) bool {
	settled := make(chan bool, 1)
	go func() {
		live, err := d.probe(ctx, port)
		if err != nil {
			live = false
		}
		settled <- live
	}()

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case live := <-settled:
		return live
	case <-timer.C:
		d.logger.Debug().Int("port", port).Dur("timeout", d.timeout).Msg("probe timed out")
		return false
	case <-ctx.Done():
		return false
	}
}

// cachedPort reads the cache, treating a failing store as empty.
func (d *Discoverer) cachedPort(ctx context.Context, logger zerolog.Logger) (int, bool) {
	port, ok, err := d.store.GetPort(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("port cache read failed, treating as empty")
		return 0, false
	}
	return port, ok
}

// clearCache invalidates the cached port when the store supports writes.
func (d *Discoverer) clearCache(ctx context.Context, logger zerolog.Logger) {
	w, ok := d.store.(PortWriter)
	if !ok {
		return
	}
	if err := w.ClearPort(ctx); err != nil {
		logger.Warn().Err(err).Msg("port cache invalidation failed")
	}
}

// persistPort records a freshly discovered port, best effort.
func (d *Discoverer) persistPort(ctx context.Context, port int, logger zerolog.Logger) {
	w, ok := d.store.(PortWriter)
	if !ok {
		return
	}
	if err := w.SetPort(ctx, port); err != nil {
		logger.Warn().Err(err).Int("port", port).Msg("port cache write failed")
	}
}

func (d *Discoverer) emit(ev ProgressEvent) {
	if d.sink == nil {
		return
	}
	d.sink.OnProgress(ev)
}
