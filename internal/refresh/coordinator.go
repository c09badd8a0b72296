// Package refresh owns the current feed snapshot and arbitrates between
// the periodic and manual refresh triggers.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-watch-service/internal/domain"
	"github.com/couchcryptid/quake-watch-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Fetcher performs one retrieval attempt against the remote feed.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.Feed, []byte, error)
}

// Store persists and restores the snapshot document.
type Store interface {
	Load() (domain.Feed, []byte, error)
	Save(raw []byte) error
}

// Publisher receives the projected events of each successful refresh.
// A nil Publisher disables publishing.
type Publisher interface {
	PublishEvents(ctx context.Context, fetchedAt time.Time, events []domain.Event) error
}

// Refresh triggers, used as the metrics label.
const (
	TriggerStartup = "startup"
	TriggerTimer   = "timer"
	TriggerManual  = "manual"
)

// State is a point-in-time view of the coordinator's refresh bookkeeping.
type State struct {
	InFlight      bool
	LastAttemptAt time.Time
	LastError     error
}

// flight is one in-progress refresh. Late callers wait on done and read
// err afterwards; err is written exactly once, before done is closed.
type flight struct {
	done chan struct{}
	err  error
}

// Coordinator owns the current snapshot. It guarantees that concurrent
// refresh requests collapse into a single fetch (single-flight), that a
// new snapshot is persisted before it is published, and that a failed
// fetch leaves the previous snapshot serving.
type Coordinator struct {
	fetcher   Fetcher
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	interval  time.Duration
	threshold float64

	current atomic.Pointer[domain.Snapshot]

	mu            sync.Mutex
	inFlight      *flight
	lastAttemptAt time.Time
	lastError     error
}

// New creates a Coordinator seeded from the store. A missing or corrupt
// cache file is not fatal: the coordinator starts with an empty snapshot
// and serves it until a fetch succeeds.
func New(fetcher Fetcher, store Store, publisher Publisher, interval time.Duration, threshold float64,
	logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Coordinator {

	c := &Coordinator{
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
		interval:  interval,
		threshold: threshold,
	}
	c.current.Store(c.loadInitial())
	return c
}

// loadInitial builds the startup snapshot from the persisted cache.
func (c *Coordinator) loadInitial() *domain.Snapshot {
	feed, raw, err := c.store.Load()
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindEmptyDataset:
			c.logger.Info("no cached snapshot, starting empty")
		default:
			c.logger.Warn("cached snapshot unusable, starting empty", "error", err)
		}
		return domain.EmptySnapshot()
	}

	c.logger.Info("cached snapshot loaded", "features", len(feed.Features))
	c.metrics.SnapshotEvents.Set(float64(len(feed.Features)))
	// FetchedAt stays zero: the cache file does not record when the data
	// was retrieved, only that it came from a completed fetch.
	return &domain.Snapshot{Feed: feed, Raw: raw, Valid: true}
}

// Snapshot returns the currently published snapshot. It never blocks on
// a refresh in progress.
func (c *Coordinator) Snapshot() *domain.Snapshot {
	return c.current.Load()
}

// State returns the current refresh bookkeeping.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		InFlight:      c.inFlight != nil,
		LastAttemptAt: c.lastAttemptAt,
		LastError:     c.lastError,
	}
}

// CheckReadiness reports ready once a usable snapshot exists, whether it
// was loaded from disk or fetched.
func (c *Coordinator) CheckReadiness(_ context.Context) error {
	snap := c.Snapshot()
	if snap.Valid || len(snap.Feed.Features) > 0 {
		return nil
	}
	return fmt.Errorf("no snapshot available yet")
}

// RefreshNow refreshes the snapshot on behalf of a manual trigger. If a
// refresh is already in flight the call joins it and returns that
// refresh's outcome instead of starting a second fetch.
func (c *Coordinator) RefreshNow(ctx context.Context) error {
	return c.refresh(ctx, TriggerManual)
}

func (c *Coordinator) refresh(ctx context.Context, trigger string) error {
	c.mu.Lock()
	if f := c.inFlight; f != nil {
		c.mu.Unlock()
		c.metrics.RefreshJoins.Inc()
		c.logger.Debug("joining in-flight refresh", "trigger", trigger)
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f := &flight{done: make(chan struct{})}
	c.inFlight = f
	c.lastAttemptAt = c.clock.Now()
	c.mu.Unlock()

	c.metrics.RefreshInFlight.Set(1)
	start := c.clock.Now()
	err := c.doRefresh(ctx)
	c.metrics.RefreshDuration.Observe(c.clock.Since(start).Seconds())
	c.metrics.RefreshInFlight.Set(0)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		c.logger.Error("refresh failed, keeping previous snapshot",
			"trigger", trigger,
			"kind", domain.KindOf(err).String(),
			"error", err,
		)
	} else {
		c.logger.Info("refresh complete",
			"trigger", trigger,
			"features", len(c.Snapshot().Feed.Features),
		)
	}
	c.metrics.RefreshTotal.WithLabelValues(trigger, outcome).Inc()

	c.mu.Lock()
	c.inFlight = nil
	c.lastError = err
	c.mu.Unlock()

	f.err = err
	close(f.done)
	return err
}

// doRefresh runs one fetch-persist-publish cycle. The persist happens
// before the in-memory publish so a crash between the two can only leave
// both views on the previous snapshot.
func (c *Coordinator) doRefresh(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.NewFeedError(domain.KindUnknown, fmt.Errorf("refresh panic: %v", r))
		}
	}()

	feed, raw, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}

	// A cancelled refresh must not publish its result.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := c.store.Save(raw); err != nil {
		return domain.NewFeedError(domain.KindUnknown, fmt.Errorf("persist snapshot: %w", err))
	}

	snap := &domain.Snapshot{
		Feed:      feed,
		Raw:       raw,
		FetchedAt: c.clock.Now(),
		Valid:     true,
	}
	c.current.Store(snap)
	c.metrics.SnapshotEvents.Set(float64(len(feed.Features)))
	c.metrics.SnapshotTimestamp.Set(float64(snap.FetchedAt.Unix()))

	if c.publisher != nil {
		events := domain.Project(feed, domain.SortTime, domain.Descending, c.threshold)
		if err := c.publisher.PublishEvents(ctx, snap.FetchedAt, events); err != nil {
			// Publishing is best-effort; the refresh itself succeeded.
			c.logger.Warn("publish refreshed events failed", "error", err)
		}
	}

	return nil
}

// Run performs one immediate refresh attempt and then refreshes on every
// tick until ctx is cancelled. Serving does not wait for the first
// attempt: the caller starts Run alongside the HTTP server, and a failed
// first refresh leaves the loaded cache as the published snapshot.
// Refreshes run synchronously inside Run, so once Run returns no timer
// work is still writing.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("refresh loop started", "interval", c.interval)

	if err := c.refresh(ctx, TriggerStartup); err != nil && ctx.Err() == nil {
		c.logger.Warn("startup refresh failed, serving cached data", "error", err)
	}

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			// An error here is already logged and recorded in State;
			// the timer keeps going and retries next period.
			c.refresh(ctx, TriggerTimer) //nolint:errcheck
		}
	}
}
