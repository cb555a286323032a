package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/gerakkita/service-transit/internal/platform/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WatchState describes what a rider should see for a watched route.
type WatchState string

const (
	// WatchIdle means no refresh has been attempted yet.
	WatchIdle WatchState = "idle"
	// WatchLoading means the first refresh is in flight.
	WatchLoading WatchState = "loading"
	// WatchLive means the snapshot holds at least one bus.
	WatchLive WatchState = "live"
	// WatchEmpty means the last refresh succeeded but found no buses.
	WatchEmpty WatchState = "empty"
)

// Snapshot is a consistent view of a route's buses as of one refresh. The
// slice is replaced wholesale on every successful refresh, never patched in
// place, so a reader can never observe coordinates from two different
// refreshes mixed together. Route carries the metadata and stop sequence
// loaded once up front; it does not change between refreshes.
type Snapshot struct {
	State     WatchState     `json:"state"`
	Route     *RouteOverview `json:"route,omitempty"`
	Buses     []RouteBusView `json:"buses"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Watcher polls the distance-and-ETA view of one route on a fixed cadence for
// a single rider. Refreshes are gated on the rider's location being known:
// without it the distances would be meaningless, so no fetch is issued at all.
// Once a snapshot has loaded, refresh failures are absorbed and the last good
// snapshot stays on display; a failure before anything ever loaded shows the
// empty state instead of an indefinite loading screen.
type Watcher struct {
	fetcher  RouteBusFetcher
	details  RouteOverviewFetcher
	interval time.Duration
	logger   *zap.Logger
	metrics  *metrics.Collector

	mu       sync.Mutex
	router   uuid.UUID
	viewer   *geo.Point
	snap     Snapshot
	onUpdate func(Snapshot)
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWatcher creates a Watcher for routeID. The overview fetcher and the
// metrics collector may be nil.
func NewWatcher(fetcher RouteBusFetcher, details RouteOverviewFetcher, routeID uuid.UUID, interval time.Duration, logger *zap.Logger, m *metrics.Collector) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Watcher{
		fetcher:  fetcher,
		details:  details,
		interval: interval,
		logger:   logger,
		metrics:  m,
		router:   routeID,
		snap:     Snapshot{State: WatchIdle},
		done:     make(chan struct{}),
	}
}

// Subscribe registers a callback invoked with every new snapshot. At most one
// subscriber is held; registering again replaces the previous callback.
func (w *Watcher) Subscribe(fn func(Snapshot)) {
	w.mu.Lock()
	w.onUpdate = fn
	w.mu.Unlock()
}

// LoadInitial primes the watcher for first display: the route's metadata and
// stop sequence are fetched concurrently with the first bus view. A failure
// on either side degrades that side to empty rather than blocking the other.
// The viewer position is recorded as if SetViewer had been called.
func (w *Watcher) LoadInitial(ctx context.Context, viewer geo.Point) Snapshot {
	w.mu.Lock()
	w.viewer = &viewer
	if w.snap.State == WatchIdle {
		w.snap.State = WatchLoading
	}
	w.mu.Unlock()

	var (
		wg       sync.WaitGroup
		overview *RouteOverview
	)
	if w.details != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ov, err := w.details.RouteOverview(ctx, w.router)
			if err != nil {
				w.logger.Warn("route overview load failed",
					zap.String("route_id", w.router.String()),
					zap.Error(err),
				)
				return
			}
			overview = ov
		}()
	}

	w.refresh(ctx)
	wg.Wait()

	w.mu.Lock()
	if overview != nil {
		w.snap.Route = overview
	}
	snap := w.snap
	w.mu.Unlock()
	return snap
}

// SetViewer records the rider's position. The first call unblocks polling; an
// immediate refresh is attempted so the rider does not wait a full interval.
func (w *Watcher) SetViewer(ctx context.Context, p geo.Point) {
	w.mu.Lock()
	first := w.viewer == nil
	w.viewer = &p
	if first && w.snap.State == WatchIdle {
		w.snap.State = WatchLoading
	}
	w.mu.Unlock()

	if first {
		w.refresh(ctx)
	}
}

// Snapshot returns the current view. The returned slice must not be mutated.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap
}

// Start launches the polling loop. It returns immediately; Stop ends the loop.
func (w *Watcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.refresh(ctx)
			}
		}
	}()
}

// Stop cancels the polling loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-w.done
}

// refresh fetches the route's bus view once. Without a viewer location it
// does nothing, not even a fetch.
func (w *Watcher) refresh(ctx context.Context) {
	w.mu.Lock()
	viewer := w.viewer
	routeID := w.router
	w.mu.Unlock()

	if viewer == nil {
		return
	}

	buses, err := w.fetcher.RouteBuses(ctx, routeID, *viewer)
	if err != nil {
		if w.metrics != nil {
			w.metrics.WatcherRefreshErr.Inc()
		}
		w.logger.Warn("route bus refresh failed",
			zap.String("route_id", routeID.String()),
			zap.Error(err),
		)
		// With no successful load yet there is no last good snapshot to
		// keep showing; fall through to the empty state.
		w.mu.Lock()
		if w.snap.State == WatchIdle || w.snap.State == WatchLoading {
			w.snap = Snapshot{State: WatchEmpty, Route: w.snap.Route, UpdatedAt: time.Now().UTC()}
			w.notifyLocked()
		}
		w.mu.Unlock()
		return
	}

	state := WatchLive
	if len(buses) == 0 {
		state = WatchEmpty
	}

	w.mu.Lock()
	w.snap = Snapshot{State: state, Route: w.snap.Route, Buses: buses, UpdatedAt: time.Now().UTC()}
	w.notifyLocked()
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.WatcherRefreshes.Inc()
	}
}

// notifyLocked hands the current snapshot to the subscriber. Callers hold
// w.mu; the callback runs on its own goroutine so a slow subscriber cannot
// stall the polling loop.
func (w *Watcher) notifyLocked() {
	if w.onUpdate == nil {
		return
	}
	fn, snap := w.onUpdate, w.snap
	go fn(snap)
}
