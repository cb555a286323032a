package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeFetcher serves canned bus views and counts fetches.
type fakeFetcher struct {
	mu     sync.Mutex
	calls  int
	result []RouteBusView
	err    error
}

func (f *fakeFetcher) RouteBuses(ctx context.Context, routeID uuid.UUID, viewer geo.Point) ([]RouteBusView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]RouteBusView, len(f.result))
	copy(out, f.result)
	return out, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) set(result []RouteBusView, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = result
	f.err = err
}

func busView(number string, lat, lng float64) RouteBusView {
	return RouteBusView{
		ID:               uuid.New(),
		BusNumber:        number,
		Status:           "available",
		CurrentLatitude:  &lat,
		CurrentLongitude: &lng,
	}
}

func TestWatcher_NoFetchWithoutViewerLocation(t *testing.T) {
	fetcher := &fakeFetcher{result: []RouteBusView{busView("B-01", -6.17, 106.82)}}
	w := NewWatcher(fetcher, nil, uuid.New(), 5*time.Millisecond, zap.NewNop(), nil)

	w.Start()
	defer w.Stop()

	// Several intervals pass with no viewer position.
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, fetcher.callCount(), "polling must be fully gated on viewer location")
	assert.Equal(t, WatchIdle, w.Snapshot().State)
}

func TestWatcher_SetViewerTriggersImmediateRefresh(t *testing.T) {
	fetcher := &fakeFetcher{result: []RouteBusView{busView("B-01", -6.17, 106.82)}}
	w := NewWatcher(fetcher, nil, uuid.New(), time.Hour, zap.NewNop(), nil)

	w.SetViewer(context.Background(), geo.Point{Latitude: -6.18, Longitude: 106.83})

	snap := w.Snapshot()
	assert.Equal(t, 1, fetcher.callCount())
	assert.Equal(t, WatchLive, snap.State)
	require.Len(t, snap.Buses, 1)
	assert.Equal(t, "B-01", snap.Buses[0].BusNumber)
}

func TestWatcher_ReplacesSnapshotWholesale(t *testing.T) {
	first := []RouteBusView{busView("B-01", -6.17, 106.82), busView("B-02", -6.19, 106.84)}
	fetcher := &fakeFetcher{result: first}
	w := NewWatcher(fetcher, nil, uuid.New(), 5*time.Millisecond, zap.NewNop(), nil)

	w.SetViewer(context.Background(), geo.Point{Latitude: -6.18, Longitude: 106.83})
	before := w.Snapshot()
	require.Len(t, before.Buses, 2)

	second := []RouteBusView{busView("B-03", -6.20, 106.85)}
	fetcher.set(second, nil)
	w.Start()
	defer w.Stop()

	require.Eventually(t, func() bool {
		return len(w.Snapshot().Buses) == 1
	}, time.Second, time.Millisecond)

	after := w.Snapshot()
	assert.Equal(t, "B-03", after.Buses[0].BusNumber, "old and new refreshes must never mix")
	assert.Len(t, before.Buses, 2, "earlier snapshot must be untouched by the swap")
	assert.Equal(t, "B-01", before.Buses[0].BusNumber)
}

func TestWatcher_AbsorbsRefreshErrors(t *testing.T) {
	fetcher := &fakeFetcher{result: []RouteBusView{busView("B-01", -6.17, 106.82)}}
	w := NewWatcher(fetcher, nil, uuid.New(), 5*time.Millisecond, zap.NewNop(), nil)

	w.SetViewer(context.Background(), geo.Point{Latitude: -6.18, Longitude: 106.83})
	require.Equal(t, WatchLive, w.Snapshot().State)

	fetcher.set(nil, errors.New("backend down"))
	w.Start()
	defer w.Stop()

	require.Eventually(t, func() bool {
		return fetcher.callCount() >= 3
	}, time.Second, time.Millisecond)

	snap := w.Snapshot()
	assert.Equal(t, WatchLive, snap.State, "failed refresh must keep the last good snapshot")
	require.Len(t, snap.Buses, 1)
	assert.Equal(t, "B-01", snap.Buses[0].BusNumber)
}

func TestWatcher_EmptyRouteShowsEmptyState(t *testing.T) {
	fetcher := &fakeFetcher{result: []RouteBusView{}}
	w := NewWatcher(fetcher, nil, uuid.New(), time.Hour, zap.NewNop(), nil)

	w.SetViewer(context.Background(), geo.Point{Latitude: -6.18, Longitude: 106.83})

	assert.Equal(t, WatchEmpty, w.Snapshot().State)
}

func TestWatcher_FirstLoadFailureShowsEmptyState(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("backend down")}
	w := NewWatcher(fetcher, nil, uuid.New(), time.Hour, zap.NewNop(), nil)

	w.SetViewer(context.Background(), geo.Point{Latitude: -6.18, Longitude: 106.83})

	snap := w.Snapshot()
	assert.Equal(t, WatchEmpty, snap.State, "a failure with nothing loaded must not leave the view loading")
	assert.Empty(t, snap.Buses)

	// The next successful refresh recovers to live.
	fetcher.set([]RouteBusView{busView("B-01", -6.17, 106.82)}, nil)
	w.refresh(context.Background())
	assert.Equal(t, WatchLive, w.Snapshot().State)
}

// fakeOverviewFetcher serves canned route metadata.
type fakeOverviewFetcher struct {
	overview *RouteOverview
	err      error
}

func (f *fakeOverviewFetcher) RouteOverview(ctx context.Context, routeID uuid.UUID) (*RouteOverview, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.overview, nil
}

func TestWatcher_LoadInitialCombinesRouteAndBuses(t *testing.T) {
	routeID := uuid.New()
	fetcher := &fakeFetcher{result: []RouteBusView{busView("B-01", -6.17, 106.82)}}
	details := &fakeOverviewFetcher{overview: &RouteOverview{
		ID:          routeID,
		RouteNumber: "TJ-01",
		RouteName:   "Blok M - Kota",
		Stops: []RouteStopView{
			{ID: uuid.New(), Name: "Blok M", StopOrder: 1},
			{ID: uuid.New(), Name: "Kota", StopOrder: 2},
		},
	}}
	w := NewWatcher(fetcher, details, routeID, time.Hour, zap.NewNop(), nil)

	snap := w.LoadInitial(context.Background(), geo.Point{Latitude: -6.18, Longitude: 106.83})

	assert.Equal(t, WatchLive, snap.State)
	require.Len(t, snap.Buses, 1)
	require.NotNil(t, snap.Route)
	assert.Equal(t, "TJ-01", snap.Route.RouteNumber)
	assert.Len(t, snap.Route.Stops, 2)

	// Subsequent refreshes keep the overview alongside the fresh bus view.
	w.refresh(context.Background())
	assert.NotNil(t, w.Snapshot().Route)
}

func TestWatcher_LoadInitialDegradesWhenOverviewFails(t *testing.T) {
	fetcher := &fakeFetcher{result: []RouteBusView{busView("B-01", -6.17, 106.82)}}
	details := &fakeOverviewFetcher{err: errors.New("route lookup failed")}
	w := NewWatcher(fetcher, details, uuid.New(), time.Hour, zap.NewNop(), nil)

	snap := w.LoadInitial(context.Background(), geo.Point{Latitude: -6.18, Longitude: 106.83})

	assert.Equal(t, WatchLive, snap.State, "bus view must survive a metadata failure")
	assert.Nil(t, snap.Route)
}

func TestWatcher_SubscriberObservesRefreshes(t *testing.T) {
	fetcher := &fakeFetcher{result: []RouteBusView{busView("B-01", -6.17, 106.82)}}
	w := NewWatcher(fetcher, nil, uuid.New(), 5*time.Millisecond, zap.NewNop(), nil)

	var mu sync.Mutex
	var received []Snapshot
	w.Subscribe(func(s Snapshot) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	})

	w.SetViewer(context.Background(), geo.Point{Latitude: -6.18, Longitude: 106.83})
	w.Start()
	defer w.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) >= 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, s := range received {
		assert.Equal(t, WatchLive, s.State)
		assert.Len(t, s.Buses, 1)
	}
}
