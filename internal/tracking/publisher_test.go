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

type storeWrite struct {
	busID uuid.UUID
	point geo.Point
	at    time.Time
}

// fakeStore records writes and can be told to fail a number of updates.
type fakeStore struct {
	mu       sync.Mutex
	updates  []storeWrite
	clears   []uuid.UUID
	failNext int
	clearErr error
}

func (s *fakeStore) UpdateLocation(ctx context.Context, busID uuid.UUID, p geo.Point, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return errors.New("store unavailable")
	}
	s.updates = append(s.updates, storeWrite{busID: busID, point: p, at: at})
	return nil
}

func (s *fakeStore) ClearLocation(ctx context.Context, busID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.clears = append(s.clears, busID)
	return nil
}

func (s *fakeStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func (s *fakeStore) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clears)
}

// gatedSource answers the first read immediately, then blocks subsequent
// reads until the gate is released. It deliberately ignores cancellation so
// tests can model a fix that resolves after a stop request.
type gatedSource struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
	point geo.Point
}

func newGatedSource(p geo.Point) *gatedSource {
	return &gatedSource{gate: make(chan struct{}), point: p}
}

func (s *gatedSource) Current(ctx context.Context) (geo.Point, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	if n > 1 {
		<-s.gate
	}
	return s.point, nil
}

func (s *gatedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type staticSource struct {
	point geo.Point
}

func (s staticSource) Current(ctx context.Context) (geo.Point, error) {
	return s.point, nil
}

func testPoint() geo.Point {
	return geo.Point{Latitude: -6.1754, Longitude: 106.8272}
}

func TestStartSession_PublishesImmediately(t *testing.T) {
	store := &fakeStore{}
	p := NewPublisher(staticSource{testPoint()}, store, time.Hour, zap.NewNop(), nil)

	busID, driverID := uuid.New(), uuid.New()
	session, err := p.StartSession(context.Background(), busID, driverID)
	require.NoError(t, err)
	require.NotNil(t, session)
	defer p.Close(context.Background())

	assert.Equal(t, 1, store.updateCount(), "first publish should happen before StartSession returns")
	assert.Equal(t, busID, store.updates[0].busID)
	assert.Equal(t, testPoint(), store.updates[0].point)
}

func TestStartSession_IsIdempotent(t *testing.T) {
	store := &fakeStore{}
	p := NewPublisher(staticSource{testPoint()}, store, time.Hour, zap.NewNop(), nil)

	busID, driverID := uuid.New(), uuid.New()
	first, err := p.StartSession(context.Background(), busID, driverID)
	require.NoError(t, err)
	defer p.Close(context.Background())

	second, err := p.StartSession(context.Background(), busID, driverID)
	require.NoError(t, err)

	assert.Same(t, first, second, "second start must return the existing session")
	assert.Equal(t, 1, store.updateCount(), "second start must not publish again")
}

func TestStartSession_FailedFirstPublishLeavesInactive(t *testing.T) {
	store := &fakeStore{failNext: 1}
	p := NewPublisher(staticSource{testPoint()}, store, time.Hour, zap.NewNop(), nil)

	_, err := p.StartSession(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Nil(t, p.Active(), "failed start must not leave a session behind")
}

func TestStopSession_ClearsPublishedLocation(t *testing.T) {
	store := &fakeStore{}
	p := NewPublisher(staticSource{testPoint()}, store, time.Hour, zap.NewNop(), nil)

	busID := uuid.New()
	_, err := p.StartSession(context.Background(), busID, uuid.New())
	require.NoError(t, err)

	require.NoError(t, p.StopSession(context.Background()))

	assert.Equal(t, 1, store.clearCount(), "stop must issue exactly one clearing write")
	assert.Equal(t, busID, store.clears[0])
	assert.Nil(t, p.Active())
}

func TestStopSession_WithoutSessionIsNoop(t *testing.T) {
	store := &fakeStore{}
	p := NewPublisher(staticSource{testPoint()}, store, time.Hour, zap.NewNop(), nil)

	require.NoError(t, p.StopSession(context.Background()))
	assert.Equal(t, 0, store.clearCount())
}

func TestStopSession_SuppressesInFlightPublish(t *testing.T) {
	store := &fakeStore{}
	source := newGatedSource(testPoint())
	p := NewPublisher(source, store, 10*time.Millisecond, zap.NewNop(), nil)

	_, err := p.StartSession(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, 1, store.updateCount())

	// Wait for the second cycle to start and park inside the location read.
	require.Eventually(t, func() bool {
		return source.callCount() >= 2
	}, time.Second, time.Millisecond)

	session := p.Active()
	require.NotNil(t, session)

	require.NoError(t, p.StopSession(context.Background()))

	// Let the parked read resolve after the stop.
	close(source.gate)
	<-session.Done()

	assert.Equal(t, 1, store.updateCount(), "fix resolved after stop must be discarded")
	assert.Equal(t, 1, store.clearCount())
}

func TestPublishLoop_SurvivesWriteFailures(t *testing.T) {
	store := &fakeStore{}
	p := NewPublisher(staticSource{testPoint()}, store, 5*time.Millisecond, zap.NewNop(), nil)

	_, err := p.StartSession(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	defer p.Close(context.Background())

	// Fail a few mid-stream writes; the loop must keep ticking.
	store.mu.Lock()
	store.failNext = 3
	store.mu.Unlock()

	require.Eventually(t, func() bool {
		return store.updateCount() >= 3
	}, time.Second, time.Millisecond, "publishing should resume after failed writes")
}

func TestStopSession_SurfacesClearFailure(t *testing.T) {
	store := &fakeStore{clearErr: errors.New("store unavailable")}
	p := NewPublisher(staticSource{testPoint()}, store, time.Hour, zap.NewNop(), nil)

	_, err := p.StartSession(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	err = p.StopSession(context.Background())
	require.Error(t, err, "clear failure must be reported")
	assert.Nil(t, p.Active(), "session must be gone locally even when the clear fails")
}

func TestDiscard_LeavesPublishedLocationIntact(t *testing.T) {
	store := &fakeStore{}
	p := NewPublisher(staticSource{testPoint()}, store, time.Hour, zap.NewNop(), nil)

	busID := uuid.New()
	_, err := p.StartSession(context.Background(), busID, uuid.New())
	require.NoError(t, err)

	p.Discard()

	assert.Nil(t, p.Active())
	assert.Equal(t, 0, store.clearCount(), "discarding must not retract the bus position")
	assert.Equal(t, 1, store.updateCount())
}

func TestDiscard_WithoutSessionIsNoop(t *testing.T) {
	store := &fakeStore{}
	p := NewPublisher(staticSource{testPoint()}, store, time.Hour, zap.NewNop(), nil)

	p.Discard()

	assert.Nil(t, p.Active())
	assert.Equal(t, 0, store.clearCount())
}
