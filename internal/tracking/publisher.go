package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/gerakkita/service-transit/internal/platform/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher broadcasts a driver's device location under a bus ID while a trip
// is active. At most one session is active per Publisher instance.
//
// Stopping a session cancels future ticks immediately. A publish cycle whose
// location read is already in flight cannot be preempted; its write is
// suppressed after the read resolves via the session context.
type Publisher struct {
	source   LocationSource
	store    LocationStore
	interval time.Duration
	logger   *zap.Logger
	metrics  *metrics.Collector

	mu      sync.Mutex
	session *Session
}

// Session is the in-memory state of one active broadcast. It is never
// persisted; it exists only between StartSession and StopSession.
type Session struct {
	VehicleID uuid.UUID
	DriverID  uuid.UUID
	StartedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Done is closed when the session's publish loop has fully exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// NewPublisher creates a Publisher with the given cadence. The metrics
// collector may be nil.
func NewPublisher(source LocationSource, store LocationStore, interval time.Duration, logger *zap.Logger, m *metrics.Collector) *Publisher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Publisher{
		source:   source,
		store:    store,
		interval: interval,
		logger:   logger,
		metrics:  m,
	}
}

// Active returns the current session, or nil if none is running.
func (p *Publisher) Active() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// StartSession begins broadcasting for the given bus. If a session is already
// active it is returned unchanged; no second loop is started. The first
// publish cycle runs synchronously: if it fails, the session is not started
// and the error is returned.
func (p *Publisher) StartSession(ctx context.Context, vehicleID, driverID uuid.UUID) (*Session, error) {
	p.mu.Lock()
	if p.session != nil {
		s := p.session
		p.mu.Unlock()
		return s, nil
	}

	sctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		VehicleID: vehicleID,
		DriverID:  driverID,
		StartedAt: time.Now().UTC(),
		ctx:       sctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	p.session = s
	p.mu.Unlock()

	// Immediate publish so riders see the bus without waiting one interval.
	// Use the caller's context: a failure here is surfaced to the driver.
	if err := p.publishOnce(ctx, s); err != nil {
		p.mu.Lock()
		p.session = nil
		p.mu.Unlock()
		cancel()
		close(s.done)
		return nil, shared.NewUnavailableError("failed to publish initial location: " + err.Error())
	}

	if p.metrics != nil {
		p.metrics.ActiveSessions.Inc()
	}
	p.logger.Info("tracking session started",
		zap.String("bus_id", vehicleID.String()),
		zap.String("driver_id", driverID.String()),
	)

	go p.run(s)
	return s, nil
}

// StopSession cancels the active session and issues one best-effort write
// clearing the bus's position and timestamp together, resetting its status to
// available. The local session is considered stopped even if the clearing
// write fails; that failure is returned for surfacing to the driver.
func (p *Publisher) StopSession(ctx context.Context) error {
	p.mu.Lock()
	s := p.session
	p.session = nil
	p.mu.Unlock()

	if s == nil {
		return nil
	}

	s.cancel()

	if p.metrics != nil {
		p.metrics.ActiveSessions.Dec()
	}
	p.logger.Info("tracking session stopped", zap.String("bus_id", s.VehicleID.String()))

	if err := p.store.ClearLocation(ctx, s.VehicleID); err != nil {
		p.logger.Error("failed to clear bus location",
			zap.String("bus_id", s.VehicleID.String()),
			zap.Error(err),
		)
		return shared.NewUnavailableError("trip stopped locally but clearing the published location failed")
	}

	if p.metrics != nil {
		p.metrics.LocationCleared.Inc()
	}
	return nil
}

// Discard cancels the active session without touching the store. Used when a
// duplicate start loses the race to a concurrent one: the surviving session
// owns the bus's published position, so the loser must not clear it.
func (p *Publisher) Discard() {
	p.mu.Lock()
	s := p.session
	p.session = nil
	p.mu.Unlock()

	if s == nil {
		return
	}

	s.cancel()
	<-s.done

	if p.metrics != nil {
		p.metrics.ActiveSessions.Dec()
	}
	p.logger.Info("tracking session discarded", zap.String("bus_id", s.VehicleID.String()))
}

// Close tears the publisher down, stopping any active session. Used on
// shutdown so a leaked loop cannot keep writing after the service is gone.
func (p *Publisher) Close(ctx context.Context) {
	if err := p.StopSession(ctx); err != nil {
		p.logger.Warn("teardown clear failed", zap.Error(err))
	}
}

// run is the fixed-cadence publish loop. Errors never stop the loop; the next
// tick retries the same effect, and last-write-wins makes that safe.
func (p *Publisher) run(s *Session) {
	defer close(s.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := p.publishOnce(s.ctx, s); err != nil {
				if p.metrics != nil {
					p.metrics.LocationPublishErrs.Inc()
				}
				p.logger.Warn("location publish failed, will retry next tick",
					zap.String("bus_id", s.VehicleID.String()),
					zap.Error(err),
				)
			}
		}
	}
}

// publishOnce reads the device position and writes it for the bus. If the
// session was stopped while the read was in flight, the fix is discarded.
func (p *Publisher) publishOnce(ctx context.Context, s *Session) error {
	start := time.Now()

	point, err := p.source.Current(ctx)
	if err != nil {
		return err
	}

	// The read may have resolved after a stop request arrived.
	if s.ctx.Err() != nil {
		return nil
	}

	if err := p.store.UpdateLocation(s.ctx, s.VehicleID, point, time.Now().UTC()); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.LocationPublished.Inc()
		p.metrics.PublishDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}
