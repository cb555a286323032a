package application

import (
	"context"
	"sync"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/gerakkita/service-transit/internal/domain/vehicle"
	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/gerakkita/service-transit/internal/platform/metrics"
	"github.com/gerakkita/service-transit/internal/tracking"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StartTrackingRequest carries the driver's first GPS fix so the session can
// publish immediately instead of waiting for the device's next report.
type StartTrackingRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// ReportLocationRequest is a periodic GPS fix from the driver's device.
type ReportLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// TrackingStatusDTO is the response representation of a tracking session.
type TrackingStatusDTO struct {
	Active         bool       `json:"active"`
	BusID          *uuid.UUID `json:"bus_id,omitempty"`
	DriverID       *uuid.UUID `json:"driver_id,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	LastReportedAt *time.Time `json:"last_reported_at,omitempty"`
}

// driverSession pairs one driver's device feed with the publisher that
// samples it.
type driverSession struct {
	busID     uuid.UUID
	feed      *tracking.DeviceFeed
	publisher *tracking.Publisher
}

// TrackingService orchestrates driver location broadcasting. Each driver gets
// an isolated publisher so one driver stopping cannot interrupt another.
type TrackingService struct {
	buses    vehicle.BusRepository
	interval time.Duration
	metrics  *metrics.Collector
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*driverSession
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(
	buses vehicle.BusRepository,
	interval time.Duration,
	m *metrics.Collector,
	logger *zap.Logger,
) *TrackingService {
	return &TrackingService{
		buses:    buses,
		interval: interval,
		metrics:  m,
		logger:   logger,
		sessions: make(map[uuid.UUID]*driverSession),
	}
}

// StartTracking begins broadcasting the driver's location under their
// assigned bus. Calling it while a session is already active returns the
// current status without starting a second loop.
func (s *TrackingService) StartTracking(ctx context.Context, driverID uuid.UUID, req StartTrackingRequest) (*TrackingStatusDTO, error) {
	s.mu.Lock()
	if existing, ok := s.sessions[driverID]; ok {
		dto := s.statusLocked(existing)
		s.mu.Unlock()
		return dto, nil
	}
	s.mu.Unlock()

	bus, err := s.buses.FindByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	feed := tracking.NewDeviceFeed()
	feed.Report(geo.Point{Latitude: req.Latitude, Longitude: req.Longitude})

	publisher := tracking.NewPublisher(feed, s.buses, s.interval, s.logger, s.metrics)
	if _, err := publisher.StartSession(ctx, bus.ID(), driverID); err != nil {
		return nil, err
	}

	session := &driverSession{busID: bus.ID(), feed: feed, publisher: publisher}

	s.mu.Lock()
	if existing, ok := s.sessions[driverID]; ok {
		// Lost the race to another start request; keep the winner. The
		// winner's session now owns the bus's published position, so the
		// loser is discarded without the clearing write a stop would issue.
		s.mu.Unlock()
		publisher.Discard()
		s.mu.Lock()
		dto := s.statusLocked(existing)
		s.mu.Unlock()
		return dto, nil
	}
	s.sessions[driverID] = session
	dto := s.statusLocked(session)
	s.mu.Unlock()

	return dto, nil
}

// ReportLocation records a fresh GPS fix for the driver's active session.
func (s *TrackingService) ReportLocation(ctx context.Context, driverID uuid.UUID, req ReportLocationRequest) error {
	s.mu.Lock()
	session, ok := s.sessions[driverID]
	s.mu.Unlock()
	if !ok {
		return shared.NewInvalidStateError("stopped", "reporting")
	}
	session.feed.Report(geo.Point{Latitude: req.Latitude, Longitude: req.Longitude})
	return nil
}

// StopTracking ends the driver's session and retracts the published position.
// The session is gone locally even if the retraction write fails; that error
// is surfaced so the driver can retry the stop.
func (s *TrackingService) StopTracking(ctx context.Context, driverID uuid.UUID) error {
	s.mu.Lock()
	session, ok := s.sessions[driverID]
	delete(s.sessions, driverID)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return session.publisher.StopSession(ctx)
}

// Status reports whether the driver is currently broadcasting.
func (s *TrackingService) Status(driverID uuid.UUID) *TrackingStatusDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[driverID]
	if !ok {
		return &TrackingStatusDTO{Active: false}
	}
	return s.statusLocked(session)
}

// Shutdown stops every active session. Used on service teardown.
func (s *TrackingService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*driverSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessions = make(map[uuid.UUID]*driverSession)
	s.mu.Unlock()

	for _, session := range sessions {
		session.publisher.Close(ctx)
	}
}

func (s *TrackingService) statusLocked(session *driverSession) *TrackingStatusDTO {
	active := session.publisher.Active()
	if active == nil {
		return &TrackingStatusDTO{Active: false}
	}
	startedAt := active.StartedAt
	lastAt := session.feed.LastReportedAt()
	dto := &TrackingStatusDTO{
		Active:    true,
		BusID:     &active.VehicleID,
		DriverID:  &active.DriverID,
		StartedAt: &startedAt,
	}
	if !lastAt.IsZero() {
		dto.LastReportedAt = &lastAt
	}
	return dto
}
