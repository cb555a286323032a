package application

import (
	"context"
	"time"

	routeDomain "github.com/gerakkita/service-transit/internal/domain/route"
	"github.com/gerakkita/service-transit/internal/domain/shared"
	userDomain "github.com/gerakkita/service-transit/internal/domain/user"
	"github.com/gerakkita/service-transit/internal/domain/vehicle"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterBusRequest is the payload for adding a bus to the fleet.
type RegisterBusRequest struct {
	BusNumber  string `json:"bus_number" binding:"required"`
	TotalSeats int    `json:"total_seats" binding:"required,min=1"`
}

// AssignBusRequest is the payload for assigning a bus to a route or driver.
type AssignBusRequest struct {
	RouteID  *uuid.UUID `json:"route_id"`
	DriverID *uuid.UUID `json:"driver_id"`
}

// SetBusStatusRequest is the payload for a manual status change.
type SetBusStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateRouteRequest is the payload for publishing a new bus line.
type CreateRouteRequest struct {
	RouteNumber       string `json:"route_number" binding:"required"`
	RouteName         string `json:"route_name" binding:"required"`
	Description       string `json:"description"`
	EstimatedDuration string `json:"estimated_duration"`
}

// BusDTO is the admin-facing representation of a bus.
type BusDTO struct {
	ID                 uuid.UUID  `json:"id"`
	BusNumber          string     `json:"bus_number"`
	RouteID            *uuid.UUID `json:"route_id,omitempty"`
	DriverID           *uuid.UUID `json:"driver_id,omitempty"`
	TotalSeats         int        `json:"total_seats"`
	AvailableSeats     int        `json:"available_seats"`
	Status             string     `json:"status"`
	CurrentLatitude    *float64   `json:"current_latitude,omitempty"`
	CurrentLongitude   *float64   `json:"current_longitude,omitempty"`
	LastLocationUpdate *time.Time `json:"last_location_update,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// FleetService implements fleet administration: registering buses, assigning
// them to routes and drivers, and publishing new lines.
type FleetService struct {
	buses  vehicle.BusRepository
	routes routeDomain.RouteRepository
	users  userDomain.UserRepository
	logger *zap.Logger
}

// NewFleetService creates a new FleetService.
func NewFleetService(
	buses vehicle.BusRepository,
	routes routeDomain.RouteRepository,
	users userDomain.UserRepository,
	logger *zap.Logger,
) *FleetService {
	return &FleetService{
		buses:  buses,
		routes: routes,
		users:  users,
		logger: logger,
	}
}

// RegisterBus adds a new bus to the fleet.
func (s *FleetService) RegisterBus(ctx context.Context, req RegisterBusRequest) (*BusDTO, error) {
	bus, err := vehicle.NewBus(req.BusNumber, req.TotalSeats)
	if err != nil {
		return nil, err
	}
	if err := s.buses.Save(ctx, bus); err != nil {
		return nil, err
	}

	s.logger.Info("bus registered",
		zap.String("bus_id", bus.ID().String()),
		zap.String("bus_number", bus.BusNumber()),
	)
	return toBusDTO(bus), nil
}

// ListBuses returns the whole fleet, paginated.
func (s *FleetService) ListBuses(ctx context.Context, page, limit int) (*shared.PaginatedResult[BusDTO], error) {
	buses, total, err := s.buses.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BusDTO, len(buses))
	for i, b := range buses {
		dtos[i] = *toBusDTO(b)
	}
	result := shared.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetBus returns one bus.
func (s *FleetService) GetBus(ctx context.Context, busID uuid.UUID) (*BusDTO, error) {
	bus, err := s.buses.FindByID(ctx, busID)
	if err != nil {
		return nil, err
	}
	return toBusDTO(bus), nil
}

// AssignBus assigns a bus to a route, a driver, or both. The driver assignment
// is mirrored onto the driver record so the driver's app can resolve its bus.
func (s *FleetService) AssignBus(ctx context.Context, busID uuid.UUID, req AssignBusRequest) (*BusDTO, error) {
	if req.RouteID == nil && req.DriverID == nil {
		return nil, shared.NewValidationError("route_id or driver_id is required")
	}

	bus, err := s.buses.FindByID(ctx, busID)
	if err != nil {
		return nil, err
	}

	if req.RouteID != nil {
		if _, err := s.routes.FindByID(ctx, *req.RouteID); err != nil {
			return nil, err
		}
		if err := bus.AssignRoute(*req.RouteID); err != nil {
			return nil, err
		}
	}
	if req.DriverID != nil {
		if err := bus.AssignDriver(*req.DriverID); err != nil {
			return nil, err
		}
	}

	bus.IncrementVersion()
	if err := s.buses.Update(ctx, bus); err != nil {
		return nil, err
	}

	if req.DriverID != nil {
		if err := s.users.AssignBusToDriver(ctx, *req.DriverID, busID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("bus assigned",
		zap.String("bus_id", busID.String()),
	)
	return toBusDTO(bus), nil
}

// SetBusStatus applies a manual status change, e.g. taking a bus into
// maintenance.
func (s *FleetService) SetBusStatus(ctx context.Context, busID uuid.UUID, req SetBusStatusRequest) (*BusDTO, error) {
	target, err := vehicle.ParseBusStatus(req.Status)
	if err != nil {
		return nil, shared.NewValidationError(err.Error())
	}

	bus, err := s.buses.FindByID(ctx, busID)
	if err != nil {
		return nil, err
	}
	if err := bus.ChangeStatus(target); err != nil {
		return nil, err
	}

	bus.IncrementVersion()
	if err := s.buses.Update(ctx, bus); err != nil {
		return nil, err
	}

	s.logger.Info("bus status changed",
		zap.String("bus_id", busID.String()),
		zap.String("status", string(target)),
	)
	return toBusDTO(bus), nil
}

// CreateRoute publishes a new active bus line.
func (s *FleetService) CreateRoute(ctx context.Context, req CreateRouteRequest) (*RouteDTO, error) {
	r, err := routeDomain.NewRoute(req.RouteNumber, req.RouteName, req.Description, req.EstimatedDuration)
	if err != nil {
		return nil, err
	}
	if err := s.routes.Save(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("route created",
		zap.String("route_id", r.ID().String()),
		zap.String("route_number", r.RouteNumber()),
	)
	dto := toRouteDTO(r, 0)
	return &dto, nil
}

func toBusDTO(b *vehicle.Bus) *BusDTO {
	dto := &BusDTO{
		ID:             b.ID(),
		BusNumber:      b.BusNumber(),
		RouteID:        b.RouteID(),
		DriverID:       b.DriverID(),
		TotalSeats:     b.TotalSeats(),
		AvailableSeats: b.AvailableSeats(),
		Status:         string(b.Status()),
		CreatedAt:      b.CreatedAt(),
	}
	if pos := b.Position(); pos != nil {
		lat, lng, at := pos.Point.Latitude, pos.Point.Longitude, pos.UpdatedAt
		dto.CurrentLatitude = &lat
		dto.CurrentLongitude = &lng
		dto.LastLocationUpdate = &at
	}
	return dto
}
