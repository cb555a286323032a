package vehicle

import (
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/google/uuid"
)

// Position is the last published location of a bus. It is always stored and
// cleared as a unit: coordinates without a timestamp (or the reverse) would be
// indistinguishable from stale data.
type Position struct {
	Point     geo.Point
	UpdatedAt time.Time
}

// Bus is the aggregate root for a vehicle in the fleet.
type Bus struct {
	id             uuid.UUID
	busNumber      string
	routeID        *uuid.UUID
	driverID       *uuid.UUID
	totalSeats     int
	availableSeats int
	status         BusStatus
	position       *Position

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBus creates a new Bus with status=available and no published position.
func NewBus(busNumber string, totalSeats int) (*Bus, error) {
	if busNumber == "" {
		return nil, shared.NewValidationError("bus number is required")
	}
	if totalSeats <= 0 {
		return nil, shared.NewValidationError("total seats must be positive")
	}

	now := time.Now().UTC()
	return &Bus{
		id:             uuid.New(),
		busNumber:      busNumber,
		totalSeats:     totalSeats,
		availableSeats: totalSeats,
		status:         StatusAvailable,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructBus rebuilds a Bus from persistence data (no validation).
func ReconstructBus(
	id uuid.UUID,
	busNumber string,
	routeID *uuid.UUID,
	driverID *uuid.UUID,
	totalSeats int,
	availableSeats int,
	status BusStatus,
	position *Position,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Bus {
	return &Bus{
		id:             id,
		busNumber:      busNumber,
		routeID:        routeID,
		driverID:       driverID,
		totalSeats:     totalSeats,
		availableSeats: availableSeats,
		status:         status,
		position:       position,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

// ID returns the bus's unique identifier.
func (b *Bus) ID() uuid.UUID { return b.id }

// BusNumber returns the fleet registration number.
func (b *Bus) BusNumber() string { return b.busNumber }

// RouteID returns the assigned route, or nil if unassigned.
func (b *Bus) RouteID() *uuid.UUID { return b.routeID }

// DriverID returns the assigned driver, or nil if unassigned.
func (b *Bus) DriverID() *uuid.UUID { return b.driverID }

// TotalSeats returns the seat capacity.
func (b *Bus) TotalSeats() int { return b.totalSeats }

// AvailableSeats returns the current free seat count.
func (b *Bus) AvailableSeats() int { return b.availableSeats }

// Status returns the current operational status.
func (b *Bus) Status() BusStatus { return b.status }

// Position returns the last published position, or nil if the bus is offline.
func (b *Bus) Position() *Position { return b.position }

// Version returns the entity version for optimistic locking.
func (b *Bus) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Bus) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Bus) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// UpdatePosition records a fresh location fix with its update time.
func (b *Bus) UpdatePosition(p geo.Point, at time.Time) error {
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return shared.NewValidationError("coordinates out of range")
	}
	b.position = &Position{Point: p, UpdatedAt: at}
	b.updatedAt = time.Now().UTC()
	return nil
}

// ClearPosition retracts the published location. Coordinates and timestamp go
// together, and the bus returns to available.
func (b *Bus) ClearPosition() {
	b.position = nil
	b.status = StatusAvailable
	b.updatedAt = time.Now().UTC()
}

// AssignRoute assigns the bus to a route.
func (b *Bus) AssignRoute(routeID uuid.UUID) error {
	if routeID == uuid.Nil {
		return shared.NewValidationError("route ID is required")
	}
	b.routeID = &routeID
	b.updatedAt = time.Now().UTC()
	return nil
}

// AssignDriver assigns a driver and resets the bus to available.
func (b *Bus) AssignDriver(driverID uuid.UUID) error {
	if driverID == uuid.Nil {
		return shared.NewValidationError("driver ID is required")
	}
	b.driverID = &driverID
	b.status = StatusAvailable
	b.updatedAt = time.Now().UTC()
	return nil
}

// ChangeStatus transitions the bus to a new operational status.
func (b *Bus) ChangeStatus(target BusStatus) error {
	if !b.status.CanTransitionTo(target) {
		return shared.NewInvalidStateError(string(b.status), string(target))
	}
	b.status = target
	b.updatedAt = time.Now().UTC()
	return nil
}

// ReserveSeats decrements available seats for a ticket purchase and marks the
// bus full when no seats remain.
func (b *Bus) ReserveSeats(quantity int) error {
	if quantity <= 0 {
		return shared.NewValidationError("quantity must be positive")
	}
	if b.availableSeats < quantity {
		return shared.NewConflictError("not enough available seats")
	}
	b.availableSeats -= quantity
	if b.availableSeats == 0 && b.status == StatusAvailable {
		b.status = StatusFull
	}
	b.updatedAt = time.Now().UTC()
	return nil
}

// ReleaseSeats returns seats to the pool after a cancellation or refund.
func (b *Bus) ReleaseSeats(quantity int) error {
	if quantity <= 0 {
		return shared.NewValidationError("quantity must be positive")
	}
	b.availableSeats += quantity
	if b.availableSeats > b.totalSeats {
		b.availableSeats = b.totalSeats
	}
	if b.status == StatusFull && b.availableSeats > 0 {
		b.status = StatusAvailable
	}
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Bus) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
