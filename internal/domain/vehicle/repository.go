package vehicle

import (
	"context"
	"time"

	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/google/uuid"
)

// BusRepository defines the persistence contract for bus aggregates.
type BusRepository interface {
	// FindByID retrieves a bus by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Bus, error)

	// FindByDriverID retrieves the bus assigned to a driver.
	FindByDriverID(ctx context.Context, driverID uuid.UUID) (*Bus, error)

	// FindByRouteID retrieves all buses assigned to a route.
	FindByRouteID(ctx context.Context, routeID uuid.UUID) ([]*Bus, error)

	// ListAll retrieves all buses with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Bus, int64, error)

	// Save persists a new bus.
	Save(ctx context.Context, bus *Bus) error

	// Update persists changes to an existing bus with optimistic locking.
	Update(ctx context.Context, bus *Bus) error

	// UpdateLocation writes a position fix for the bus: latitude, longitude
	// and last_location_update set together in a single statement.
	UpdateLocation(ctx context.Context, busID uuid.UUID, p geo.Point, at time.Time) error

	// ClearLocation nulls latitude, longitude and last_location_update
	// together and resets the status to available.
	ClearLocation(ctx context.Context, busID uuid.UUID) error
}
