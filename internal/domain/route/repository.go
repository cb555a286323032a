package route

import (
	"context"

	"github.com/google/uuid"
)

// RouteRepository defines the persistence contract for routes and their stops.
type RouteRepository interface {
	// FindByID retrieves a route by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Route, error)

	// ListActive retrieves all active routes with their stop counts.
	ListActive(ctx context.Context) ([]*Route, map[uuid.UUID]int, error)

	// Search retrieves active routes whose number or name matches the query.
	Search(ctx context.Context, query string) ([]*Route, error)

	// StopsForRoute retrieves the ordered stop sequence of a route.
	StopsForRoute(ctx context.Context, routeID uuid.UUID) ([]RouteStop, error)

	// ListStops retrieves all known bus stops.
	ListStops(ctx context.Context) ([]Stop, error)

	// Save persists a new route.
	Save(ctx context.Context, r *Route) error
}
