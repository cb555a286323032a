package tracking

import (
	"context"
	"time"

	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/google/uuid"
)

// LocationSource provides the device's current coordinates. Acquiring a fix
// may block; implementations must honor context cancellation.
type LocationSource interface {
	Current(ctx context.Context) (geo.Point, error)
}

// LocationStore is the remote store the publisher writes to.
type LocationStore interface {
	// UpdateLocation writes the bus's coordinates and a fresh timestamp in
	// one statement.
	UpdateLocation(ctx context.Context, busID uuid.UUID, p geo.Point, at time.Time) error

	// ClearLocation nulls coordinates and timestamp together and resets the
	// bus status to available.
	ClearLocation(ctx context.Context, busID uuid.UUID) error
}

// RouteBusView is one bus on a route annotated with viewer-relative data,
// recomputed on every read and never persisted.
type RouteBusView struct {
	ID                 uuid.UUID  `json:"id"`
	BusNumber          string     `json:"bus_number"`
	Status             string     `json:"status"`
	CurrentLatitude    *float64   `json:"current_latitude"`
	CurrentLongitude   *float64   `json:"current_longitude"`
	LastLocationUpdate *time.Time `json:"last_location_update"`
	DistanceMeters     float64    `json:"distance_meters"`
	ETAMinutes         int        `json:"eta_minutes"`
}

// RouteBusFetcher is the aggregation endpoint the watcher polls.
type RouteBusFetcher interface {
	RouteBuses(ctx context.Context, routeID uuid.UUID, viewer geo.Point) ([]RouteBusView, error)
}

// RouteStopView is one ordered stop on a watched route.
type RouteStopView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	StopOrder int       `json:"stop_order"`
}

// RouteOverview is the static half of a watched route: its metadata and stop
// sequence. Loaded once when watching starts, not on every refresh.
type RouteOverview struct {
	ID          uuid.UUID       `json:"id"`
	RouteNumber string          `json:"route_number"`
	RouteName   string          `json:"route_name"`
	Stops       []RouteStopView `json:"stops"`
}

// RouteOverviewFetcher loads a route's metadata and ordered stops.
type RouteOverviewFetcher interface {
	RouteOverview(ctx context.Context, routeID uuid.UUID) (*RouteOverview, error)
}
