package route

import (
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/google/uuid"
)

// RouteStatus represents whether a route is currently served.
type RouteStatus string

const (
	RouteStatusActive      RouteStatus = "active"
	RouteStatusInactive    RouteStatus = "inactive"
	RouteStatusMaintenance RouteStatus = "maintenance"
)

// IsValid returns true if the route status is recognized.
func (s RouteStatus) IsValid() bool {
	switch s {
	case RouteStatusActive, RouteStatusInactive, RouteStatusMaintenance:
		return true
	}
	return false
}

// Route is the aggregate root for a bus line.
type Route struct {
	id                uuid.UUID
	routeNumber       string
	routeName         string
	description       string
	estimatedDuration string
	status            RouteStatus
	createdAt         time.Time
	updatedAt         time.Time
}

// NewRoute creates a new active Route.
func NewRoute(routeNumber, routeName, description, estimatedDuration string) (*Route, error) {
	if routeNumber == "" {
		return nil, shared.NewValidationError("route number is required")
	}
	if routeName == "" {
		return nil, shared.NewValidationError("route name is required")
	}

	now := time.Now().UTC()
	return &Route{
		id:                uuid.New(),
		routeNumber:       routeNumber,
		routeName:         routeName,
		description:       description,
		estimatedDuration: estimatedDuration,
		status:            RouteStatusActive,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructRoute rebuilds a Route from persistence data (no validation).
func ReconstructRoute(
	id uuid.UUID,
	routeNumber, routeName, description, estimatedDuration string,
	status RouteStatus,
	createdAt, updatedAt time.Time,
) *Route {
	return &Route{
		id:                id,
		routeNumber:       routeNumber,
		routeName:         routeName,
		description:       description,
		estimatedDuration: estimatedDuration,
		status:            status,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// ID returns the route's unique identifier.
func (r *Route) ID() uuid.UUID { return r.id }

// RouteNumber returns the short public code for the line.
func (r *Route) RouteNumber() string { return r.routeNumber }

// RouteName returns the human-readable line name.
func (r *Route) RouteName() string { return r.routeName }

// Description returns the optional line description.
func (r *Route) Description() string { return r.description }

// EstimatedDuration returns the published end-to-end travel time.
func (r *Route) EstimatedDuration() string { return r.estimatedDuration }

// Status returns the current route status.
func (r *Route) Status() RouteStatus { return r.status }

// CreatedAt returns the creation timestamp.
func (r *Route) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *Route) UpdatedAt() time.Time { return r.updatedAt }

// IsActive returns true if the route is currently served.
func (r *Route) IsActive() bool { return r.status == RouteStatusActive }
