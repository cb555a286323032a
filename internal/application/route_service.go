package application

import (
	"context"
	"sort"

	routeDomain "github.com/gerakkita/service-transit/internal/domain/route"
	"github.com/gerakkita/service-transit/internal/domain/vehicle"
	"github.com/gerakkita/service-transit/internal/eta"
	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/gerakkita/service-transit/internal/tracking"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RouteDTO is the response representation of a route.
type RouteDTO struct {
	ID                uuid.UUID `json:"id"`
	RouteNumber       string    `json:"route_number"`
	RouteName         string    `json:"route_name"`
	Description       string    `json:"description,omitempty"`
	EstimatedDuration string    `json:"estimated_duration,omitempty"`
	Status            string    `json:"status"`
	StopCount         int       `json:"stop_count"`
}

// RouteDetailDTO is a route together with its ordered stop sequence.
type RouteDetailDTO struct {
	RouteDTO
	Stops []routeDomain.RouteStop `json:"stops"`
}

// RouteService serves route listings and the live bus view riders poll.
type RouteService struct {
	routes    routeDomain.RouteRepository
	buses     vehicle.BusRepository
	estimator eta.Estimator
	logger    *zap.Logger
}

// NewRouteService creates a new RouteService.
func NewRouteService(
	routes routeDomain.RouteRepository,
	buses vehicle.BusRepository,
	estimator eta.Estimator,
	logger *zap.Logger,
) *RouteService {
	return &RouteService{
		routes:    routes,
		buses:     buses,
		estimator: estimator,
		logger:    logger,
	}
}

// ListActiveRoutes returns all routes currently being served.
func (s *RouteService) ListActiveRoutes(ctx context.Context) ([]RouteDTO, error) {
	routes, stopCounts, err := s.routes.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]RouteDTO, len(routes))
	for i, r := range routes {
		dtos[i] = toRouteDTO(r, stopCounts[r.ID()])
	}
	return dtos, nil
}

// SearchRoutes returns active routes matching the query by number or name.
func (s *RouteService) SearchRoutes(ctx context.Context, query string) ([]RouteDTO, error) {
	routes, err := s.routes.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	dtos := make([]RouteDTO, len(routes))
	for i, r := range routes {
		dtos[i] = toRouteDTO(r, 0)
	}
	return dtos, nil
}

// GetRouteDetail returns a route with its ordered stops.
func (s *RouteService) GetRouteDetail(ctx context.Context, routeID uuid.UUID) (*RouteDetailDTO, error) {
	r, err := s.routes.FindByID(ctx, routeID)
	if err != nil {
		return nil, err
	}

	stops, err := s.routes.StopsForRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	return &RouteDetailDTO{
		RouteDTO: toRouteDTO(r, len(stops)),
		Stops:    stops,
	}, nil
}

// ListStops returns all known bus stops.
func (s *RouteService) ListStops(ctx context.Context) ([]routeDomain.Stop, error) {
	return s.routes.ListStops(ctx)
}

// RouteBuses returns every bus on the route annotated with its distance from
// the viewer and an arrival estimate, nearest first. Buses that have not
// published a position are included with null coordinates so the rider still
// sees them listed, sorted after the located ones.
func (s *RouteService) RouteBuses(ctx context.Context, routeID uuid.UUID, viewer geo.Point) ([]tracking.RouteBusView, error) {
	buses, err := s.buses.FindByRouteID(ctx, routeID)
	if err != nil {
		return nil, err
	}

	views := make([]tracking.RouteBusView, 0, len(buses))
	for _, b := range buses {
		view := tracking.RouteBusView{
			ID:        b.ID(),
			BusNumber: b.BusNumber(),
			Status:    string(b.Status()),
		}

		if pos := b.Position(); pos != nil {
			lat, lng, at := pos.Point.Latitude, pos.Point.Longitude, pos.UpdatedAt
			view.CurrentLatitude = &lat
			view.CurrentLongitude = &lng
			view.LastLocationUpdate = &at
			view.DistanceMeters = geo.DistanceMeters(pos.Point, viewer)

			minutes, err := s.estimator.EstimateMinutes(ctx, b.ID(), pos.Point, viewer)
			if err != nil {
				// An estimate is decoration; the position is still useful.
				s.logger.Warn("eta estimate failed",
					zap.String("bus_id", b.ID().String()),
					zap.Error(err),
				)
				minutes = 0
			}
			view.ETAMinutes = minutes
		}

		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		iLoc, jLoc := views[i].CurrentLatitude != nil, views[j].CurrentLatitude != nil
		if iLoc != jLoc {
			return iLoc
		}
		return views[i].DistanceMeters < views[j].DistanceMeters
	})

	return views, nil
}

// RouteOverview returns the static half of the live view: route metadata and
// the ordered stop sequence.
func (s *RouteService) RouteOverview(ctx context.Context, routeID uuid.UUID) (*tracking.RouteOverview, error) {
	r, err := s.routes.FindByID(ctx, routeID)
	if err != nil {
		return nil, err
	}

	stops, err := s.routes.StopsForRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	stopViews := make([]tracking.RouteStopView, len(stops))
	for i, rs := range stops {
		stopViews[i] = tracking.RouteStopView{
			ID:        rs.Stop.ID,
			Name:      rs.Stop.Name,
			Latitude:  rs.Stop.Location.Latitude,
			Longitude: rs.Stop.Location.Longitude,
			StopOrder: rs.StopOrder,
		}
	}

	return &tracking.RouteOverview{
		ID:          r.ID(),
		RouteNumber: r.RouteNumber(),
		RouteName:   r.RouteName(),
		Stops:       stopViews,
	}, nil
}

// --- Conversion Helpers ---

func toRouteDTO(r *routeDomain.Route, stopCount int) RouteDTO {
	return RouteDTO{
		ID:                r.ID(),
		RouteNumber:       r.RouteNumber(),
		RouteName:         r.RouteName(),
		Description:       r.Description(),
		EstimatedDuration: r.EstimatedDuration(),
		Status:            string(r.Status()),
		StopCount:         stopCount,
	}
}

var (
	_ tracking.RouteBusFetcher      = (*RouteService)(nil)
	_ tracking.RouteOverviewFetcher = (*RouteService)(nil)
)
