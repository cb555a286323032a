package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	routeDomain "github.com/gerakkita/service-transit/internal/domain/route"
	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RouteModel is the GORM model for the routes table.
type RouteModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	RouteNumber       string    `gorm:"uniqueIndex;not null;size:10"`
	RouteName         string    `gorm:"not null;size:100"`
	Description       string    `gorm:"size:500"`
	EstimatedDuration string    `gorm:"size:50"`
	Status            string    `gorm:"not null;size:20;index"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RouteModel) TableName() string {
	return "routes"
}

// BusStopModel is the GORM model for the bus_stops table.
type BusStopModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null;size:100"`
	Latitude  float64   `gorm:"not null"`
	Longitude float64   `gorm:"not null"`
	Address   string    `gorm:"size:255"`
	City      string    `gorm:"size:100;index"`
}

// TableName returns the table name for the GORM model.
func (BusStopModel) TableName() string {
	return "bus_stops"
}

// RouteStopModel is the GORM join model ordering stops along a route.
type RouteStopModel struct {
	RouteID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusStopID uuid.UUID `gorm:"type:uuid;primaryKey"`
	StopOrder int       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RouteStopModel) TableName() string {
	return "route_stops"
}

// GormRouteRepository is the GORM-based implementation of RouteRepository.
type GormRouteRepository struct {
	db *gorm.DB
}

// NewGormRouteRepository creates a new GormRouteRepository.
func NewGormRouteRepository(db *gorm.DB) *GormRouteRepository {
	return &GormRouteRepository{db: db}
}

// FindByID retrieves a route by its unique identifier.
func (r *GormRouteRepository) FindByID(ctx context.Context, id uuid.UUID) (*routeDomain.Route, error) {
	var model RouteModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Route", id.String())
		}
		return nil, fmt.Errorf("failed to find route by ID: %w", err)
	}
	return toDomainRoute(&model)
}

// ListActive retrieves all active routes together with their stop counts.
func (r *GormRouteRepository) ListActive(ctx context.Context) ([]*routeDomain.Route, map[uuid.UUID]int, error) {
	var models []RouteModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(routeDomain.RouteStatusActive)).
		Order("route_number ASC").
		Find(&models).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to list active routes: %w", err)
	}

	type stopCount struct {
		RouteID uuid.UUID
		Count   int
	}
	var counts []stopCount
	if err := r.db.WithContext(ctx).Model(&RouteStopModel{}).
		Select("route_id, count(*) as count").
		Group("route_id").
		Find(&counts).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count route stops: %w", err)
	}

	countByRoute := make(map[uuid.UUID]int, len(counts))
	for _, c := range counts {
		countByRoute[c.RouteID] = c.Count
	}

	routes := make([]*routeDomain.Route, len(models))
	for i, m := range models {
		rt, err := toDomainRoute(&m)
		if err != nil {
			return nil, nil, err
		}
		routes[i] = rt
	}
	return routes, countByRoute, nil
}

// Search retrieves active routes whose number or name matches the query.
func (r *GormRouteRepository) Search(ctx context.Context, query string) ([]*routeDomain.Route, error) {
	pattern := "%" + query + "%"
	var models []RouteModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(routeDomain.RouteStatusActive)).
		Where("route_number ILIKE ? OR route_name ILIKE ?", pattern, pattern).
		Order("route_number ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to search routes: %w", err)
	}

	routes := make([]*routeDomain.Route, len(models))
	for i, m := range models {
		rt, err := toDomainRoute(&m)
		if err != nil {
			return nil, err
		}
		routes[i] = rt
	}
	return routes, nil
}

// StopsForRoute retrieves the ordered stop sequence of a route.
func (r *GormRouteRepository) StopsForRoute(ctx context.Context, routeID uuid.UUID) ([]routeDomain.RouteStop, error) {
	type row struct {
		BusStopModel
		StopOrder int
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Table("route_stops").
		Select("bus_stops.*, route_stops.stop_order").
		Joins("JOIN bus_stops ON bus_stops.id = route_stops.bus_stop_id").
		Where("route_stops.route_id = ?", routeID).
		Order("route_stops.stop_order ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find stops for route: %w", err)
	}

	stops := make([]routeDomain.RouteStop, len(rows))
	for i, rw := range rows {
		stops[i] = routeDomain.RouteStop{
			Stop:      toDomainStop(&rw.BusStopModel),
			StopOrder: rw.StopOrder,
		}
	}
	return stops, nil
}

// ListStops retrieves all known bus stops.
func (r *GormRouteRepository) ListStops(ctx context.Context) ([]routeDomain.Stop, error) {
	var models []BusStopModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list bus stops: %w", err)
	}

	stops := make([]routeDomain.Stop, len(models))
	for i, m := range models {
		stops[i] = toDomainStop(&m)
	}
	return stops, nil
}

// Save persists a new route.
func (r *GormRouteRepository) Save(ctx context.Context, rt *routeDomain.Route) error {
	model := &RouteModel{
		ID:                rt.ID(),
		RouteNumber:       rt.RouteNumber(),
		RouteName:         rt.RouteName(),
		Description:       rt.Description(),
		EstimatedDuration: rt.EstimatedDuration(),
		Status:            string(rt.Status()),
		CreatedAt:         rt.CreatedAt(),
		UpdatedAt:         rt.UpdatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save route: %w", err)
	}
	return nil
}

// --- Conversion Helpers ---

func toDomainRoute(m *RouteModel) (*routeDomain.Route, error) {
	status := routeDomain.RouteStatus(m.Status)
	if !status.IsValid() {
		return nil, shared.NewValidationError("unknown route status: " + m.Status)
	}
	return routeDomain.ReconstructRoute(
		m.ID,
		m.RouteNumber,
		m.RouteName,
		m.Description,
		m.EstimatedDuration,
		status,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainStop(m *BusStopModel) routeDomain.Stop {
	return routeDomain.Stop{
		ID:       m.ID,
		Name:     m.Name,
		Location: geo.Point{Latitude: m.Latitude, Longitude: m.Longitude},
		Address:  m.Address,
		City:     m.City,
	}
}
