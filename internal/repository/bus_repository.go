package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/gerakkita/service-transit/internal/domain/vehicle"
	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BusModel is the GORM model for the buses table.
type BusModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BusNumber          string     `gorm:"uniqueIndex;not null;size:20"`
	RouteID            *uuid.UUID `gorm:"type:uuid;index"`
	DriverID           *uuid.UUID `gorm:"type:uuid;index"`
	TotalSeats         int        `gorm:"not null"`
	AvailableSeats     int        `gorm:"not null"`
	Status             string     `gorm:"not null;size:20;index"`
	CurrentLatitude    *float64   `gorm:""`
	CurrentLongitude   *float64   `gorm:""`
	LastLocationUpdate *time.Time `gorm:""`
	Version            int64      `gorm:"not null;default:1"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BusModel) TableName() string {
	return "buses"
}

// GormBusRepository is the GORM-based implementation of BusRepository.
type GormBusRepository struct {
	db *gorm.DB
}

// NewGormBusRepository creates a new GormBusRepository.
func NewGormBusRepository(db *gorm.DB) *GormBusRepository {
	return &GormBusRepository{db: db}
}

// FindByID retrieves a bus by its unique identifier.
func (r *GormBusRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicle.Bus, error) {
	var model BusModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Bus", id.String())
		}
		return nil, fmt.Errorf("failed to find bus by ID: %w", err)
	}
	return toDomainBus(&model)
}

// FindByDriverID retrieves the bus assigned to a driver.
func (r *GormBusRepository) FindByDriverID(ctx context.Context, driverID uuid.UUID) (*vehicle.Bus, error) {
	var model BusModel
	if err := r.db.WithContext(ctx).Where("driver_id = ?", driverID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Bus", "driver "+driverID.String())
		}
		return nil, fmt.Errorf("failed to find bus by driver: %w", err)
	}
	return toDomainBus(&model)
}

// FindByRouteID retrieves all buses assigned to a route.
func (r *GormBusRepository) FindByRouteID(ctx context.Context, routeID uuid.UUID) ([]*vehicle.Bus, error) {
	var models []BusModel
	if err := r.db.WithContext(ctx).
		Where("route_id = ?", routeID).
		Order("bus_number ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find buses by route: %w", err)
	}

	buses := make([]*vehicle.Bus, len(models))
	for i, m := range models {
		b, err := toDomainBus(&m)
		if err != nil {
			return nil, err
		}
		buses[i] = b
	}
	return buses, nil
}

// ListAll retrieves all buses with pagination (admin).
func (r *GormBusRepository) ListAll(ctx context.Context, page, limit int) ([]*vehicle.Bus, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BusModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count buses: %w", err)
	}

	var models []BusModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("bus_number ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list buses: %w", err)
	}

	buses := make([]*vehicle.Bus, len(models))
	for i, m := range models {
		b, err := toDomainBus(&m)
		if err != nil {
			return nil, 0, err
		}
		buses[i] = b
	}
	return buses, total, nil
}

// Save persists a new bus.
func (r *GormBusRepository) Save(ctx context.Context, bus *vehicle.Bus) error {
	model := toBusModel(bus)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save bus: %w", err)
	}
	return nil
}

// Update persists changes to an existing bus with optimistic locking.
func (r *GormBusRepository) Update(ctx context.Context, bus *vehicle.Bus) error {
	model := toBusModel(bus)

	// Optimistic locking: only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := bus.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BusModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"route_id":             model.RouteID,
			"driver_id":            model.DriverID,
			"total_seats":          model.TotalSeats,
			"available_seats":      model.AvailableSeats,
			"status":               model.Status,
			"current_latitude":     model.CurrentLatitude,
			"current_longitude":    model.CurrentLongitude,
			"last_location_update": model.LastLocationUpdate,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update bus: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("bus was modified by another transaction")
	}
	return nil
}

// UpdateLocation writes a fresh position fix in a single statement so readers
// never see coordinates from one fix with the timestamp of another.
func (r *GormBusRepository) UpdateLocation(ctx context.Context, busID uuid.UUID, p geo.Point, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&BusModel{}).
		Where("id = ?", busID).
		Updates(map[string]interface{}{
			"current_latitude":     p.Latitude,
			"current_longitude":    p.Longitude,
			"last_location_update": at,
			"updated_at":           time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update bus location: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Bus", busID.String())
	}
	return nil
}

// ClearLocation nulls the coordinates and their timestamp together and resets
// the bus to available, all in one statement.
func (r *GormBusRepository) ClearLocation(ctx context.Context, busID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&BusModel{}).
		Where("id = ?", busID).
		Updates(map[string]interface{}{
			"current_latitude":     nil,
			"current_longitude":    nil,
			"last_location_update": nil,
			"status":               string(vehicle.StatusAvailable),
			"updated_at":           time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to clear bus location: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Bus", busID.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toBusModel(b *vehicle.Bus) *BusModel {
	model := &BusModel{
		ID:             b.ID(),
		BusNumber:      b.BusNumber(),
		RouteID:        b.RouteID(),
		DriverID:       b.DriverID(),
		TotalSeats:     b.TotalSeats(),
		AvailableSeats: b.AvailableSeats(),
		Status:         string(b.Status()),
		Version:        b.Version(),
		CreatedAt:      b.CreatedAt(),
		UpdatedAt:      b.UpdatedAt(),
	}
	if pos := b.Position(); pos != nil {
		lat, lng, at := pos.Point.Latitude, pos.Point.Longitude, pos.UpdatedAt
		model.CurrentLatitude = &lat
		model.CurrentLongitude = &lng
		model.LastLocationUpdate = &at
	}
	return model
}

func toDomainBus(m *BusModel) (*vehicle.Bus, error) {
	status, err := vehicle.ParseBusStatus(m.Status)
	if err != nil {
		return nil, err
	}

	var position *vehicle.Position
	if m.CurrentLatitude != nil && m.CurrentLongitude != nil && m.LastLocationUpdate != nil {
		position = &vehicle.Position{
			Point:     geo.Point{Latitude: *m.CurrentLatitude, Longitude: *m.CurrentLongitude},
			UpdatedAt: *m.LastLocationUpdate,
		}
	}

	return vehicle.ReconstructBus(
		m.ID,
		m.BusNumber,
		m.RouteID,
		m.DriverID,
		m.TotalSeats,
		m.AvailableSeats,
		status,
		position,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
