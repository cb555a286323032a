package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	userDomain "github.com/gerakkita/service-transit/internal/domain/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email           string    `gorm:"uniqueIndex;not null;size:255"`
	PhoneNumber     string    `gorm:"size:20"`
	FullName        string    `gorm:"not null;size:100"`
	ProfileImageURL string    `gorm:"size:500"`
	PinHash         string    `gorm:"size:100"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (UserModel) TableName() string {
	return "users"
}

// DriverModel is the GORM model for the drivers table.
type DriverModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	FullName  string     `gorm:"not null;size:100"`
	BusID     *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (DriverModel) TableName() string {
	return "drivers"
}

// GormUserRepository is the GORM-based implementation of UserRepository.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID retrieves a user profile.
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("User", id.String())
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return toDomainUser(&model), nil
}

// Save persists a new profile.
func (r *GormUserRepository) Save(ctx context.Context, u *userDomain.User) error {
	model := toUserModel(u)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Update persists profile changes.
func (r *GormUserRepository) Update(ctx context.Context, u *userDomain.User) error {
	model := toUserModel(u)
	result := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"phone_number":      model.PhoneNumber,
			"full_name":         model.FullName,
			"profile_image_url": model.ProfileImageURL,
			"pin_hash":          model.PinHash,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("User", u.ID().String())
	}
	return nil
}

// FindDriver retrieves a driver record.
func (r *GormUserRepository) FindDriver(ctx context.Context, driverID uuid.UUID) (*userDomain.Driver, error) {
	var model DriverModel
	if err := r.db.WithContext(ctx).Where("id = ?", driverID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Driver", driverID.String())
		}
		return nil, fmt.Errorf("failed to find driver: %w", err)
	}
	return &userDomain.Driver{
		ID:        model.ID,
		FullName:  model.FullName,
		BusID:     model.BusID,
		CreatedAt: model.CreatedAt,
	}, nil
}

// AssignBusToDriver records the driver's bus assignment.
func (r *GormUserRepository) AssignBusToDriver(ctx context.Context, driverID, busID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&DriverModel{}).
		Where("id = ?", driverID).
		Update("bus_id", busID)
	if result.Error != nil {
		return fmt.Errorf("failed to assign bus to driver: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Driver", driverID.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toUserModel(u *userDomain.User) *UserModel {
	return &UserModel{
		ID:              u.ID(),
		Email:           u.Email(),
		PhoneNumber:     u.PhoneNumber(),
		FullName:        u.FullName(),
		ProfileImageURL: u.ProfileImageURL(),
		PinHash:         u.PinHash(),
		CreatedAt:       u.CreatedAt(),
		UpdatedAt:       u.UpdatedAt(),
	}
}

func toDomainUser(m *UserModel) *userDomain.User {
	return userDomain.ReconstructUser(
		m.ID,
		m.Email,
		m.PhoneNumber,
		m.FullName,
		m.ProfileImageURL,
		m.PinHash,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
