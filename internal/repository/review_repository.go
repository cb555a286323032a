package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reviewDomain "github.com/gerakkita/service-transit/internal/domain/review"
	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewModel is the GORM model for the reviews table.
type ReviewModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	BusID     *uuid.UUID `gorm:"type:uuid;index"`
	RouteID   *uuid.UUID `gorm:"type:uuid;index"`
	Rating    int        `gorm:"not null"`
	Comment   string     `gorm:"size:1000"`
	CreatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReviewModel) TableName() string {
	return "reviews"
}

// GormReviewRepository is the GORM-based implementation of ReviewRepository.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository.
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// FindByID retrieves a review by its unique identifier.
func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Review", id.String())
		}
		return nil, fmt.Errorf("failed to find review by ID: %w", err)
	}
	return toDomainReview(&model), nil
}

// FindByUserID retrieves a user's reviews, newest first.
func (r *GormReviewRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*reviewDomain.Review, error) {
	var models []ReviewModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find reviews by user: %w", err)
	}
	return toDomainReviews(models), nil
}

// FindByBusID retrieves reviews for a bus, newest first.
func (r *GormReviewRepository) FindByBusID(ctx context.Context, busID uuid.UUID) ([]*reviewDomain.Review, error) {
	var models []ReviewModel
	if err := r.db.WithContext(ctx).
		Where("bus_id = ?", busID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find reviews by bus: %w", err)
	}
	return toDomainReviews(models), nil
}

// Save persists a new review.
func (r *GormReviewRepository) Save(ctx context.Context, rv *reviewDomain.Review) error {
	model := &ReviewModel{
		ID:        rv.ID(),
		UserID:    rv.UserID(),
		BusID:     rv.BusID(),
		RouteID:   rv.RouteID(),
		Rating:    rv.Rating(),
		Comment:   rv.Comment(),
		CreatedAt: rv.CreatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

// Delete removes a review.
func (r *GormReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ReviewModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Review", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toDomainReview(m *ReviewModel) *reviewDomain.Review {
	return reviewDomain.ReconstructReview(
		m.ID,
		m.UserID,
		m.BusID,
		m.RouteID,
		m.Rating,
		m.Comment,
		m.CreatedAt,
	)
}

func toDomainReviews(models []ReviewModel) []*reviewDomain.Review {
	reviews := make([]*reviewDomain.Review, len(models))
	for i, m := range models {
		reviews[i] = toDomainReview(&m)
	}
	return reviews
}
