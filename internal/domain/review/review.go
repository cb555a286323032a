package review

import (
	"context"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/google/uuid"
)

// Review is a rating left by a customer for a bus or a route.
type Review struct {
	id        uuid.UUID
	userID    uuid.UUID
	busID     *uuid.UUID
	routeID   *uuid.UUID
	rating    int
	comment   string
	createdAt time.Time
}

// NewReview creates a review targeting a bus, a route, or both.
func NewReview(userID uuid.UUID, rating int, comment string, busID, routeID *uuid.UUID) (*Review, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("user ID is required")
	}
	if busID == nil && routeID == nil {
		return nil, shared.NewValidationError("review must target a bus or a route")
	}
	if rating < 1 || rating > 5 {
		return nil, shared.NewValidationError("rating must be between 1 and 5")
	}

	return &Review{
		id:        uuid.New(),
		userID:    userID,
		busID:     busID,
		routeID:   routeID,
		rating:    rating,
		comment:   comment,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructReview rebuilds a Review from persistence data.
func ReconstructReview(id, userID uuid.UUID, busID, routeID *uuid.UUID, rating int, comment string, createdAt time.Time) *Review {
	return &Review{
		id:        id,
		userID:    userID,
		busID:     busID,
		routeID:   routeID,
		rating:    rating,
		comment:   comment,
		createdAt: createdAt,
	}
}

// ID returns the review's unique identifier.
func (r *Review) ID() uuid.UUID { return r.id }

// UserID returns the author's user ID.
func (r *Review) UserID() uuid.UUID { return r.userID }

// BusID returns the reviewed bus, or nil.
func (r *Review) BusID() *uuid.UUID { return r.busID }

// RouteID returns the reviewed route, or nil.
func (r *Review) RouteID() *uuid.UUID { return r.routeID }

// Rating returns the 1..5 star rating.
func (r *Review) Rating() int { return r.rating }

// Comment returns the optional free-text comment.
func (r *Review) Comment() string { return r.comment }

// CreatedAt returns the submission timestamp.
func (r *Review) CreatedAt() time.Time { return r.createdAt }

// IsAuthoredBy returns true if the review belongs to the given user.
func (r *Review) IsAuthoredBy(userID uuid.UUID) bool { return r.userID == userID }

// ReviewRepository defines the persistence contract for reviews.
type ReviewRepository interface {
	// FindByID retrieves a review by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// FindByUserID retrieves a user's reviews, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Review, error)

	// FindByBusID retrieves reviews for a bus, newest first.
	FindByBusID(ctx context.Context, busID uuid.UUID) ([]*Review, error)

	// Save persists a new review.
	Save(ctx context.Context, r *Review) error

	// Delete removes a review.
	Delete(ctx context.Context, id uuid.UUID) error
}
