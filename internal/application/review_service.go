package application

import (
	"context"
	"time"

	reviewDomain "github.com/gerakkita/service-transit/internal/domain/review"
	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateReviewRequest holds the data needed to submit a review.
type CreateReviewRequest struct {
	BusID   *uuid.UUID `json:"bus_id"`
	RouteID *uuid.UUID `json:"route_id"`
	Rating  int        `json:"rating" binding:"required"`
	Comment string     `json:"comment"`
}

// ReviewDTO is the response representation of a review.
type ReviewDTO struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	BusID     *uuid.UUID `json:"bus_id,omitempty"`
	RouteID   *uuid.UUID `json:"route_id,omitempty"`
	Rating    int        `json:"rating"`
	Comment   string     `json:"comment,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ReviewService orchestrates customer reviews of buses and routes.
type ReviewService struct {
	reviews reviewDomain.ReviewRepository
	logger  *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(reviews reviewDomain.ReviewRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, logger: logger}
}

// CreateReview submits a new review.
func (s *ReviewService) CreateReview(ctx context.Context, userID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	rv, err := reviewDomain.NewReview(userID, req.Rating, req.Comment, req.BusID, req.RouteID)
	if err != nil {
		return nil, err
	}

	if err := s.reviews.Save(ctx, rv); err != nil {
		return nil, err
	}

	dto := toReviewDTO(rv)
	return &dto, nil
}

// ListBusReviews returns reviews for a bus, newest first.
func (s *ReviewService) ListBusReviews(ctx context.Context, busID uuid.UUID) ([]ReviewDTO, error) {
	reviews, err := s.reviews.FindByBusID(ctx, busID)
	if err != nil {
		return nil, err
	}
	return toReviewDTOs(reviews), nil
}

// ListMyReviews returns the user's own reviews, newest first.
func (s *ReviewService) ListMyReviews(ctx context.Context, userID uuid.UUID) ([]ReviewDTO, error) {
	reviews, err := s.reviews.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toReviewDTOs(reviews), nil
}

// DeleteReview removes a review the user authored.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID uuid.UUID) error {
	rv, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if !rv.IsAuthoredBy(userID) {
		return shared.NewForbiddenError("review belongs to another user")
	}
	return s.reviews.Delete(ctx, reviewID)
}

// --- Conversion Helpers ---

func toReviewDTO(rv *reviewDomain.Review) ReviewDTO {
	return ReviewDTO{
		ID:        rv.ID(),
		UserID:    rv.UserID(),
		BusID:     rv.BusID(),
		RouteID:   rv.RouteID(),
		Rating:    rv.Rating(),
		Comment:   rv.Comment(),
		CreatedAt: rv.CreatedAt(),
	}
}

func toReviewDTOs(reviews []*reviewDomain.Review) []ReviewDTO {
	dtos := make([]ReviewDTO, len(reviews))
	for i, rv := range reviews {
		dtos[i] = toReviewDTO(rv)
	}
	return dtos
}
