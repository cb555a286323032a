package application

import (
	"context"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	userDomain "github.com/gerakkita/service-transit/internal/domain/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UpdateProfileRequest holds the mutable profile fields.
type UpdateProfileRequest struct {
	FullName        string `json:"full_name"`
	PhoneNumber     string `json:"phone_number"`
	ProfileImageURL string `json:"profile_image_url"`
}

// SetPinRequest carries a new 6-digit security PIN.
type SetPinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// VerifyPinRequest carries a PIN to check.
type VerifyPinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// ProfileDTO is the response representation of a user profile.
type ProfileDTO struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	FullName        string    `json:"full_name"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	HasPin          bool      `json:"has_pin"`
	CreatedAt       time.Time `json:"created_at"`
}

// ProfileService orchestrates profile management and the security PIN.
type ProfileService struct {
	users  userDomain.UserRepository
	logger *zap.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(users userDomain.UserRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{users: users, logger: logger}
}

// GetProfile returns the user's profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := toProfileDTO(u)
	return &dto, nil
}

// UpdateProfile changes the user's display name, phone number or avatar.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := u.UpdateProfile(req.FullName, req.PhoneNumber, req.ProfileImageURL); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	dto := toProfileDTO(u)
	return &dto, nil
}

// SetPin stores a bcrypt hash of the user's security PIN.
func (s *ProfileService) SetPin(ctx context.Context, userID uuid.UUID, req SetPinRequest) error {
	if len(req.Pin) != 6 {
		return shared.NewValidationError("pin must be exactly 6 digits")
	}
	for _, c := range req.Pin {
		if c < '0' || c > '9' {
			return shared.NewValidationError("pin must contain only digits")
		}
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	u.SetPinHash(string(hash))
	return s.users.Update(ctx, u)
}

// VerifyPin checks a PIN against the stored hash.
func (s *ProfileService) VerifyPin(ctx context.Context, userID uuid.UUID, req VerifyPinRequest) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.HasPin() {
		return shared.NewInvalidStateError("no_pin", "verify")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PinHash()), []byte(req.Pin)); err != nil {
		return shared.NewForbiddenError("incorrect pin")
	}
	return nil
}

// GetDriver returns a driver record with their bus assignment.
func (s *ProfileService) GetDriver(ctx context.Context, driverID uuid.UUID) (*userDomain.Driver, error) {
	return s.users.FindDriver(ctx, driverID)
}

// --- Conversion Helpers ---

func toProfileDTO(u *userDomain.User) ProfileDTO {
	return ProfileDTO{
		ID:              u.ID(),
		Email:           u.Email(),
		PhoneNumber:     u.PhoneNumber(),
		FullName:        u.FullName(),
		ProfileImageURL: u.ProfileImageURL(),
		HasPin:          u.HasPin(),
		CreatedAt:       u.CreatedAt(),
	}
}
