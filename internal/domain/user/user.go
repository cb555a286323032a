package user

import (
	"context"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/google/uuid"
)

// User is a customer or driver profile. Authentication itself is handled by
// the external identity provider; this profile mirrors its user record.
type User struct {
	id              uuid.UUID
	email           string
	phoneNumber     string
	fullName        string
	profileImageURL string
	pinHash         string
	createdAt       time.Time
	updatedAt       time.Time
}

// NewUser creates a profile for a freshly registered user.
func NewUser(id uuid.UUID, email, fullName, phoneNumber string) (*User, error) {
	if id == uuid.Nil {
		return nil, shared.NewValidationError("user ID is required")
	}
	if len(fullName) < 3 {
		return nil, shared.NewValidationError("full name must be at least 3 characters")
	}

	now := time.Now().UTC()
	return &User{
		id:          id,
		email:       email,
		fullName:    fullName,
		phoneNumber: phoneNumber,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructUser rebuilds a User from persistence data.
func ReconstructUser(
	id uuid.UUID,
	email, phoneNumber, fullName, profileImageURL, pinHash string,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:              id,
		email:           email,
		phoneNumber:     phoneNumber,
		fullName:        fullName,
		profileImageURL: profileImageURL,
		pinHash:         pinHash,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// ID returns the user's unique identifier.
func (u *User) ID() uuid.UUID { return u.id }

// Email returns the user's email address.
func (u *User) Email() string { return u.email }

// PhoneNumber returns the user's phone number.
func (u *User) PhoneNumber() string { return u.phoneNumber }

// FullName returns the user's display name.
func (u *User) FullName() string { return u.fullName }

// ProfileImageURL returns the avatar URL.
func (u *User) ProfileImageURL() string { return u.profileImageURL }

// PinHash returns the bcrypt hash of the security PIN, or "" if unset.
func (u *User) PinHash() string { return u.pinHash }

// CreatedAt returns the creation timestamp.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// HasPin returns true if a security PIN has been set.
func (u *User) HasPin() bool { return u.pinHash != "" }

// UpdateProfile changes the mutable profile fields.
func (u *User) UpdateProfile(fullName, phoneNumber, profileImageURL string) error {
	if fullName != "" {
		if len(fullName) < 3 {
			return shared.NewValidationError("full name must be at least 3 characters")
		}
		u.fullName = fullName
	}
	if phoneNumber != "" {
		u.phoneNumber = phoneNumber
	}
	if profileImageURL != "" {
		u.profileImageURL = profileImageURL
	}
	u.updatedAt = time.Now().UTC()
	return nil
}

// SetPinHash stores a new bcrypt PIN hash.
func (u *User) SetPinHash(hash string) {
	u.pinHash = hash
	u.updatedAt = time.Now().UTC()
}

// Driver links an identity-provider user to the bus they operate.
type Driver struct {
	ID        uuid.UUID  `json:"id"`
	FullName  string     `json:"full_name"`
	BusID     *uuid.UUID `json:"bus_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// UserRepository defines the persistence contract for profiles and drivers.
type UserRepository interface {
	// FindByID retrieves a user profile.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Save persists a new profile.
	Save(ctx context.Context, u *User) error

	// Update persists profile changes.
	Update(ctx context.Context, u *User) error

	// FindDriver retrieves a driver record.
	FindDriver(ctx context.Context, driverID uuid.UUID) (*Driver, error)

	// AssignBusToDriver records the driver's bus assignment.
	AssignBusToDriver(ctx context.Context, driverID, busID uuid.UUID) error
}
