package dto

import (
	"time"

	"github.com/google/uuid"
)

// UserCreate carries the fields needed to persist a new user.
type UserCreate struct {
	ID       uuid.UUID
	Email    string
	Name     string
	Password string
}

// UserRead is the read model for a user record.
type UserRead struct {
	ID               uuid.UUID
	Email            string
	Name             string
	Password         string
	AvatarFileKey    string
	StripeAccountID  string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
	StripeCustomerID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Name             *string
	Password         *string
	AvatarFileKey    *string
	StripeAccountID  *string
	StripeCustomerID *string
}

// AccountStatusUpdate carries the payment capability flags persisted from
// the payment provider. Mutated only by the payment bridge.
type AccountStatusUpdate struct {
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}
