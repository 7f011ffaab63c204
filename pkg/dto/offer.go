package dto

import (
	"time"

	"github.com/google/uuid"
)

// OfferCreate carries the fields needed to persist a new offer.
type OfferCreate struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Title        string
	Description  string
	Price        float64
	ImageFileKey string
}

// OfferRead is the read model for an offer record.
type OfferRead struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Title           string
	Description     string
	Price           float64
	Active          bool
	ImageFileKey    string
	StripeProductID string
	StripePriceID   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OfferUpdate is a partial update; nil fields are left untouched.
type OfferUpdate struct {
	Title        *string
	Description  *string
	Price        *float64
	Active       *bool
	ImageFileKey *string
}

// OfferProductSync persists the synchronized Stripe product/price pair.
type OfferProductSync struct {
	StripeProductID string
	StripePriceID   string
}

// OfferListItem is an offer row decorated for listing: the image key is
// resolved to a URL lazily and the viewer's open negotiation is flagged.
type OfferListItem struct {
	OfferRead
	ImageURL             string
	HasActiveTransaction bool
}

// OfferDetail is an offer with a denormalized owner snapshot.
type OfferDetail struct {
	OfferRead
	ImageURL        string
	OwnerName       string
	OwnerAvatarURL  string
	OwnerID         uuid.UUID
	OwnerChargeable bool
}
