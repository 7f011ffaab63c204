package dto

import (
	"time"

	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/google/uuid"
)

// TransactionCreate carries the fields needed to open a negotiation thread.
type TransactionCreate struct {
	ID      uuid.UUID
	OfferID uuid.UUID
	UserID  uuid.UUID // buyer
}

// TransactionRead is the read model for a transaction record.
type TransactionRead struct {
	ID                      uuid.UUID
	OfferID                 uuid.UUID
	UserID                  uuid.UUID // buyer
	StripeCheckoutSessionID string
	StripePaymentIntentID   string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// TransactionDetail is a transaction with its ordered message thread and the
// denormalized snapshots list rendering needs.
type TransactionDetail struct {
	TransactionRead
	BuyerName   string
	SellerID    uuid.UUID
	SellerName  string
	OfferTitle  string
	OfferPrice  float64
	OfferActive bool
	Messages    []MessageRead
}

// TransactionListItem is one row of a user's transaction listing, carrying
// the counterpart and offer snapshots.
type TransactionListItem struct {
	ID               uuid.UUID
	OfferID          uuid.UUID
	BuyerID          uuid.UUID
	BuyerName        string
	SellerID         uuid.UUID
	SellerName       string
	OfferTitle       string
	OfferPrice       float64
	OfferImageURL    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastMessageAt    time.Time
	HasPendingOffers bool
}

// TransactionList partitions a user's threads into the ones they opened as a
// buyer and the ones opened against their offers.
type TransactionList struct {
	Requested []TransactionListItem
	Offered   []TransactionListItem
}

// MessageCreate carries the fields needed to append a message to a thread.
type MessageCreate struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	UserID        uuid.UUID // author
	Content       string
	Price         *float64
	Status        domain.MessageStatus
}

// MessageRead is the read model for a message record.
type MessageRead struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	UserID        uuid.UUID
	AuthorName    string
	Content       string
	Price         *float64
	Status        domain.MessageStatus
	CreatedAt     time.Time
}
