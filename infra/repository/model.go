package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a user record in the database. Payment fields are written
// only by the payment bridge.
type User struct {
	gorm.Model
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	Email            string    `gorm:"uniqueIndex;not null;size:255"`
	Name             string    `gorm:"not null;size:100"`
	Password         string    `gorm:"not null"`
	AvatarFileKey    string
	StripeAccountID  string `gorm:"index"`
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
	StripeCustomerID string
}

// Offer represents a published service listing.
type Offer struct {
	gorm.Model
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID          uuid.UUID `gorm:"type:uuid;index;not null"`
	Title           string    `gorm:"not null;size:255"`
	Description     string    `gorm:"type:text"`
	Price           float64   `gorm:"not null"`
	Active          bool      `gorm:"not null;default:true"`
	ImageFileKey    string
	StripeProductID string
	StripePriceID   string
}

// Transaction represents the single negotiation thread between one buyer and
// one offer. The (offer, buyer) pair is unique; rows are never deleted.
type Transaction struct {
	gorm.Model
	ID                      uuid.UUID `gorm:"type:uuid;primary_key"`
	OfferID                 uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_transactions_offer_buyer"`
	UserID                  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_transactions_offer_buyer"`
	StripeCheckoutSessionID string    `gorm:"index"`
	StripePaymentIntentID   string
	Messages                []Message
}

// Message represents one entry in a transaction thread. Price is set iff the
// message is an offer.
type Message struct {
	gorm.Model
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_transaction_created,priority:1"`
	UserID        uuid.UUID `gorm:"type:uuid;not null"`
	Content       string    `gorm:"type:text;not null"`
	Price         *float64
	Status        int       `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"index:idx_messages_transaction_created,priority:2"`
}
