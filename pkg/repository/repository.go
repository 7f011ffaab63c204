// Package repository defines the persistence contracts for the marketplace.
// Implementations live under infra/repository.
package repository

import (
	"context"

	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/dto"
	"github.com/google/uuid"
)

// UserRepository persists users and their payment-provider references.
type UserRepository interface {
	Create(ctx context.Context, create *dto.UserCreate) error
	Get(ctx context.Context, id uuid.UUID) (*dto.UserRead, error)
	GetByEmail(ctx context.Context, email string) (*dto.UserRead, error)
	GetByStripeAccountID(ctx context.Context, accountID string) (*dto.UserRead, error)
	Update(ctx context.Context, id uuid.UUID, update *dto.UserUpdate) error
	// UpdateAccountStatus persists the payment capability flags. Only the
	// payment bridge calls this.
	UpdateAccountStatus(ctx context.Context, id uuid.UUID, status dto.AccountStatusUpdate) error
}

// OfferRepository persists service listings.
type OfferRepository interface {
	Create(ctx context.Context, create *dto.OfferCreate) error
	Get(ctx context.Context, id uuid.UUID) (*dto.OfferRead, error)
	// GetActive returns the offer only if it is active; inactive offers are
	// not visible to buyers.
	GetActive(ctx context.Context, id uuid.UUID) (*dto.OfferRead, error)
	ListActive(ctx context.Context) ([]*dto.OfferRead, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]*dto.OfferRead, error)
	Update(ctx context.Context, id uuid.UUID, update *dto.OfferUpdate) error
	// SaveProductSync persists the synchronized Stripe product/price ids.
	SaveProductSync(ctx context.Context, id uuid.UUID, sync dto.OfferProductSync) error
}

// TransactionRepository persists negotiation threads. A thread is unique per
// (offer, buyer) pair.
type TransactionRepository interface {
	Create(ctx context.Context, create *dto.TransactionCreate) error
	Get(ctx context.Context, id uuid.UUID) (*dto.TransactionRead, error)
	GetByOfferAndBuyer(ctx context.Context, offerID, buyerID uuid.UUID) (*dto.TransactionRead, error)
	GetByCheckoutSessionID(ctx context.Context, sessionID string) (*dto.TransactionRead, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]dto.TransactionListItem, error)
	CountOpenForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	// UpsertCheckoutSession creates the (offer, buyer) thread if missing and
	// sets, or refreshes, its checkout session id in a single statement.
	UpsertCheckoutSession(
		ctx context.Context,
		offerID, buyerID uuid.UUID,
		sessionID string,
	) (*dto.TransactionRead, error)
	// SetPaymentIntentIfEmpty backfills the payment intent id only when none
	// is recorded yet. Returns false when the field was already populated,
	// guarding against out-of-order webhook delivery.
	SetPaymentIntentIfEmpty(ctx context.Context, id uuid.UUID, paymentIntentID string) (bool, error)
}

// MessageRepository persists thread messages. Messages are append-only
// except for the one-way status transition of offer messages.
type MessageRepository interface {
	Create(ctx context.Context, create *dto.MessageCreate) error
	Get(ctx context.Context, id uuid.UUID) (*dto.MessageRead, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]dto.MessageRead, error)
	// UpdateStatusIfPending applies the pending → accepted/rejected
	// transition as a single conditional update. Returns false when the
	// message was not pending anymore (lost race or double resolution).
	UpdateStatusIfPending(
		ctx context.Context,
		id, transactionID uuid.UUID,
		status domain.MessageStatus,
	) (bool, error)
	// CountPendingForSeller counts pending offers authored by buyers on
	// threads whose offers the given user owns.
	CountPendingForSeller(ctx context.Context, sellerID uuid.UUID) (int64, error)
	CountPendingByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error)
}

// UnitOfWork provides a transaction boundary and repository access bound to
// that transaction. All repositories obtained inside Do share one DB session
// so a read-modify-write sequence commits or rolls back as a whole.
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. If fn returns an error
	// the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	UserRepository() (UserRepository, error)
	OfferRepository() (OfferRepository, error)
	TransactionRepository() (TransactionRepository, error)
	MessageRepository() (MessageRepository, error)
}
