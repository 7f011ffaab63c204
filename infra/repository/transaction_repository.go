package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/dto"
	pkgrepo "github.com/amirasaad/marketplace/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository returns a GORM-backed TransactionRepository.
func NewTransactionRepository(db *gorm.DB) pkgrepo.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, create *dto.TransactionCreate) error {
	tx := &Transaction{
		ID:      create.ID,
		OfferID: create.OfferID,
		UserID:  create.UserID,
	}
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf(
				"%w: a transaction already exists for this offer and buyer",
				domain.ErrConflict,
			)
		}
		return err
	}
	return nil
}

func (r *transactionRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*dto.TransactionRead, error) {
	var tx Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return mapTransactionToDTO(&tx), nil
}

func (r *transactionRepository) GetByOfferAndBuyer(
	ctx context.Context,
	offerID, buyerID uuid.UUID,
) (*dto.TransactionRead, error) {
	var tx Transaction
	if err := r.db.WithContext(
		ctx,
	).Where("offer_id = ? AND user_id = ?", offerID, buyerID).First(&tx).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return mapTransactionToDTO(&tx), nil
}

func (r *transactionRepository) GetByCheckoutSessionID(
	ctx context.Context,
	sessionID string,
) (*dto.TransactionRead, error) {
	var tx Transaction
	if err := r.db.WithContext(
		ctx,
	).Where("stripe_checkout_session_id = ?", sessionID).First(&tx).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return mapTransactionToDTO(&tx), nil
}

// transactionListRow is the scan target for the listing join.
type transactionListRow struct {
	ID               uuid.UUID
	OfferID          uuid.UUID
	BuyerID          uuid.UUID
	BuyerName        string
	SellerID         uuid.UUID
	SellerName       string
	OfferTitle       string
	OfferPrice       float64
	OfferImageKey    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastMessageAt    *time.Time
	HasPendingOffers bool
}

func (r *transactionRepository) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]dto.TransactionListItem, error) {
	var rows []transactionListRow
	err := r.db.WithContext(ctx).
		Table("transactions").
		Select(`transactions.id AS id,
			transactions.offer_id AS offer_id,
			transactions.user_id AS buyer_id,
			buyers.name AS buyer_name,
			offers.user_id AS seller_id,
			sellers.name AS seller_name,
			offers.title AS offer_title,
			offers.price AS offer_price,
			offers.image_file_key AS offer_image_key,
			transactions.created_at AS created_at,
			transactions.updated_at AS updated_at,
			(SELECT MAX(m.created_at) FROM messages m
				WHERE m.transaction_id = transactions.id) AS last_message_at,
			EXISTS (SELECT 1 FROM messages m
				WHERE m.transaction_id = transactions.id
				AND m.status = ?) AS has_pending_offers`, int(domain.StatusPendingOffer)).
		Joins("JOIN offers ON offers.id = transactions.offer_id").
		Joins("JOIN users buyers ON buyers.id = transactions.user_id").
		Joins("JOIN users sellers ON sellers.id = offers.user_id").
		Where("transactions.user_id = ? OR offers.user_id = ?", userID, userID).
		Order("transactions.updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]dto.TransactionListItem, 0, len(rows))
	for _, row := range rows {
		item := dto.TransactionListItem{
			ID:               row.ID,
			OfferID:          row.OfferID,
			BuyerID:          row.BuyerID,
			BuyerName:        row.BuyerName,
			SellerID:         row.SellerID,
			SellerName:       row.SellerName,
			OfferTitle:       row.OfferTitle,
			OfferPrice:       row.OfferPrice,
			OfferImageURL:    row.OfferImageKey,
			CreatedAt:        row.CreatedAt,
			UpdatedAt:        row.UpdatedAt,
			HasPendingOffers: row.HasPendingOffers,
		}
		if row.LastMessageAt != nil {
			item.LastMessageAt = *row.LastMessageAt
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *transactionRepository) CountOpenForUser(
	ctx context.Context,
	userID uuid.UUID,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("transactions").
		Joins("JOIN offers ON offers.id = transactions.offer_id").
		Where("transactions.user_id = ? OR offers.user_id = ?", userID, userID).
		Count(&count).Error
	return count, err
}

func (r *transactionRepository) UpsertCheckoutSession(
	ctx context.Context,
	offerID, buyerID uuid.UUID,
	sessionID string,
) (*dto.TransactionRead, error) {
	tx := &Transaction{
		ID:                      uuid.New(),
		OfferID:                 offerID,
		UserID:                  buyerID,
		StripeCheckoutSessionID: sessionID,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "offer_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"stripe_checkout_session_id": sessionID,
			"updated_at":                 time.Now().UTC(),
		}),
	}).Create(tx).Error
	if err != nil {
		return nil, err
	}
	// Re-read: on conflict the generated id above was discarded.
	return r.GetByOfferAndBuyer(ctx, offerID, buyerID)
}

func (r *transactionRepository) SetPaymentIntentIfEmpty(
	ctx context.Context,
	id uuid.UUID,
	paymentIntentID string,
) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("id = ? AND (stripe_payment_intent_id IS NULL OR stripe_payment_intent_id = '')", id).
		Update("stripe_payment_intent_id", paymentIntentID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func mapTransactionToDTO(tx *Transaction) *dto.TransactionRead {
	return &dto.TransactionRead{
		ID:                      tx.ID,
		OfferID:                 tx.OfferID,
		UserID:                  tx.UserID,
		StripeCheckoutSessionID: tx.StripeCheckoutSessionID,
		StripePaymentIntentID:   tx.StripePaymentIntentID,
		CreatedAt:               tx.CreatedAt,
		UpdatedAt:               tx.UpdatedAt,
	}
}
