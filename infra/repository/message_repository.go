package repository

import (
	"context"
	"time"

	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/dto"
	pkgrepo "github.com/amirasaad/marketplace/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a GORM-backed MessageRepository.
func NewMessageRepository(db *gorm.DB) pkgrepo.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, create *dto.MessageCreate) error {
	msg := &Message{
		ID:            create.ID,
		TransactionID: create.TransactionID,
		UserID:        create.UserID,
		Content:       create.Content,
		Price:         create.Price,
		Status:        int(create.Status),
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) Get(ctx context.Context, id uuid.UUID) (*dto.MessageRead, error) {
	var row messageRow
	err := r.db.WithContext(ctx).
		Table("messages").
		Select(messageSelect).
		Joins("JOIN users ON users.id = messages.user_id").
		Where("messages.id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return mapMessageRowToDTO(&row), nil
}

func (r *messageRepository) ListByTransaction(
	ctx context.Context,
	transactionID uuid.UUID,
) ([]dto.MessageRead, error) {
	var rows []messageRow
	err := r.db.WithContext(ctx).
		Table("messages").
		Select(messageSelect).
		Joins("JOIN users ON users.id = messages.user_id").
		Where("messages.transaction_id = ?", transactionID).
		Order("messages.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]dto.MessageRead, 0, len(rows))
	for i := range rows {
		result = append(result, *mapMessageRowToDTO(&rows[i]))
	}
	return result, nil
}

func (r *messageRepository) UpdateStatusIfPending(
	ctx context.Context,
	id, transactionID uuid.UUID,
	status domain.MessageStatus,
) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Message{}).
		Where(
			"id = ? AND transaction_id = ? AND status = ?",
			id, transactionID, int(domain.StatusPendingOffer),
		).
		Update("status", int(status))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *messageRepository) CountPendingForSeller(
	ctx context.Context,
	sellerID uuid.UUID,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("messages").
		Joins("JOIN transactions ON transactions.id = messages.transaction_id").
		Joins("JOIN offers ON offers.id = transactions.offer_id").
		Where("offers.user_id = ? AND messages.user_id <> ? AND messages.status = ?",
			sellerID, sellerID, int(domain.StatusPendingOffer)).
		Count(&count).Error
	return count, err
}

func (r *messageRepository) CountPendingByAuthor(
	ctx context.Context,
	authorID uuid.UUID,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where("user_id = ? AND status = ?", authorID, int(domain.StatusPendingOffer)).
		Count(&count).Error
	return count, err
}

const messageSelect = `messages.id AS id,
	messages.transaction_id AS transaction_id,
	messages.user_id AS user_id,
	users.name AS author_name,
	messages.content AS content,
	messages.price AS price,
	messages.status AS status,
	messages.created_at AS created_at`

type messageRow struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	UserID        uuid.UUID
	AuthorName    string
	Content       string
	Price         *float64
	Status        int
	CreatedAt     time.Time
}

func mapMessageRowToDTO(row *messageRow) *dto.MessageRead {
	return &dto.MessageRead{
		ID:            row.ID,
		TransactionID: row.TransactionID,
		UserID:        row.UserID,
		AuthorName:    row.AuthorName,
		Content:       row.Content,
		Price:         row.Price,
		Status:        domain.MessageStatus(row.Status),
		CreatedAt:     row.CreatedAt,
	}
}
