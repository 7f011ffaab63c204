package repository

import (
	"context"

	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/dto"
	pkgrepo "github.com/amirasaad/marketplace/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type offerRepository struct {
	db *gorm.DB
}

// NewOfferRepository returns a GORM-backed OfferRepository.
func NewOfferRepository(db *gorm.DB) pkgrepo.OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) Create(ctx context.Context, create *dto.OfferCreate) error {
	offer := &Offer{
		ID:           create.ID,
		UserID:       create.UserID,
		Title:        create.Title,
		Description:  create.Description,
		Price:        create.Price,
		Active:       true,
		ImageFileKey: create.ImageFileKey,
	}
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *offerRepository) Get(ctx context.Context, id uuid.UUID) (*dto.OfferRead, error) {
	var offer Offer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&offer).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return mapOfferToDTO(&offer), nil
}

func (r *offerRepository) GetActive(ctx context.Context, id uuid.UUID) (*dto.OfferRead, error) {
	var offer Offer
	if err := r.db.WithContext(
		ctx,
	).Where("id = ? AND active = ?", id, true).First(&offer).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return mapOfferToDTO(&offer), nil
}

func (r *offerRepository) ListActive(ctx context.Context) ([]*dto.OfferRead, error) {
	var offers []Offer
	if err := r.db.WithContext(
		ctx,
	).Where("active = ?", true).Order("updated_at DESC").Find(&offers).Error; err != nil {
		return nil, err
	}
	result := make([]*dto.OfferRead, 0, len(offers))
	for i := range offers {
		result = append(result, mapOfferToDTO(&offers[i]))
	}
	return result, nil
}

func (r *offerRepository) ListByOwner(
	ctx context.Context,
	userID uuid.UUID,
) ([]*dto.OfferRead, error) {
	var offers []Offer
	if err := r.db.WithContext(
		ctx,
	).Where("user_id = ?", userID).Order("updated_at DESC").Find(&offers).Error; err != nil {
		return nil, err
	}
	result := make([]*dto.OfferRead, 0, len(offers))
	for i := range offers {
		result = append(result, mapOfferToDTO(&offers[i]))
	}
	return result, nil
}

func (r *offerRepository) Update(
	ctx context.Context,
	id uuid.UUID,
	update *dto.OfferUpdate,
) error {
	updates := make(map[string]interface{})
	if update.Title != nil {
		updates["title"] = *update.Title
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.Price != nil {
		updates["price"] = *update.Price
		// A local price edit invalidates the synchronized remote price; the
		// next product sync creates a fresh one.
		updates["stripe_price_id"] = ""
	}
	if update.Active != nil {
		updates["active"] = *update.Active
	}
	if update.ImageFileKey != nil {
		updates["image_file_key"] = *update.ImageFileKey
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&Offer{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *offerRepository) SaveProductSync(
	ctx context.Context,
	id uuid.UUID,
	sync dto.OfferProductSync,
) error {
	res := r.db.WithContext(ctx).Model(&Offer{}).Where("id = ?", id).Updates(map[string]interface{}{
		"stripe_product_id": sync.StripeProductID,
		"stripe_price_id":   sync.StripePriceID,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapOfferToDTO(offer *Offer) *dto.OfferRead {
	return &dto.OfferRead{
		ID:              offer.ID,
		UserID:          offer.UserID,
		Title:           offer.Title,
		Description:     offer.Description,
		Price:           offer.Price,
		Active:          offer.Active,
		ImageFileKey:    offer.ImageFileKey,
		StripeProductID: offer.StripeProductID,
		StripePriceID:   offer.StripePriceID,
		CreatedAt:       offer.CreatedAt,
		UpdatedAt:       offer.UpdatedAt,
	}
}
