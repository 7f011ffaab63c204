// Package offer manages service listings: creation, owner-only edits and
// the buyer-facing catalog views.
package offer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/dto"
	"github.com/amirasaad/marketplace/pkg/repository"
	"github.com/amirasaad/marketplace/pkg/storage"
	"github.com/google/uuid"
)

// ProductSyncer pushes an offer's product and price to the payment
// processor. Implemented by the payment service.
type ProductSyncer interface {
	SyncOfferProduct(ctx context.Context, offerID uuid.UUID) (productID, priceID string, err error)
}

// CreateInput carries a new listing.
type CreateInput struct {
	Title       string
	Description string
	Price       float64
}

// Service implements listing management.
type Service struct {
	uow     repository.UnitOfWork
	syncer  ProductSyncer
	storage storage.ObjectStorage
	logger  *slog.Logger
}

// New creates an offer Service.
func New(
	uow repository.UnitOfWork,
	syncer ProductSyncer,
	store storage.ObjectStorage,
	logger *slog.Logger,
) *Service {
	return &Service{uow: uow, syncer: syncer, storage: store, logger: logger}
}

// CreateOffer persists a new active listing for the owner and pushes it to
// the payment processor. A failed sync does not fail the creation; checkout
// re-syncs lazily.
func (s *Service) CreateOffer(
	ctx context.Context,
	ownerID uuid.UUID,
	input CreateInput,
) (*dto.OfferRead, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if input.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrValidation)
	}

	var offer *dto.OfferRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		offerRepo, err := uow.OfferRepository()
		if err != nil {
			return err
		}
		create := &dto.OfferCreate{
			ID:          uuid.New(),
			UserID:      ownerID,
			Title:       input.Title,
			Description: input.Description,
			Price:       input.Price,
		}
		if err := offerRepo.Create(ctx, create); err != nil {
			return err
		}
		offer, err = offerRepo.Get(ctx, create.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.syncProduct(ctx, offer.ID)
	return offer, nil
}

// UpdateOffer applies a partial edit. Only the owner may edit; a price edit
// invalidates the synchronized remote price, which the follow-up sync
// replaces.
func (s *Service) UpdateOffer(
	ctx context.Context,
	offerID, requesterID uuid.UUID,
	update *dto.OfferUpdate,
) (*dto.OfferRead, error) {
	if update.Price != nil && *update.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrValidation)
	}

	var offer *dto.OfferRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		offerRepo, err := uow.OfferRepository()
		if err != nil {
			return err
		}
		existing, err := offerRepo.Get(ctx, offerID)
		if err != nil {
			return err
		}
		if existing.UserID != requesterID {
			return fmt.Errorf("%w: only the owner may edit an offer", domain.ErrForbidden)
		}
		if err := offerRepo.Update(ctx, offerID, update); err != nil {
			return err
		}
		offer, err = offerRepo.Get(ctx, offerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.syncProduct(ctx, offerID)
	return offer, nil
}

// UploadImage stores the listing image and records its key on the offer.
func (s *Service) UploadImage(
	ctx context.Context,
	offerID, requesterID uuid.UUID,
	body io.Reader,
	contentType string,
) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		offerRepo, err := uow.OfferRepository()
		if err != nil {
			return err
		}
		existing, err := offerRepo.Get(ctx, offerID)
		if err != nil {
			return err
		}
		if existing.UserID != requesterID {
			return fmt.Errorf("%w: only the owner may edit an offer", domain.ErrForbidden)
		}

		key := fmt.Sprintf("offers/%s/%s", offerID, uuid.New())
		if err := s.storage.Upload(ctx, key, body, contentType); err != nil {
			return fmt.Errorf("%w: storing offer image: %v", domain.ErrUpstream, err)
		}
		return offerRepo.Update(ctx, offerID, &dto.OfferUpdate{ImageFileKey: &key})
	})
}

// GetOffer returns the buyer-facing detail view with the owner snapshot.
// Inactive offers are visible to their owner only.
func (s *Service) GetOffer(
	ctx context.Context,
	offerID, viewerID uuid.UUID,
) (*dto.OfferDetail, error) {
	var detail *dto.OfferDetail
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		offerRepo, err := uow.OfferRepository()
		if err != nil {
			return err
		}
		offer, err := offerRepo.Get(ctx, offerID)
		if err != nil {
			return err
		}
		if !offer.Active && offer.UserID != viewerID {
			return fmt.Errorf("%w: offer", domain.ErrNotFound)
		}

		userRepo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		owner, err := userRepo.Get(ctx, offer.UserID)
		if err != nil {
			return err
		}

		detail = &dto.OfferDetail{
			OfferRead:       *offer,
			ImageURL:        s.resolveURL(ctx, offer.ImageFileKey),
			OwnerID:         owner.ID,
			OwnerName:       owner.Name,
			OwnerAvatarURL:  s.resolveURL(ctx, owner.AvatarFileKey),
			OwnerChargeable: owner.ChargesEnabled,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// ListActiveOffers returns the catalog, flagging offers the viewer already
// has an open thread on.
func (s *Service) ListActiveOffers(
	ctx context.Context,
	viewerID uuid.UUID,
) ([]dto.OfferListItem, error) {
	var items []dto.OfferListItem
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		offerRepo, err := uow.OfferRepository()
		if err != nil {
			return err
		}
		offers, err := offerRepo.ListActive(ctx)
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}

		items = make([]dto.OfferListItem, 0, len(offers))
		for _, offer := range offers {
			item := dto.OfferListItem{
				OfferRead: *offer,
				ImageURL:  s.resolveURL(ctx, offer.ImageFileKey),
			}
			if viewerID != uuid.Nil && viewerID != offer.UserID {
				_, err := txRepo.GetByOfferAndBuyer(ctx, offer.ID, viewerID)
				if err == nil {
					item.HasActiveTransaction = true
				} else if !errors.Is(err, domain.ErrNotFound) {
					return err
				}
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListMyOffers returns all of the owner's listings, inactive ones included.
func (s *Service) ListMyOffers(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]dto.OfferListItem, error) {
	var items []dto.OfferListItem
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		offerRepo, err := uow.OfferRepository()
		if err != nil {
			return err
		}
		offers, err := offerRepo.ListByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		items = make([]dto.OfferListItem, 0, len(offers))
		for _, offer := range offers {
			items = append(items, dto.OfferListItem{
				OfferRead: *offer,
				ImageURL:  s.resolveURL(ctx, offer.ImageFileKey),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// syncProduct pushes the offer to the processor without failing the caller.
func (s *Service) syncProduct(ctx context.Context, offerID uuid.UUID) {
	if s.syncer == nil {
		return
	}
	if _, _, err := s.syncer.SyncOfferProduct(ctx, offerID); err != nil {
		s.logger.Warn("product sync failed, will retry at checkout",
			"offer_id", offerID,
			"error", err,
		)
	}
}

func (s *Service) resolveURL(ctx context.Context, key string) string {
	if key == "" || s.storage == nil {
		return ""
	}
	url, err := s.storage.ResolveURL(ctx, key)
	if err != nil {
		s.logger.Warn("failed to resolve media url", "key", key, "error", err)
		return ""
	}
	return url
}
