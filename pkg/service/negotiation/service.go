// Package negotiation owns the transaction/message state machine: who may
// read or write a thread, message sequencing and the offer-message
// lifecycle.
package negotiation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/dto"
	"github.com/amirasaad/marketplace/pkg/repository"
	"github.com/google/uuid"
)

// Service enforces thread access and the offer lifecycle.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates a negotiation Service.
func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

// CreateTransaction opens the negotiation thread for (offer, buyer). At most
// one thread exists per pair; a second attempt yields domain.ErrConflict.
// The offer's owner cannot open a thread on their own offer.
func (s *Service) CreateTransaction(
	ctx context.Context,
	offerID, buyerID uuid.UUID,
) (tx *dto.TransactionRead, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		offerRepo, err := uow.OfferRepository()
		if err != nil {
			return err
		}
		offer, err := offerRepo.GetActive(ctx, offerID)
		if err != nil {
			return err
		}
		if offer.UserID == buyerID {
			return fmt.Errorf("%w: cannot open a transaction on your own offer", domain.ErrForbidden)
		}

		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		if _, err := txRepo.GetByOfferAndBuyer(ctx, offerID, buyerID); err == nil {
			return fmt.Errorf(
				"%w: a transaction already exists for this offer and buyer",
				domain.ErrConflict,
			)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		create := &dto.TransactionCreate{ID: uuid.New(), OfferID: offerID, UserID: buyerID}
		if err := txRepo.Create(ctx, create); err != nil {
			return err
		}
		tx, err = txRepo.Get(ctx, create.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("transaction created", "transaction_id", tx.ID, "offer_id", offerID)
	return tx, nil
}

// GetExistingTransaction returns the buyer's thread for an offer, or
// domain.ErrNotFound when none exists.
func (s *Service) GetExistingTransaction(
	ctx context.Context,
	offerID, buyerID uuid.UUID,
) (tx *dto.TransactionRead, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		tx, err = txRepo.GetByOfferAndBuyer(ctx, offerID, buyerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// GetTransaction returns the thread with its ordered message list. Only the
// buyer and the offer's owner may read it.
func (s *Service) GetTransaction(
	ctx context.Context,
	transactionID, requesterID uuid.UUID,
) (detail *dto.TransactionDetail, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		tx, offer, err := s.loadThreadForParty(ctx, uow, transactionID, requesterID)
		if err != nil {
			return err
		}

		userRepo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		buyer, err := userRepo.Get(ctx, tx.UserID)
		if err != nil {
			return err
		}
		seller, err := userRepo.Get(ctx, offer.UserID)
		if err != nil {
			return err
		}

		msgRepo, err := uow.MessageRepository()
		if err != nil {
			return err
		}
		messages, err := msgRepo.ListByTransaction(ctx, tx.ID)
		if err != nil {
			return err
		}

		detail = &dto.TransactionDetail{
			TransactionRead: *tx,
			BuyerName:       buyer.Name,
			SellerID:        seller.ID,
			SellerName:      seller.Name,
			OfferTitle:      offer.Title,
			OfferPrice:      offer.Price,
			OfferActive:     offer.Active,
			Messages:        messages,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// SendMessage appends a plain chat message. The author must be a party.
func (s *Service) SendMessage(
	ctx context.Context,
	transactionID, authorID uuid.UUID,
	content string,
) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		tx, _, err := s.loadThreadForParty(ctx, uow, transactionID, authorID)
		if err != nil {
			return err
		}
		msgRepo, err := uow.MessageRepository()
		if err != nil {
			return err
		}
		return msgRepo.Create(ctx, &dto.MessageCreate{
			ID:            uuid.New(),
			TransactionID: tx.ID,
			UserID:        authorID,
			Content:       content,
			Status:        domain.StatusMessage,
		})
	})
}

// SendOffer appends a pending price offer. Either party may propose a
// price; each offer message is an independent negotiation round.
func (s *Service) SendOffer(
	ctx context.Context,
	transactionID, authorID uuid.UUID,
	price float64,
) error {
	if price <= 0 {
		return fmt.Errorf("%w: offer price must be positive", domain.ErrValidation)
	}
	price = roundPrice(price)

	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		tx, _, err := s.loadThreadForParty(ctx, uow, transactionID, authorID)
		if err != nil {
			return err
		}
		userRepo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		author, err := userRepo.Get(ctx, authorID)
		if err != nil {
			return err
		}
		msgRepo, err := uow.MessageRepository()
		if err != nil {
			return err
		}
		return msgRepo.Create(ctx, &dto.MessageCreate{
			ID:            uuid.New(),
			TransactionID: tx.ID,
			UserID:        authorID,
			Content:       fmt.Sprintf("%s made an offer of %.2f€.", author.Name, price),
			Price:         &price,
			Status:        domain.StatusPendingOffer,
		})
	})
}

// ResolveOffer applies the one-way pending → accepted/rejected transition.
// Only the offer's owner (seller) may decide, and never on a message they
// authored themselves. Resolving a message that is not pending anymore
// yields domain.ErrConflict, which also covers concurrent double resolution
// since the transition is a single conditional update.
func (s *Service) ResolveOffer(
	ctx context.Context,
	transactionID, messageID, requesterID uuid.UUID,
	decision domain.OfferDecision,
) error {
	target, err := decision.Status()
	if err != nil {
		return err
	}

	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		tx, offer, err := s.loadThreadForParty(ctx, uow, transactionID, requesterID)
		if err != nil {
			return err
		}
		if requesterID != offer.UserID {
			return fmt.Errorf("%w: only the seller may resolve an offer", domain.ErrForbidden)
		}

		msgRepo, err := uow.MessageRepository()
		if err != nil {
			return err
		}
		msg, err := msgRepo.Get(ctx, messageID)
		if err != nil {
			return err
		}
		if msg.TransactionID != tx.ID {
			return fmt.Errorf("%w: message does not belong to this transaction", domain.ErrNotFound)
		}
		if msg.UserID == requesterID {
			return fmt.Errorf("%w: cannot resolve your own offer", domain.ErrForbidden)
		}
		if !msg.Status.IsOffer() {
			return fmt.Errorf("%w: message is not an offer", domain.ErrConflict)
		}

		updated, err := msgRepo.UpdateStatusIfPending(ctx, messageID, tx.ID, target)
		if err != nil {
			return err
		}
		if !updated {
			return fmt.Errorf("%w: offer already resolved", domain.ErrConflict)
		}
		s.logger.Info("offer resolved",
			"transaction_id", tx.ID,
			"message_id", messageID,
			"status", target.String(),
		)
		return nil
	})
}

// ListTransactionsForUser returns the user's threads partitioned into the
// ones they opened as a buyer and the ones opened against their offers,
// most recent first.
func (s *Service) ListTransactionsForUser(
	ctx context.Context,
	userID uuid.UUID,
) (list *dto.TransactionList, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		items, err := txRepo.ListForUser(ctx, userID)
		if err != nil {
			return err
		}
		list = &dto.TransactionList{
			Requested: make([]dto.TransactionListItem, 0, len(items)),
			Offered:   make([]dto.TransactionListItem, 0, len(items)),
		}
		for _, item := range items {
			if item.BuyerID == userID {
				list.Requested = append(list.Requested, item)
			} else {
				list.Offered = append(list.Offered, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// loadThreadForParty loads the transaction and its offer and verifies the
// requester is the buyer or the seller.
func (s *Service) loadThreadForParty(
	ctx context.Context,
	uow repository.UnitOfWork,
	transactionID, requesterID uuid.UUID,
) (*dto.TransactionRead, *dto.OfferRead, error) {
	txRepo, err := uow.TransactionRepository()
	if err != nil {
		return nil, nil, err
	}
	tx, err := txRepo.Get(ctx, transactionID)
	if err != nil {
		return nil, nil, err
	}
	offerRepo, err := uow.OfferRepository()
	if err != nil {
		return nil, nil, err
	}
	offer, err := offerRepo.Get(ctx, tx.OfferID)
	if err != nil {
		return nil, nil, err
	}
	if requesterID != tx.UserID && requesterID != offer.UserID {
		return nil, nil, fmt.Errorf(
			"%w: not a party to this transaction", domain.ErrForbidden)
	}
	return tx, offer, nil
}

func roundPrice(price float64) float64 {
	return math.Round(price*100) / 100
}
