// Package notification computes the badge counters shown in the navigation
// bar. Counts are cheap aggregates served through a short-lived cache.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/marketplace/pkg/cache"
	"github.com/amirasaad/marketplace/pkg/repository"
	"github.com/google/uuid"
)

// Badge TTL is short on purpose: counters tolerate a few seconds of
// staleness and resolution invalidates eagerly anyway.
const badgeTTL = 30 * time.Second

// BadgeCounts are the per-user counters for the UI.
type BadgeCounts struct {
	PendingOffersToDecide int64 `json:"pendingOffersToDecide"`
	PendingOffersSent     int64 `json:"pendingOffersSent"`
	OpenTransactions      int64 `json:"openTransactions"`
}

// Service computes and caches badge counters.
type Service struct {
	uow    repository.UnitOfWork
	cache  cache.Cache
	logger *slog.Logger
}

// New creates a notification Service.
func New(uow repository.UnitOfWork, c cache.Cache, logger *slog.Logger) *Service {
	return &Service{uow: uow, cache: c, logger: logger}
}

// GetBadgeCounts returns the user's counters, from cache when fresh. Cache
// failures degrade to a direct read.
func (s *Service) GetBadgeCounts(ctx context.Context, userID uuid.UUID) (*BadgeCounts, error) {
	key := badgeKey(userID)
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("badge cache read failed", "user_id", userID, "error", err)
		} else if ok {
			var counts BadgeCounts
			if err := json.Unmarshal(raw, &counts); err == nil {
				return &counts, nil
			}
		}
	}

	var counts BadgeCounts
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		msgRepo, err := uow.MessageRepository()
		if err != nil {
			return err
		}
		if counts.PendingOffersToDecide, err = msgRepo.CountPendingForSeller(ctx, userID); err != nil {
			return err
		}
		if counts.PendingOffersSent, err = msgRepo.CountPendingByAuthor(ctx, userID); err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		counts.OpenTransactions, err = txRepo.CountOpenForUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(counts); err == nil {
			if err := s.cache.Set(ctx, key, raw, badgeTTL); err != nil {
				s.logger.Warn("badge cache write failed", "user_id", userID, "error", err)
			}
		}
	}
	return &counts, nil
}

// Invalidate drops the cached counters, e.g. after an offer resolution.
func (s *Service) Invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, badgeKey(userID)); err != nil {
		s.logger.Warn("badge cache invalidation failed", "user_id", userID, "error", err)
	}
}

func badgeKey(userID uuid.UUID) string {
	return fmt.Sprintf("badges:%s", userID)
}
