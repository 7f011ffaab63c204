// Package payment is the bridge to the payment processor: connected-account
// lifecycle, offer product/price synchronization, checkout session creation
// and asynchronous webhook reconciliation.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/dto"
	provider "github.com/amirasaad/marketplace/pkg/provider/payment"
	"github.com/amirasaad/marketplace/pkg/repository"
	"github.com/google/uuid"
)

// Checkout sessions charge in euros; offers are priced in EUR throughout.
const currency = "eur"

// paymentConfirmedPrefix marks the confirmation message appended when a
// checkout session completes. A thread records at most one payment, so an
// existing confirmation is the duplicate-delivery guard for that message.
const paymentConfirmedPrefix = "Payment confirmed"

// ConnectStatus is the transient view of a seller's connected account:
// persisted capability flags plus the processor's requirement lists, which
// are never stored locally.
type ConnectStatus struct {
	StripeAccountID  string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
	Requirements     provider.AccountRequirements
}

// CheckoutResult is the outcome of a checkout session creation.
type CheckoutResult struct {
	URL           string
	TransactionID uuid.UUID
}

// Service implements the payment bridge on top of a gateway and the
// persistent store.
type Service struct {
	uow     repository.UnitOfWork
	gateway provider.Gateway
	logger  *slog.Logger
}

// New creates a payment Service.
func New(uow repository.UnitOfWork, gateway provider.Gateway, logger *slog.Logger) *Service {
	return &Service{uow: uow, gateway: gateway, logger: logger}
}

// EnsureConnectAccount returns the user's connected account id, creating
// the remote account on first call. Idempotent; a remote failure surfaces
// as domain.ErrUpstream and is not retried here.
func (s *Service) EnsureConnectAccount(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeAccountID != "" {
		return user.StripeAccountID, nil
	}

	acct, err := s.gateway.CreateAccount(ctx, provider.CreateAccountParams{
		UserID: userID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		return "", err
	}

	if err := s.updateUser(ctx, userID, &dto.UserUpdate{StripeAccountID: &acct.ID}); err != nil {
		return "", fmt.Errorf("saving connect account id: %w", err)
	}
	return acct.ID, nil
}

// CreateOnboardingLink returns an onboarding URL for the user's connected
// account, creating the account first if needed.
func (s *Service) CreateOnboardingLink(
	ctx context.Context,
	userID uuid.UUID,
	refreshURL, returnURL string,
) (string, error) {
	accountID, err := s.EnsureConnectAccount(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.gateway.CreateAccountLink(ctx, accountID, refreshURL, returnURL)
}

// CreateDashboardLink returns an express-dashboard login URL for the user's
// connected account.
func (s *Service) CreateDashboardLink(ctx context.Context, userID uuid.UUID) (string, error) {
	accountID, err := s.EnsureConnectAccount(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.gateway.CreateLoginLink(ctx, accountID)
}

// RefreshAccountStatus pulls the current capability flags from the remote
// account and persists them. Returns nil when the user has no connected
// account yet.
func (s *Service) RefreshAccountStatus(
	ctx context.Context,
	userID uuid.UUID,
) (*dto.AccountStatusUpdate, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.StripeAccountID == "" {
		return nil, nil
	}

	acct, err := s.gateway.GetAccount(ctx, user.StripeAccountID)
	if err != nil {
		return nil, err
	}
	status := dto.AccountStatusUpdate{
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}
	if err := s.updateAccountStatus(ctx, userID, status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetConnectStatus returns the capability flags and the processor's
// outstanding requirement lists for UI display. Flags are persisted as a
// side effect; the requirement lists are transient.
func (s *Service) GetConnectStatus(ctx context.Context, userID uuid.UUID) (*ConnectStatus, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.StripeAccountID == "" {
		return &ConnectStatus{}, nil
	}

	acct, err := s.gateway.GetAccount(ctx, user.StripeAccountID)
	if err != nil {
		return nil, err
	}
	if err := s.updateAccountStatus(ctx, userID, dto.AccountStatusUpdate{
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}); err != nil {
		return nil, err
	}
	return &ConnectStatus{
		StripeAccountID:  user.StripeAccountID,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
		Requirements:     acct.Requirements,
	}, nil
}

// SyncOfferProduct reconciles the offer's remote product and price with its
// local state. Product identity is stable across price changes; remote
// prices are immutable, so any drift in amount or currency yields a fresh
// price object, which becomes the product default while the previous one is
// deactivated best-effort. Idempotent: re-running with an unchanged price
// performs no price mutation.
func (s *Service) SyncOfferProduct(
	ctx context.Context,
	offerID uuid.UUID,
) (productID, priceID string, err error) {
	offer, err := s.getOffer(ctx, offerID)
	if err != nil {
		return "", "", err
	}

	unitAmount, err := toMinorUnits(offer.Price)
	if err != nil {
		return "", "", err
	}

	productParams := provider.ProductParams{
		Name:        offer.Title,
		Description: offer.Description,
		Active:      offer.Active,
		OfferID:     offer.ID,
		SellerID:    offer.UserID,
	}

	productID = offer.StripeProductID
	if productID == "" {
		productID, err = s.gateway.CreateProduct(ctx, productParams)
		if err != nil {
			return "", "", err
		}
	} else if err := s.gateway.UpdateProduct(ctx, productID, productParams); err != nil {
		return "", "", err
	}

	priceID = offer.StripePriceID
	needNewPrice := true
	if priceID != "" {
		existing, err := s.gateway.GetPrice(ctx, priceID)
		if err == nil && existing.UnitAmount == unitAmount && existing.Currency == currency {
			needNewPrice = false
		}
		// A failed retrieval means the price id is stale; fall through and
		// create a replacement.
	}

	if needNewPrice {
		oldPriceID := priceID
		priceID, err = s.gateway.CreatePrice(ctx, productID, unitAmount, currency)
		if err != nil {
			return "", "", err
		}
		if err := s.gateway.SetDefaultPrice(ctx, productID, priceID); err != nil {
			return "", "", err
		}
		if err := s.saveProductSync(ctx, offerID, productID, priceID); err != nil {
			return "", "", err
		}
		if oldPriceID != "" {
			if err := s.gateway.DeactivatePrice(ctx, oldPriceID); err != nil {
				// Non-fatal: the old price is already detached from the
				// product default.
				s.logger.Warn("failed to deactivate previous price",
					"offer_id", offerID,
					"price_id", oldPriceID,
					"error", err,
				)
			}
		}
		return productID, priceID, nil
	}

	if err := s.saveProductSync(ctx, offerID, productID, priceID); err != nil {
		return "", "", err
	}
	return productID, priceID, nil
}

// CreateCheckoutSession creates a destination-charge checkout for the offer,
// reusing the (offer, buyer) negotiation thread. The buyer cannot buy their
// own offer; the seller must be chargeable.
func (s *Service) CreateCheckoutSession(
	ctx context.Context,
	offerID, buyerID uuid.UUID,
	successURL, cancelURL string,
) (*CheckoutResult, error) {
	offer, err := s.getActiveOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.UserID == buyerID {
		return nil, fmt.Errorf("%w: cannot buy your own offer", domain.ErrForbidden)
	}

	seller, err := s.getUser(ctx, offer.UserID)
	if err != nil {
		return nil, err
	}
	if seller.StripeAccountID == "" || !seller.ChargesEnabled {
		return nil, fmt.Errorf("%w: seller cannot receive charges yet", domain.ErrNotReady)
	}

	customerID, err := s.ensureCustomer(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	// Lazy sync guarantees the checkout uses the freshest price even right
	// after an offer edit.
	_, priceID, err := s.SyncOfferProduct(ctx, offerID)
	if err != nil {
		return nil, err
	}

	tx, err := s.getOrCreateThread(ctx, offerID, buyerID)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, &provider.CheckoutParams{
		PriceID:         priceID,
		CustomerID:      customerID,
		SellerAccountID: seller.StripeAccountID,
		SuccessURL:      successURL,
		CancelURL:       cancelURL,
		TransactionID:   tx.ID,
		OfferID:         offerID,
		BuyerID:         buyerID,
		SellerID:        offer.UserID,
	})
	if err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		tx, err = txRepo.UpsertCheckoutSession(ctx, offerID, buyerID, session.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Best-effort intent message; the session/payment-intent ids are the
	// payment record of truth, not the chat log.
	price := roundPrice(offer.Price)
	if err := s.appendMessage(ctx, &dto.MessageCreate{
		ID:            uuid.New(),
		TransactionID: tx.ID,
		UserID:        buyerID,
		Content:       fmt.Sprintf("Initiated a purchase of %.2f€ via Stripe Checkout", price),
		Price:         &price,
		Status:        domain.StatusPendingOffer,
	}); err != nil {
		s.logger.Warn("failed to record purchase intent message",
			"transaction_id", tx.ID,
			"error", err,
		)
	}

	return &CheckoutResult{URL: session.URL, TransactionID: tx.ID}, nil
}

// HandleWebhookEvent reconciles a verified webhook event. Unknown sessions
// and unhandled event types complete without error or mutation; duplicate
// deliveries are tolerated.
func (s *Service) HandleWebhookEvent(ctx context.Context, event *provider.WebhookEvent) error {
	switch event.Type {
	case provider.EventCheckoutSessionCompleted:
		return s.handleCheckoutSessionCompleted(ctx, event.CheckoutSession)
	case provider.EventPaymentIntentSucceeded:
		return s.handlePaymentIntentSucceeded(ctx, event.PaymentIntent)
	case provider.EventAccountUpdated:
		return s.handleAccountUpdated(ctx, event.Account)
	default:
		s.logger.Debug("ignoring webhook event", "type", event.Type)
		return nil
	}
}

func (s *Service) handleCheckoutSessionCompleted(
	ctx context.Context,
	session *provider.CheckoutSessionEvent,
) error {
	if session == nil {
		return nil
	}
	log := s.logger.With("checkout_session_id", session.ID)

	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		tx, err := txRepo.GetByCheckoutSessionID(ctx, session.ID)
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("no transaction for completed checkout session")
			return nil
		}
		if err != nil {
			return err
		}

		if session.PaymentIntentID != "" {
			// Write-once: an already populated payment intent id is never
			// overwritten, whatever order the webhooks arrived in.
			updated, err := txRepo.SetPaymentIntentIfEmpty(ctx, tx.ID, session.PaymentIntentID)
			if err != nil {
				return err
			}
			if !updated {
				log.Debug("payment intent already recorded", "transaction_id", tx.ID)
			}
		}

		offerRepo, err := uow.OfferRepository()
		if err != nil {
			return err
		}
		offer, err := offerRepo.Get(ctx, tx.OfferID)
		if err != nil {
			return err
		}

		msgRepo, err := uow.MessageRepository()
		if err != nil {
			return err
		}
		// Duplicate deliveries must not duplicate the paid message. The guard
		// is keyed to the payment itself: an accepted chat offer earlier in
		// the thread must not suppress the confirmation.
		msgs, err := msgRepo.ListByTransaction(ctx, tx.ID)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			if m.Status == domain.StatusAcceptedOffer &&
				strings.HasPrefix(m.Content, paymentConfirmedPrefix) {
				return nil
			}
		}

		price := roundPrice(offer.Price)
		if err := msgRepo.Create(ctx, &dto.MessageCreate{
			ID:            uuid.New(),
			TransactionID: tx.ID,
			UserID:        tx.UserID, // attributed to the buyer
			Content:       fmt.Sprintf("%s: %.2f€", paymentConfirmedPrefix, price),
			Price:         &price,
			Status:        domain.StatusAcceptedOffer,
		}); err != nil {
			// Best-effort projection; the payment intent id is the record
			// of truth.
			log.Warn("failed to record paid message", "transaction_id", tx.ID, "error", err)
		}
		return nil
	})
}

func (s *Service) handlePaymentIntentSucceeded(
	ctx context.Context,
	pi *provider.PaymentIntentEvent,
) error {
	if pi == nil {
		return nil
	}
	log := s.logger.With("payment_intent_id", pi.ID)

	// Match strictly by the transaction id carried in the payment intent
	// metadata. Payment intents without it cannot be attributed safely.
	raw, ok := pi.Metadata["transaction_id"]
	if !ok || raw == "" {
		log.Warn("payment intent carries no transaction id metadata")
		return nil
	}
	transactionID, err := uuid.Parse(raw)
	if err != nil {
		log.Warn("invalid transaction id metadata", "value", raw)
		return nil
	}

	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		updated, err := txRepo.SetPaymentIntentIfEmpty(ctx, transactionID, pi.ID)
		if err != nil {
			return err
		}
		if !updated {
			log.Debug("payment intent already recorded", "transaction_id", transactionID)
		}
		return nil
	})
}

func (s *Service) handleAccountUpdated(
	ctx context.Context,
	acct *provider.AccountEvent,
) error {
	if acct == nil {
		return nil
	}
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		userRepo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		user, err := userRepo.GetByStripeAccountID(ctx, acct.ID)
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("account update for unknown connect account", "account_id", acct.ID)
			return nil
		}
		if err != nil {
			return err
		}
		return userRepo.UpdateAccountStatus(ctx, user.ID, dto.AccountStatusUpdate{
			ChargesEnabled:   acct.ChargesEnabled,
			PayoutsEnabled:   acct.PayoutsEnabled,
			DetailsSubmitted: acct.DetailsSubmitted,
		})
	})
}

func (s *Service) ensureCustomer(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}
	customerID, err := s.gateway.CreateCustomer(ctx, userID, user.Email)
	if err != nil {
		return "", err
	}
	if err := s.updateUser(ctx, userID, &dto.UserUpdate{StripeCustomerID: &customerID}); err != nil {
		return "", fmt.Errorf("saving customer id: %w", err)
	}
	return customerID, nil
}

func (s *Service) getOrCreateThread(
	ctx context.Context,
	offerID, buyerID uuid.UUID,
) (tx *dto.TransactionRead, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		tx, err = txRepo.GetByOfferAndBuyer(ctx, offerID, buyerID)
		if errors.Is(err, domain.ErrNotFound) {
			create := &dto.TransactionCreate{ID: uuid.New(), OfferID: offerID, UserID: buyerID}
			if err := txRepo.Create(ctx, create); err != nil {
				return err
			}
			tx, err = txRepo.Get(ctx, create.ID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *Service) getUser(ctx context.Context, userID uuid.UUID) (user *dto.UserRead, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		userRepo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		user, err = userRepo.Get(ctx, userID)
		return err
	})
	return user, err
}

func (s *Service) updateUser(ctx context.Context, userID uuid.UUID, update *dto.UserUpdate) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		userRepo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		return userRepo.Update(ctx, userID, update)
	})
}

func (s *Service) updateAccountStatus(
	ctx context.Context,
	userID uuid.UUID,
	status dto.AccountStatusUpdate,
) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		userRepo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		return userRepo.UpdateAccountStatus(ctx, userID, status)
	})
}

func (s *Service) getOffer(ctx context.Context, offerID uuid.UUID) (o *dto.OfferRead, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		offerRepo, err := uow.OfferRepository()
		if err != nil {
			return err
		}
		o, err = offerRepo.Get(ctx, offerID)
		return err
	})
	return o, err
}

func (s *Service) getActiveOffer(
	ctx context.Context,
	offerID uuid.UUID,
) (o *dto.OfferRead, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		offerRepo, err := uow.OfferRepository()
		if err != nil {
			return err
		}
		o, err = offerRepo.GetActive(ctx, offerID)
		return err
	})
	return o, err
}

func (s *Service) saveProductSync(
	ctx context.Context,
	offerID uuid.UUID,
	productID, priceID string,
) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		offerRepo, err := uow.OfferRepository()
		if err != nil {
			return err
		}
		return offerRepo.SaveProductSync(ctx, offerID, dto.OfferProductSync{
			StripeProductID: productID,
			StripePriceID:   priceID,
		})
	})
}

func (s *Service) appendMessage(ctx context.Context, create *dto.MessageCreate) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		msgRepo, err := uow.MessageRepository()
		if err != nil {
			return err
		}
		return msgRepo.Create(ctx, create)
	})
}

// toMinorUnits converts a EUR price to cents. The price must land on an
// integer number of cents; anything finer violates the currency-precision
// contract.
func toMinorUnits(price float64) (int64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("%w: price must be positive", domain.ErrValidation)
	}
	cents := price * 100
	rounded := math.Round(cents)
	if math.Abs(cents-rounded) > 1e-6 {
		return 0, fmt.Errorf(
			"%w: price %.4f does not round to a whole number of cents",
			domain.ErrValidation, price,
		)
	}
	return int64(rounded), nil
}

func roundPrice(price float64) float64 {
	return math.Round(price*100) / 100
}
