// Package stripepayment implements the payment gateway using the Stripe API.
package stripepayment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/amirasaad/marketplace/config"
	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/provider/payment"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Provider implements payment.Gateway using Stripe.
type Provider struct {
	client *stripe.Client
	cfg    *config.Stripe
	logger *slog.Logger
}

// New creates a Provider with one configured Stripe client, reused across
// requests.
func New(cfg *config.Stripe, logger *slog.Logger) *Provider {
	return &Provider{
		client: stripe.NewClient(cfg.ApiKey),
		cfg:    cfg,
		logger: logger,
	}
}

func (p *Provider) CreateAccount(
	ctx context.Context,
	params payment.CreateAccountParams,
) (*payment.ConnectAccount, error) {
	acctParams := &stripe.AccountCreateParams{
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		Email:        stripe.String(params.Email),
		BusinessType: stripe.String("individual"),
		Capabilities: &stripe.AccountCreateCapabilitiesParams{
			CardPayments: &stripe.AccountCreateCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
			Transfers: &stripe.AccountCreateCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
		Params: stripe.Params{
			Metadata: map[string]string{
				"user_id": params.UserID.String(),
			},
		},
	}

	acct, err := p.client.V1Accounts.Create(ctx, acctParams)
	if err != nil {
		return nil, fmt.Errorf("%w: create account: %v", domain.ErrUpstream, err)
	}
	p.logger.Info("created Stripe Connect account",
		"account_id", acct.ID,
		"user_id", params.UserID,
	)
	return mapAccount(acct), nil
}

func (p *Provider) GetAccount(
	ctx context.Context,
	accountID string,
) (*payment.ConnectAccount, error) {
	acct, err := p.client.V1Accounts.GetByID(ctx, accountID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: get account %s: %v", domain.ErrUpstream, accountID, err)
	}
	return mapAccount(acct), nil
}

func (p *Provider) CreateAccountLink(
	ctx context.Context,
	accountID, refreshURL, returnURL string,
) (string, error) {
	link, err := p.client.V1AccountLinks.Create(ctx, &stripe.AccountLinkCreateParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: create account link: %v", domain.ErrUpstream, err)
	}
	return link.URL, nil
}

func (p *Provider) CreateLoginLink(ctx context.Context, accountID string) (string, error) {
	link, err := p.client.V1LoginLinks.Create(ctx, &stripe.LoginLinkCreateParams{
		Account: stripe.String(accountID),
	})
	if err != nil {
		return "", fmt.Errorf("%w: create login link: %v", domain.ErrUpstream, err)
	}
	return link.URL, nil
}

func (p *Provider) CreateProduct(
	ctx context.Context,
	params payment.ProductParams,
) (string, error) {
	product, err := p.client.V1Products.Create(ctx, &stripe.ProductCreateParams{
		Name:        stripe.String(params.Name),
		Description: stripe.String(params.Description),
		Active:      stripe.Bool(params.Active),
		Params: stripe.Params{
			Metadata: map[string]string{
				"offer_id": params.OfferID.String(),
				"user_id":  params.SellerID.String(),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: create product: %v", domain.ErrUpstream, err)
	}
	return product.ID, nil
}

func (p *Provider) UpdateProduct(
	ctx context.Context,
	productID string,
	params payment.ProductParams,
) error {
	_, err := p.client.V1Products.Update(ctx, productID, &stripe.ProductUpdateParams{
		Name:        stripe.String(params.Name),
		Description: stripe.String(params.Description),
		Active:      stripe.Bool(params.Active),
	})
	if err != nil {
		return fmt.Errorf("%w: update product %s: %v", domain.ErrUpstream, productID, err)
	}
	return nil
}

func (p *Provider) GetPrice(ctx context.Context, priceID string) (*payment.Price, error) {
	price, err := p.client.V1Prices.Retrieve(ctx, priceID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: get price %s: %v", domain.ErrUpstream, priceID, err)
	}
	return &payment.Price{
		ID:         price.ID,
		UnitAmount: price.UnitAmount,
		Currency:   string(price.Currency),
		Active:     price.Active,
	}, nil
}

func (p *Provider) CreatePrice(
	ctx context.Context,
	productID string,
	unitAmount int64,
	currency string,
) (string, error) {
	price, err := p.client.V1Prices.Create(ctx, &stripe.PriceCreateParams{
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(unitAmount),
		Currency:   stripe.String(currency),
	})
	if err != nil {
		return "", fmt.Errorf("%w: create price: %v", domain.ErrUpstream, err)
	}
	return price.ID, nil
}

func (p *Provider) SetDefaultPrice(ctx context.Context, productID, priceID string) error {
	_, err := p.client.V1Products.Update(ctx, productID, &stripe.ProductUpdateParams{
		DefaultPrice: stripe.String(priceID),
	})
	if err != nil {
		return fmt.Errorf("%w: set default price on %s: %v", domain.ErrUpstream, productID, err)
	}
	return nil
}

func (p *Provider) DeactivatePrice(ctx context.Context, priceID string) error {
	_, err := p.client.V1Prices.Update(ctx, priceID, &stripe.PriceUpdateParams{
		Active: stripe.Bool(false),
	})
	if err != nil {
		return fmt.Errorf("%w: deactivate price %s: %v", domain.ErrUpstream, priceID, err)
	}
	return nil
}

func (p *Provider) CreateCustomer(
	ctx context.Context,
	userID uuid.UUID,
	email string,
) (string, error) {
	customer, err := p.client.V1Customers.Create(ctx, &stripe.CustomerCreateParams{
		Email: stripe.String(email),
		Params: stripe.Params{
			Metadata: map[string]string{
				"user_id": userID.String(),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %v", domain.ErrUpstream, err)
	}
	return customer.ID, nil
}

func (p *Provider) CreateCheckoutSession(
	ctx context.Context,
	params *payment.CheckoutParams,
) (*payment.CheckoutSession, error) {
	// The transaction id rides on both the session and the payment intent so
	// webhook reconciliation can match by exact id instead of recency.
	metadata := map[string]string{
		"transaction_id": params.TransactionID.String(),
		"offer_id":       params.OfferID.String(),
		"buyer_user_id":  params.BuyerID.String(),
		"seller_user_id": params.SellerID.String(),
	}

	sessionParams := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		Customer:   stripe.String(params.CustomerID),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			Price:    stripe.String(params.PriceID),
			Quantity: stripe.Int64(1),
		}},
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			TransferData: &stripe.CheckoutSessionCreatePaymentIntentDataTransferDataParams{
				Destination: stripe.String(params.SellerAccountID),
			},
			OnBehalfOf: stripe.String(params.SellerAccountID),
			Metadata:   metadata,
		},
		Metadata: metadata,
	}

	session, err := p.client.V1CheckoutSessions.Create(ctx, sessionParams)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", domain.ErrUpstream, err)
	}
	p.logger.Info("created checkout session",
		"session_id", session.ID,
		"transaction_id", params.TransactionID,
	)
	return &payment.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// ConstructEvent verifies the payload signature against the raw bytes and
// parses the event into its neutral form. The raw body must not have been
// through any body parser.
func (p *Provider) ConstructEvent(
	payload []byte,
	signature string,
) (*payment.WebhookEvent, error) {
	if p.cfg.SigningSecret == "" {
		return nil, fmt.Errorf("webhook signing secret not configured")
	}
	event, err := webhook.ConstructEvent(payload, signature, p.cfg.SigningSecret)
	if err != nil {
		return nil, fmt.Errorf("verifying webhook signature: %w", err)
	}

	parsed := &payment.WebhookEvent{Type: string(event.Type)}
	switch parsed.Type {
	case payment.EventCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("parsing checkout session event: %w", err)
		}
		cs := &payment.CheckoutSessionEvent{ID: session.ID, Metadata: session.Metadata}
		if session.PaymentIntent != nil {
			cs.PaymentIntentID = session.PaymentIntent.ID
		}
		parsed.CheckoutSession = cs
	case payment.EventPaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("parsing payment intent event: %w", err)
		}
		parsed.PaymentIntent = &payment.PaymentIntentEvent{ID: pi.ID, Metadata: pi.Metadata}
	case payment.EventAccountUpdated:
		var acct stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &acct); err != nil {
			return nil, fmt.Errorf("parsing account event: %w", err)
		}
		parsed.Account = &payment.AccountEvent{
			ID:               acct.ID,
			ChargesEnabled:   acct.ChargesEnabled,
			PayoutsEnabled:   acct.PayoutsEnabled,
			DetailsSubmitted: acct.DetailsSubmitted,
		}
	}
	return parsed, nil
}

func mapAccount(acct *stripe.Account) *payment.ConnectAccount {
	mapped := &payment.ConnectAccount{
		ID:               acct.ID,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}
	if acct.Requirements != nil {
		mapped.Requirements = payment.AccountRequirements{
			CurrentlyDue:   acct.Requirements.CurrentlyDue,
			EventuallyDue:  acct.Requirements.EventuallyDue,
			PastDue:        acct.Requirements.PastDue,
			DisabledReason: string(acct.Requirements.DisabledReason),
		}
	}
	return mapped
}
