// Package payment defines the gateway contract the payment bridge uses to
// talk to the payment processor. The Stripe implementation lives under
// infra/provider/stripepayment.
package payment

import (
	"context"

	"github.com/google/uuid"
)

// AccountRequirements mirrors the processor's outstanding requirement lists
// for a connected account. Exposed transiently for UI display, never
// persisted.
type AccountRequirements struct {
	CurrentlyDue   []string
	EventuallyDue  []string
	PastDue        []string
	DisabledReason string
}

// ConnectAccount is the processor-side view of a seller's sub-account.
type ConnectAccount struct {
	ID               string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
	Requirements     AccountRequirements
}

// CreateAccountParams carries what the processor needs to open a connected
// account for a seller.
type CreateAccountParams struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// ProductParams describes the remote product representing an offer. Product
// identity is stable across price changes; only prices are versioned.
type ProductParams struct {
	Name        string
	Description string
	Active      bool
	OfferID     uuid.UUID
	SellerID    uuid.UUID
}

// Price is the processor-side price object. Remote prices are immutable once
// created; a drifted local price always yields a new remote price.
type Price struct {
	ID         string
	UnitAmount int64
	Currency   string
	Active     bool
}

// CheckoutParams describes a destination-charge checkout: funds flow to the
// seller's connected account. TransactionID is threaded through session and
// payment-intent metadata so webhooks can match exactly.
type CheckoutParams struct {
	PriceID         string
	CustomerID      string
	SellerAccountID string
	SuccessURL      string
	CancelURL       string
	TransactionID   uuid.UUID
	OfferID         uuid.UUID
	BuyerID         uuid.UUID
	SellerID        uuid.UUID
}

// CheckoutSession is the processor-hosted payment flow instance.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutSessionEvent is the neutral view of a completed checkout session
// delivered by webhook.
type CheckoutSessionEvent struct {
	ID              string
	PaymentIntentID string
	Metadata        map[string]string
}

// PaymentIntentEvent is the neutral view of a succeeded payment intent
// delivered by webhook.
type PaymentIntentEvent struct {
	ID       string
	Metadata map[string]string
}

// AccountEvent is the neutral view of a connected-account update delivered
// by webhook.
type AccountEvent struct {
	ID               string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

// Webhook event types the bridge reconciles.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
	EventAccountUpdated           = "account.updated"
)

// WebhookEvent is a verified, parsed webhook delivery. Exactly one of the
// payload fields matching Type is non-nil.
type WebhookEvent struct {
	Type            string
	CheckoutSession *CheckoutSessionEvent
	PaymentIntent   *PaymentIntentEvent
	Account         *AccountEvent
}

// Gateway is the processor boundary used by the payment bridge. All calls
// are remote; failures surface as wrapped domain.ErrUpstream and are not
// retried here.
type Gateway interface {
	CreateAccount(ctx context.Context, params CreateAccountParams) (*ConnectAccount, error)
	GetAccount(ctx context.Context, accountID string) (*ConnectAccount, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	CreateLoginLink(ctx context.Context, accountID string) (string, error)

	CreateProduct(ctx context.Context, params ProductParams) (string, error)
	UpdateProduct(ctx context.Context, productID string, params ProductParams) error
	GetPrice(ctx context.Context, priceID string) (*Price, error)
	CreatePrice(ctx context.Context, productID string, unitAmount int64, currency string) (string, error)
	SetDefaultPrice(ctx context.Context, productID, priceID string) error
	DeactivatePrice(ctx context.Context, priceID string) error

	CreateCustomer(ctx context.Context, userID uuid.UUID, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error)

	// ConstructEvent verifies the webhook signature against the raw payload
	// and parses the event. Verification failure means the event must be
	// rejected with no state change.
	ConstructEvent(payload []byte, signature string) (*WebhookEvent, error)
}
