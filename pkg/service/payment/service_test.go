package payment_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/amirasaad/marketplace/internal/fixtures/fakes"
	"github.com/amirasaad/marketplace/pkg/domain"
	provider "github.com/amirasaad/marketplace/pkg/provider/payment"
	paymentsvc "github.com/amirasaad/marketplace/pkg/service/payment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*paymentsvc.Service, *fakes.Store, *fakes.Gateway) {
	t.Helper()
	store := fakes.NewStore()
	gateway := fakes.NewGateway()
	return paymentsvc.New(store.UoW(), gateway, slog.Default()), store, gateway
}

func TestEnsureConnectAccountIdempotent(t *testing.T) {
	svc, store, gateway := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")

	first, err := svc.EnsureConnectAccount(context.Background(), seller.ID)
	require.NoError(t, err)
	second, err := svc.EnsureConnectAccount(context.Background(), seller.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, gateway.CreatedAccounts)
	assert.Equal(t, first, store.Users[seller.ID].StripeAccountID)
}

func TestGetConnectStatusWithoutAccount(t *testing.T) {
	svc, store, _ := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")

	status, err := svc.GetConnectStatus(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Empty(t, status.StripeAccountID)
	assert.False(t, status.ChargesEnabled)
}

func TestGetConnectStatusPersistsFlags(t *testing.T) {
	svc, store, gateway := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	accountID, err := svc.EnsureConnectAccount(context.Background(), seller.ID)
	require.NoError(t, err)
	gateway.Accounts[accountID].ChargesEnabled = true
	gateway.Accounts[accountID].PayoutsEnabled = true

	status, err := svc.GetConnectStatus(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.True(t, status.ChargesEnabled)
	assert.True(t, store.Users[seller.ID].ChargesEnabled)
	assert.True(t, store.Users[seller.ID].PayoutsEnabled)
}

func TestRefreshAccountStatusPersistsFlags(t *testing.T) {
	svc, store, gateway := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	accountID, err := svc.EnsureConnectAccount(context.Background(), seller.ID)
	require.NoError(t, err)
	gateway.Accounts[accountID].ChargesEnabled = true
	gateway.Accounts[accountID].PayoutsEnabled = true
	gateway.Accounts[accountID].DetailsSubmitted = true

	status, err := svc.RefreshAccountStatus(context.Background(), seller.ID)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.True(t, status.ChargesEnabled)
	assert.True(t, store.Users[seller.ID].ChargesEnabled)
	assert.True(t, store.Users[seller.ID].PayoutsEnabled)
	assert.True(t, store.Users[seller.ID].DetailsSubmitted)
}

func TestRefreshAccountStatusWithoutAccount(t *testing.T) {
	svc, store, _ := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")

	status, err := svc.RefreshAccountStatus(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestSyncOfferProductCreatesProductAndPrice(t *testing.T) {
	svc, store, gateway := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 49.99)

	productID, priceID, err := svc.SyncOfferProduct(context.Background(), offer.ID)
	require.NoError(t, err)

	assert.Equal(t, productID, store.Offers[offer.ID].StripeProductID)
	assert.Equal(t, priceID, store.Offers[offer.ID].StripePriceID)
	assert.Equal(t, int64(4999), gateway.Prices[priceID].UnitAmount)
	assert.Equal(t, "eur", gateway.Prices[priceID].Currency)
	assert.Equal(t, priceID, gateway.DefaultPrices[productID])
}

func TestSyncOfferProductIdempotent(t *testing.T) {
	svc, store, gateway := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)

	_, firstPrice, err := svc.SyncOfferProduct(context.Background(), offer.ID)
	require.NoError(t, err)
	firstProduct, secondPrice, err := svc.SyncOfferProduct(context.Background(), offer.ID)
	require.NoError(t, err)

	assert.Equal(t, firstPrice, secondPrice)
	assert.Empty(t, gateway.DeactivatedIDs)
	assert.Len(t, gateway.Prices, 1)
	assert.Equal(t, store.Offers[offer.ID].StripeProductID, firstProduct)
}

func TestSyncOfferProductPriceDrift(t *testing.T) {
	svc, store, gateway := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)

	productBefore, priceBefore, err := svc.SyncOfferProduct(context.Background(), offer.ID)
	require.NoError(t, err)

	// Simulate an offer edit: amount changed, synced price invalidated.
	store.Offers[offer.ID].Price = 60
	store.Offers[offer.ID].StripePriceID = ""
	store.Offers[offer.ID].StripeProductID = productBefore

	productAfter, priceAfter, err := svc.SyncOfferProduct(context.Background(), offer.ID)
	require.NoError(t, err)

	assert.Equal(t, productBefore, productAfter, "product identity is stable")
	assert.NotEqual(t, priceBefore, priceAfter)
	assert.Equal(t, int64(6000), gateway.Prices[priceAfter].UnitAmount)
	assert.Equal(t, priceAfter, gateway.DefaultPrices[productAfter])
}

func TestSyncOfferProductReplacesDriftedPrice(t *testing.T) {
	svc, store, gateway := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)

	_, priceBefore, err := svc.SyncOfferProduct(context.Background(), offer.ID)
	require.NoError(t, err)

	// Remote amount drifted away from the local price; the stale price id is
	// still recorded locally.
	gateway.Prices[priceBefore].UnitAmount = 1234

	_, priceAfter, err := svc.SyncOfferProduct(context.Background(), offer.ID)
	require.NoError(t, err)

	assert.NotEqual(t, priceBefore, priceAfter)
	assert.Contains(t, gateway.DeactivatedIDs, priceBefore)
	assert.False(t, gateway.Prices[priceBefore].Active)
}

func TestSyncOfferProductRejectsSubCentPrice(t *testing.T) {
	svc, store, _ := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 49.999)

	_, _, err := svc.SyncOfferProduct(context.Background(), offer.ID)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func chargeableSeller(store *fakes.Store, gateway *fakes.Gateway) uuid.UUID {
	seller := store.AddUser("Anna", "anna@example.com")
	seller = store.Users[seller.ID]
	seller.StripeAccountID = "acct_seller"
	seller.ChargesEnabled = true
	gateway.Accounts["acct_seller"] = &provider.ConnectAccount{
		ID:             "acct_seller",
		ChargesEnabled: true,
	}
	return seller.ID
}

func TestCreateCheckoutSession(t *testing.T) {
	svc, store, gateway := setup(t)
	sellerID := chargeableSeller(store, gateway)
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(sellerID, "Garden work", 50)

	result, err := svc.CreateCheckoutSession(
		context.Background(), offer.ID, buyer.ID, "https://app/success", "https://app/cancel")
	require.NoError(t, err)
	assert.NotEmpty(t, result.URL)

	// A thread exists, carries the session id and the remote call was keyed
	// with its transaction id.
	require.Len(t, gateway.Sessions, 1)
	session := gateway.Sessions[0]
	assert.Equal(t, result.TransactionID, session.TransactionID)
	assert.Equal(t, "acct_seller", session.SellerAccountID)

	tx := store.Transactions[result.TransactionID]
	require.NotNil(t, tx)
	assert.NotEmpty(t, tx.StripeCheckoutSessionID)

	// The buyer got a customer record and the intent message was appended.
	assert.NotEmpty(t, store.Users[buyer.ID].StripeCustomerID)
	require.Len(t, store.Messages, 1)
	assert.Equal(t, domain.StatusPendingOffer, store.Messages[0].Status)
	assert.Equal(t, buyer.ID, store.Messages[0].UserID)
}

func TestCreateCheckoutSessionSelfBuyForbidden(t *testing.T) {
	svc, store, gateway := setup(t)
	sellerID := chargeableSeller(store, gateway)
	offer := store.AddOffer(sellerID, "Garden work", 50)

	_, err := svc.CreateCheckoutSession(
		context.Background(), offer.ID, sellerID, "https://app/success", "https://app/cancel")
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateCheckoutSessionSellerNotReady(t *testing.T) {
	svc, store, _ := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)

	_, err := svc.CreateCheckoutSession(
		context.Background(), offer.ID, buyer.ID, "https://app/success", "https://app/cancel")
	require.ErrorIs(t, err, domain.ErrNotReady)
}

func TestCreateCheckoutSessionReusesThread(t *testing.T) {
	svc, store, gateway := setup(t)
	sellerID := chargeableSeller(store, gateway)
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(sellerID, "Garden work", 50)
	existing := store.AddTransaction(offer.ID, buyer.ID)

	result, err := svc.CreateCheckoutSession(
		context.Background(), offer.ID, buyer.ID, "https://app/success", "https://app/cancel")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.TransactionID)
	assert.Len(t, store.Transactions, 1)
}

func TestWebhookCheckoutSessionCompleted(t *testing.T) {
	svc, store, _ := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)
	store.Transactions[tx.ID].StripeCheckoutSessionID = "cs_1"

	event := &provider.WebhookEvent{
		Type: provider.EventCheckoutSessionCompleted,
		CheckoutSession: &provider.CheckoutSessionEvent{
			ID:              "cs_1",
			PaymentIntentID: "pi_1",
		},
	}
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))

	assert.Equal(t, "pi_1", store.Transactions[tx.ID].StripePaymentIntentID)
	require.Len(t, store.Messages, 1)
	msg := store.Messages[0]
	assert.Equal(t, domain.StatusAcceptedOffer, msg.Status)
	assert.Equal(t, buyer.ID, msg.UserID)
	assert.Equal(t, "Payment confirmed: 50.00€", msg.Content)

	// Duplicate delivery: no second message, payment intent untouched.
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
	assert.Len(t, store.Messages, 1)
	assert.Equal(t, "pi_1", store.Transactions[tx.ID].StripePaymentIntentID)
}

func TestWebhookPaidMessageAfterAcceptedChatOffer(t *testing.T) {
	svc, store, _ := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)
	store.Transactions[tx.ID].StripeCheckoutSessionID = "cs_1"

	// A chat offer the seller already accepted must not swallow the payment
	// confirmation.
	price := 42.50
	store.AddMessage(tx.ID, buyer.ID, "Ben made an offer of 42.50€.",
		&price, domain.StatusAcceptedOffer)

	event := &provider.WebhookEvent{
		Type: provider.EventCheckoutSessionCompleted,
		CheckoutSession: &provider.CheckoutSessionEvent{
			ID:              "cs_1",
			PaymentIntentID: "pi_1",
		},
	}
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))

	require.Len(t, store.Messages, 2)
	assert.Equal(t, "Payment confirmed: 50.00€", store.Messages[1].Content)
	assert.Equal(t, domain.StatusAcceptedOffer, store.Messages[1].Status)

	// Redelivery still inserts nothing new.
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
	assert.Len(t, store.Messages, 2)
}

func TestWebhookUnknownSessionNoOp(t *testing.T) {
	svc, store, _ := setup(t)
	event := &provider.WebhookEvent{
		Type: provider.EventCheckoutSessionCompleted,
		CheckoutSession: &provider.CheckoutSessionEvent{
			ID:              "cs_unknown",
			PaymentIntentID: "pi_1",
		},
	}
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
	assert.Empty(t, store.Messages)
}

func TestWebhookPaymentIntentSucceededByMetadata(t *testing.T) {
	svc, store, _ := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)
	// A second, more recent thread must not be touched.
	otherOffer := store.AddOffer(seller.ID, "Painting", 80)
	other := store.AddTransaction(otherOffer.ID, buyer.ID)

	event := &provider.WebhookEvent{
		Type: provider.EventPaymentIntentSucceeded,
		PaymentIntent: &provider.PaymentIntentEvent{
			ID:       "pi_1",
			Metadata: map[string]string{"transaction_id": tx.ID.String()},
		},
	}
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))

	assert.Equal(t, "pi_1", store.Transactions[tx.ID].StripePaymentIntentID)
	assert.Empty(t, store.Transactions[other.ID].StripePaymentIntentID)
}

func TestWebhookPaymentIntentWriteOnce(t *testing.T) {
	svc, store, _ := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)
	store.Transactions[tx.ID].StripePaymentIntentID = "pi_first"

	event := &provider.WebhookEvent{
		Type: provider.EventPaymentIntentSucceeded,
		PaymentIntent: &provider.PaymentIntentEvent{
			ID:       "pi_second",
			Metadata: map[string]string{"transaction_id": tx.ID.String()},
		},
	}
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
	assert.Equal(t, "pi_first", store.Transactions[tx.ID].StripePaymentIntentID)
}

func TestWebhookPaymentIntentWithoutMetadataNoOp(t *testing.T) {
	svc, store, _ := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)

	event := &provider.WebhookEvent{
		Type:          provider.EventPaymentIntentSucceeded,
		PaymentIntent: &provider.PaymentIntentEvent{ID: "pi_1"},
	}
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
	assert.Empty(t, store.Transactions[tx.ID].StripePaymentIntentID)
}

func TestWebhookAccountUpdated(t *testing.T) {
	svc, store, _ := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	store.Users[seller.ID].StripeAccountID = "acct_1"

	event := &provider.WebhookEvent{
		Type: provider.EventAccountUpdated,
		Account: &provider.AccountEvent{
			ID:               "acct_1",
			ChargesEnabled:   true,
			PayoutsEnabled:   true,
			DetailsSubmitted: true,
		},
	}
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))

	assert.True(t, store.Users[seller.ID].ChargesEnabled)
	assert.True(t, store.Users[seller.ID].PayoutsEnabled)
	assert.True(t, store.Users[seller.ID].DetailsSubmitted)
}

func TestWebhookAccountUpdatedUnknownAccountNoOp(t *testing.T) {
	svc, _, _ := setup(t)
	event := &provider.WebhookEvent{
		Type:    provider.EventAccountUpdated,
		Account: &provider.AccountEvent{ID: "acct_unknown", ChargesEnabled: true},
	}
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
}

func TestWebhookUnhandledTypeNoOp(t *testing.T) {
	svc, _, _ := setup(t)
	event := &provider.WebhookEvent{Type: "invoice.paid"}
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
}
