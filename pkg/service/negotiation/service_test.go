package negotiation_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/amirasaad/marketplace/internal/fixtures/fakes"
	"github.com/amirasaad/marketplace/pkg/domain"
	negotiationsvc "github.com/amirasaad/marketplace/pkg/service/negotiation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*negotiationsvc.Service, *fakes.Store) {
	t.Helper()
	store := fakes.NewStore()
	return negotiationsvc.New(store.UoW(), slog.Default()), store
}

func TestCreateTransaction(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)

	tx, err := svc.CreateTransaction(context.Background(), offer.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, offer.ID, tx.OfferID)
	assert.Equal(t, buyer.ID, tx.UserID)
}

func TestCreateTransactionSelfBuyForbidden(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)

	_, err := svc.CreateTransaction(context.Background(), offer.ID, seller.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateTransactionDuplicateConflict(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)

	_, err := svc.CreateTransaction(context.Background(), offer.ID, buyer.ID)
	require.NoError(t, err)
	_, err = svc.CreateTransaction(context.Background(), offer.ID, buyer.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateTransactionInactiveOfferNotFound(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	store.Offers[offer.ID].Active = false

	_, err := svc.CreateTransaction(context.Background(), offer.ID, buyer.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSendMessageRequiresParty(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	stranger := store.AddUser("Cleo", "cleo@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)

	err := svc.SendMessage(context.Background(), tx.ID, stranger.ID, "hi")
	require.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, svc.SendMessage(context.Background(), tx.ID, buyer.ID, "hi"))
	require.NoError(t, svc.SendMessage(context.Background(), tx.ID, seller.ID, "hello"))
}

func TestSendOffer(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)

	require.NoError(t, svc.SendOffer(context.Background(), tx.ID, buyer.ID, 42.5))

	require.Len(t, store.Messages, 1)
	msg := store.Messages[0]
	assert.Equal(t, domain.StatusPendingOffer, msg.Status)
	require.NotNil(t, msg.Price)
	assert.Equal(t, 42.5, *msg.Price)
	assert.Equal(t, "Ben made an offer of 42.50€.", msg.Content)
}

func TestSendOfferRejectsNonPositivePrice(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)

	err := svc.SendOffer(context.Background(), tx.ID, buyer.ID, 0)
	require.ErrorIs(t, err, domain.ErrValidation)
	err = svc.SendOffer(context.Background(), tx.ID, buyer.ID, -3)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, store.Messages)
}

func TestResolveOfferAccept(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)
	price := 40.0
	msg := store.AddMessage(tx.ID, buyer.ID, "offer", &price, domain.StatusPendingOffer)

	err := svc.ResolveOffer(context.Background(), tx.ID, msg.ID, seller.ID, domain.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAcceptedOffer, store.Messages[0].Status)
}

func TestResolveOfferReject(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)
	price := 40.0
	msg := store.AddMessage(tx.ID, buyer.ID, "offer", &price, domain.StatusPendingOffer)

	err := svc.ResolveOffer(context.Background(), tx.ID, msg.ID, seller.ID, domain.DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejectedOffer, store.Messages[0].Status)
}

func TestResolveOfferSellerOnly(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)
	price := 40.0
	// Seller proposed a price; the buyer may not resolve it.
	msg := store.AddMessage(tx.ID, seller.ID, "offer", &price, domain.StatusPendingOffer)

	err := svc.ResolveOffer(context.Background(), tx.ID, msg.ID, buyer.ID, domain.DecisionAccept)
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, domain.StatusPendingOffer, store.Messages[0].Status)
}

func TestResolveOfferOwnMessageForbidden(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)
	price := 40.0
	msg := store.AddMessage(tx.ID, seller.ID, "offer", &price, domain.StatusPendingOffer)

	err := svc.ResolveOffer(context.Background(), tx.ID, msg.ID, seller.ID, domain.DecisionAccept)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestResolveOfferNonOfferConflict(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)
	msg := store.AddMessage(tx.ID, buyer.ID, "just a chat message", nil, domain.StatusMessage)

	err := svc.ResolveOffer(context.Background(), tx.ID, msg.ID, seller.ID, domain.DecisionAccept)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestResolveOfferTwiceConflict(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)
	price := 40.0
	msg := store.AddMessage(tx.ID, buyer.ID, "offer", &price, domain.StatusPendingOffer)

	require.NoError(t,
		svc.ResolveOffer(context.Background(), tx.ID, msg.ID, seller.ID, domain.DecisionAccept))
	err := svc.ResolveOffer(context.Background(), tx.ID, msg.ID, seller.ID, domain.DecisionReject)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.StatusAcceptedOffer, store.Messages[0].Status)
}

func TestResolveOfferWrongThreadNotFound(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	otherOffer := store.AddOffer(seller.ID, "Painting", 80)
	tx := store.AddTransaction(offer.ID, buyer.ID)
	otherTx := store.AddTransaction(otherOffer.ID, buyer.ID)
	price := 40.0
	msg := store.AddMessage(otherTx.ID, buyer.ID, "offer", &price, domain.StatusPendingOffer)

	err := svc.ResolveOffer(context.Background(), tx.ID, msg.ID, seller.ID, domain.DecisionAccept)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetTransactionDetail(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(seller.ID, "Garden work", 50)
	tx := store.AddTransaction(offer.ID, buyer.ID)
	store.AddMessage(tx.ID, buyer.ID, "hello", nil, domain.StatusMessage)
	store.AddMessage(tx.ID, seller.ID, "hi", nil, domain.StatusMessage)

	detail, err := svc.GetTransaction(context.Background(), tx.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ben", detail.BuyerName)
	assert.Equal(t, "Anna", detail.SellerName)
	assert.Equal(t, "Garden work", detail.OfferTitle)
	assert.Len(t, detail.Messages, 2)

	_, err = svc.GetTransaction(context.Background(), tx.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListTransactionsPartition(t *testing.T) {
	svc, store := setup(t)
	seller := store.AddUser("Anna", "anna@example.com")
	buyer := store.AddUser("Ben", "ben@example.com")
	myOffer := store.AddOffer(buyer.ID, "Tutoring", 25)
	otherOffer := store.AddOffer(seller.ID, "Garden work", 50)
	store.AddTransaction(otherOffer.ID, buyer.ID) // buyer requested
	store.AddTransaction(myOffer.ID, seller.ID)   // against buyer's offer

	list, err := svc.ListTransactionsForUser(context.Background(), buyer.ID)
	require.NoError(t, err)
	require.Len(t, list.Requested, 1)
	require.Len(t, list.Offered, 1)
	assert.Equal(t, otherOffer.ID, list.Requested[0].OfferID)
	assert.Equal(t, myOffer.ID, list.Offered[0].OfferID)
}
