package offer_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/amirasaad/marketplace/internal/fixtures/fakes"
	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/dto"
	offersvc "github.com/amirasaad/marketplace/pkg/service/offer"
	paymentsvc "github.com/amirasaad/marketplace/pkg/service/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*offersvc.Service, *fakes.Store, *fakes.Gateway) {
	t.Helper()
	store := fakes.NewStore()
	gateway := fakes.NewGateway()
	syncer := paymentsvc.New(store.UoW(), gateway, slog.Default())
	return offersvc.New(store.UoW(), syncer, nil, slog.Default()), store, gateway
}

func TestCreateOfferSyncsProduct(t *testing.T) {
	svc, store, gateway := setup(t)
	owner := store.AddUser("Anna", "anna@example.com")

	created, err := svc.CreateOffer(context.Background(), owner.ID, offersvc.CreateInput{
		Title: "Garden work",
		Price: 50,
	})
	require.NoError(t, err)
	assert.True(t, created.Active)

	stored := store.Offers[created.ID]
	assert.NotEmpty(t, stored.StripeProductID)
	assert.NotEmpty(t, stored.StripePriceID)
	assert.Equal(t, int64(5000), gateway.Prices[stored.StripePriceID].UnitAmount)
}

func TestCreateOfferValidation(t *testing.T) {
	svc, store, _ := setup(t)
	owner := store.AddUser("Anna", "anna@example.com")

	_, err := svc.CreateOffer(context.Background(), owner.ID, offersvc.CreateInput{Price: 50})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateOffer(context.Background(), owner.ID, offersvc.CreateInput{Title: "x y z"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateOfferOwnerOnly(t *testing.T) {
	svc, store, _ := setup(t)
	owner := store.AddUser("Anna", "anna@example.com")
	other := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(owner.ID, "Garden work", 50)

	newTitle := "Garden and yard work"
	_, err := svc.UpdateOffer(context.Background(), offer.ID, other.ID, &dto.OfferUpdate{
		Title: &newTitle,
	})
	require.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := svc.UpdateOffer(context.Background(), offer.ID, owner.ID, &dto.OfferUpdate{
		Title: &newTitle,
	})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
}

func TestUpdateOfferPriceRefreshesRemotePrice(t *testing.T) {
	svc, store, gateway := setup(t)
	owner := store.AddUser("Anna", "anna@example.com")
	created, err := svc.CreateOffer(context.Background(), owner.ID, offersvc.CreateInput{
		Title: "Garden work",
		Price: 50,
	})
	require.NoError(t, err)
	priceBefore := store.Offers[created.ID].StripePriceID

	newPrice := 65.0
	_, err = svc.UpdateOffer(context.Background(), created.ID, owner.ID, &dto.OfferUpdate{
		Price: &newPrice,
	})
	require.NoError(t, err)

	priceAfter := store.Offers[created.ID].StripePriceID
	assert.NotEqual(t, priceBefore, priceAfter)
	assert.Equal(t, int64(6500), gateway.Prices[priceAfter].UnitAmount)
}

func TestGetOfferHidesInactiveFromOthers(t *testing.T) {
	svc, store, _ := setup(t)
	owner := store.AddUser("Anna", "anna@example.com")
	viewer := store.AddUser("Ben", "ben@example.com")
	offer := store.AddOffer(owner.ID, "Garden work", 50)
	store.Offers[offer.ID].Active = false

	_, err := svc.GetOffer(context.Background(), offer.ID, viewer.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	detail, err := svc.GetOffer(context.Background(), offer.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", detail.OwnerName)
}

func TestListActiveOffersFlagsExistingThread(t *testing.T) {
	svc, store, _ := setup(t)
	owner := store.AddUser("Anna", "anna@example.com")
	viewer := store.AddUser("Ben", "ben@example.com")
	withThread := store.AddOffer(owner.ID, "Garden work", 50)
	store.AddOffer(owner.ID, "Painting", 80)
	store.AddTransaction(withThread.ID, viewer.ID)

	items, err := svc.ListActiveOffers(context.Background(), viewer.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	flags := make(map[string]bool, 2)
	for _, item := range items {
		flags[item.Title] = item.HasActiveTransaction
	}
	assert.True(t, flags["Garden work"])
	assert.False(t, flags["Painting"])
}
