package fakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/provider/payment"
	"github.com/google/uuid"
)

// Gateway is a scriptable in-memory payment.Gateway. It records every call
// so tests can assert on the remote side effects.
type Gateway struct {
	mu sync.Mutex

	Accounts        map[string]*payment.ConnectAccount
	Products        map[string]payment.ProductParams
	Prices          map[string]*payment.Price
	DefaultPrices   map[string]string
	DeactivatedIDs  []string
	Customers       []string
	Sessions        []*payment.CheckoutParams
	CreatedAccounts int

	// ConstructedEvent is returned by ConstructEvent when ConstructErr is
	// nil, letting webhook handler tests bypass real signature checks.
	ConstructedEvent *payment.WebhookEvent
	ConstructErr     error

	nextID int
}

// NewGateway creates an empty fake Gateway.
func NewGateway() *Gateway {
	return &Gateway{
		Accounts:      make(map[string]*payment.ConnectAccount),
		Products:      make(map[string]payment.ProductParams),
		Prices:        make(map[string]*payment.Price),
		DefaultPrices: make(map[string]string),
	}
}

func (g *Gateway) id(prefix string) string {
	g.nextID++
	return fmt.Sprintf("%s_%d", prefix, g.nextID)
}

func (g *Gateway) CreateAccount(
	_ context.Context,
	params payment.CreateAccountParams,
) (*payment.ConnectAccount, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	acct := &payment.ConnectAccount{ID: g.id("acct")}
	g.Accounts[acct.ID] = acct
	g.CreatedAccounts++
	return acct, nil
}

func (g *Gateway) GetAccount(
	_ context.Context,
	accountID string,
) (*payment.ConnectAccount, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	acct, ok := g.Accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown account %s", domain.ErrUpstream, accountID)
	}
	copied := *acct
	return &copied, nil
}

func (g *Gateway) CreateAccountLink(
	_ context.Context,
	accountID, refreshURL, returnURL string,
) (string, error) {
	return "https://connect.test/onboard/" + accountID, nil
}

func (g *Gateway) CreateLoginLink(_ context.Context, accountID string) (string, error) {
	return "https://connect.test/dashboard/" + accountID, nil
}

func (g *Gateway) CreateProduct(
	_ context.Context,
	params payment.ProductParams,
) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.id("prod")
	g.Products[id] = params
	return id, nil
}

func (g *Gateway) UpdateProduct(
	_ context.Context,
	productID string,
	params payment.ProductParams,
) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.Products[productID]; !ok {
		return fmt.Errorf("%w: unknown product %s", domain.ErrUpstream, productID)
	}
	g.Products[productID] = params
	return nil
}

func (g *Gateway) GetPrice(_ context.Context, priceID string) (*payment.Price, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	price, ok := g.Prices[priceID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown price %s", domain.ErrUpstream, priceID)
	}
	copied := *price
	return &copied, nil
}

func (g *Gateway) CreatePrice(
	_ context.Context,
	productID string,
	unitAmount int64,
	currency string,
) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.id("price")
	g.Prices[id] = &payment.Price{
		ID:         id,
		UnitAmount: unitAmount,
		Currency:   currency,
		Active:     true,
	}
	return id, nil
}

func (g *Gateway) SetDefaultPrice(_ context.Context, productID, priceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.DefaultPrices[productID] = priceID
	return nil
}

func (g *Gateway) DeactivatePrice(_ context.Context, priceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if price, ok := g.Prices[priceID]; ok {
		price.Active = false
	}
	g.DeactivatedIDs = append(g.DeactivatedIDs, priceID)
	return nil
}

func (g *Gateway) CreateCustomer(
	_ context.Context,
	userID uuid.UUID,
	email string,
) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.id("cus")
	g.Customers = append(g.Customers, id)
	return id, nil
}

func (g *Gateway) CreateCheckoutSession(
	_ context.Context,
	params *payment.CheckoutParams,
) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Sessions = append(g.Sessions, params)
	id := g.id("cs")
	return &payment.CheckoutSession{ID: id, URL: "https://checkout.test/" + id}, nil
}

func (g *Gateway) ConstructEvent(
	payload []byte,
	signature string,
) (*payment.WebhookEvent, error) {
	if g.ConstructErr != nil {
		return nil, g.ConstructErr
	}
	if g.ConstructedEvent != nil {
		return g.ConstructedEvent, nil
	}
	return nil, fmt.Errorf("no event scripted")
}
