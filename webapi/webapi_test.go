package webapi_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/marketplace/config"
	infracache "github.com/amirasaad/marketplace/infra/cache"
	"github.com/amirasaad/marketplace/internal/fixtures/fakes"
	"github.com/amirasaad/marketplace/pkg/app"
	"github.com/amirasaad/marketplace/pkg/provider/payment"
	"github.com/amirasaad/marketplace/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, *fakes.Store, *fakes.Gateway) {
	t.Helper()
	store := fakes.NewStore()
	gateway := fakes.NewGateway()
	cfg := &config.AppConfig{
		Jwt:       config.JwtConfig{Secret: "test-secret", Expiry: time.Hour},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, Window: time.Minute},
	}
	a := app.New(&app.Deps{
		Uow:     store.UoW(),
		Gateway: gateway,
		Cache:   infracache.NewMemoryCache(),
		Logger:  slog.Default(),
	}, cfg)
	return webapi.SetupApp(a), store, gateway
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decodeData(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope.Data
}

func TestHealth(t *testing.T) {
	a, _, _ := newTestApp(t)
	resp, err := a.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterLoginAndProfile(t *testing.T) {
	a, _, _ := newTestApp(t)

	resp, err := a.Test(jsonRequest(http.MethodPost, "/auth/register", fiber.Map{
		"email":    "anna@example.com",
		"name":     "Anna",
		"password": "s3cret-pass",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = a.Test(jsonRequest(http.MethodPost, "/auth/login", fiber.Map{
		"email":    "anna@example.com",
		"password": "s3cret-pass",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := decodeData(t, resp)["token"].(string)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err = a.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	a, _, _ := newTestApp(t)
	resp, err := a.Test(jsonRequest(http.MethodPost, "/auth/register", fiber.Map{
		"email":    "not-an-email",
		"name":     "Anna",
		"password": "s3cret-pass",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginWrongPasswordUnauthorized(t *testing.T) {
	a, _, _ := newTestApp(t)
	resp, err := a.Test(jsonRequest(http.MethodPost, "/auth/register", fiber.Map{
		"email":    "anna@example.com",
		"name":     "Anna",
		"password": "s3cret-pass",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = a.Test(jsonRequest(http.MethodPost, "/auth/login", fiber.Map{
		"email":    "anna@example.com",
		"password": "wrong-pass",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	a, _, _ := newTestApp(t)
	resp, err := a.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRefreshAccountStatusRoute(t *testing.T) {
	a, store, gateway := newTestApp(t)

	resp, err := a.Test(jsonRequest(http.MethodPost, "/auth/register", fiber.Map{
		"email":    "anna@example.com",
		"name":     "Anna",
		"password": "s3cret-pass",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := decodeData(t, resp)["token"].(string)
	require.NotEmpty(t, token)

	var userID uuid.UUID
	for id := range store.Users {
		userID = id
	}
	store.Users[userID].StripeAccountID = "acct_1"
	gateway.Accounts["acct_1"] = &payment.ConnectAccount{
		ID:             "acct_1",
		ChargesEnabled: true,
	}

	req := httptest.NewRequest(http.MethodPost, "/stripe/status/refresh", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err = a.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, store.Users[userID].ChargesEnabled,
		"refreshed flags must be persisted")
}

func TestWebhookInvalidSignature(t *testing.T) {
	a, store, gateway := newTestApp(t)
	gateway.ConstructErr = errors.New("signature verification failed")

	req := httptest.NewRequest(
		http.MethodPost, "/stripe/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	resp, err := a.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, store.Messages, "rejected webhooks must not mutate state")
}

func TestWebhookAcceptsVerifiedEvent(t *testing.T) {
	a, store, gateway := newTestApp(t)
	seller := store.AddUser("Anna", "anna@example.com")
	store.Users[seller.ID].StripeAccountID = "acct_1"
	gateway.ConstructedEvent = &payment.WebhookEvent{
		Type: payment.EventAccountUpdated,
		Account: &payment.AccountEvent{
			ID:             "acct_1",
			ChargesEnabled: true,
		},
	}

	req := httptest.NewRequest(
		http.MethodPost, "/stripe/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=valid")
	resp, err := a.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, store.Users[seller.ID].ChargesEnabled)
}
