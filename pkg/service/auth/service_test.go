package auth_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/marketplace/config"
	"github.com/amirasaad/marketplace/internal/fixtures/fakes"
	"github.com/amirasaad/marketplace/pkg/domain"
	authsvc "github.com/amirasaad/marketplace/pkg/service/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setup(t *testing.T) (*authsvc.Service, *fakes.Store, *config.JwtConfig) {
	t.Helper()
	store := fakes.NewStore()
	cfg := &config.JwtConfig{Secret: "test-secret", Expiry: time.Hour}
	return authsvc.New(store.UoW(), cfg, slog.Default()), store, cfg
}

func seedUser(t *testing.T, store *fakes.Store, email, password string) uuid.UUID {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := store.AddUser("Anna", email)
	store.Users[user.ID].Password = string(hash)
	return user.ID
}

func TestLoginSuccess(t *testing.T) {
	svc, store, cfg := setup(t)
	userID := seedUser(t, store, "anna@example.com", "s3cret-pass")

	token, err := svc.Login(context.Background(), "anna@example.com", "s3cret-pass")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(token *jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	got, err := authsvc.UserIDFromToken(parsed)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, store, _ := setup(t)
	seedUser(t, store, "anna@example.com", "s3cret-pass")

	_, err := svc.Login(context.Background(), "anna@example.com", "wrong")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUserIDFromTokenMissingSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{})
	_, err := authsvc.UserIDFromToken(token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}
