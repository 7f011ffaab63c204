// Package app wires the services from their shared dependencies.
package app

import (
	"log/slog"

	"github.com/amirasaad/marketplace/config"
	"github.com/amirasaad/marketplace/pkg/cache"
	provider "github.com/amirasaad/marketplace/pkg/provider/payment"
	"github.com/amirasaad/marketplace/pkg/repository"
	"github.com/amirasaad/marketplace/pkg/service/auth"
	"github.com/amirasaad/marketplace/pkg/service/negotiation"
	"github.com/amirasaad/marketplace/pkg/service/notification"
	"github.com/amirasaad/marketplace/pkg/service/offer"
	"github.com/amirasaad/marketplace/pkg/service/payment"
	"github.com/amirasaad/marketplace/pkg/service/user"
	"github.com/amirasaad/marketplace/pkg/storage"
)

// Deps are the infrastructure collaborators every service builds on.
type Deps struct {
	Uow     repository.UnitOfWork
	Gateway provider.Gateway
	Cache   cache.Cache
	Storage storage.ObjectStorage
	Logger  *slog.Logger
}

// App aggregates the wired services.
type App struct {
	Deps   *Deps
	Config *config.AppConfig

	AuthService         *auth.Service
	UserService         *user.Service
	OfferService        *offer.Service
	NegotiationService  *negotiation.Service
	PaymentService      *payment.Service
	NotificationService *notification.Service
}

// New wires all services.
func New(deps *Deps, cfg *config.AppConfig) *App {
	paymentSvc := payment.New(deps.Uow, deps.Gateway, deps.Logger)
	return &App{
		Deps:                deps,
		Config:              cfg,
		AuthService:         auth.New(deps.Uow, &cfg.Jwt, deps.Logger),
		UserService:         user.New(deps.Uow, deps.Storage, deps.Logger),
		OfferService:        offer.New(deps.Uow, paymentSvc, deps.Storage, deps.Logger),
		NegotiationService:  negotiation.New(deps.Uow, deps.Logger),
		PaymentService:      paymentSvc,
		NotificationService: notification.New(deps.Uow, deps.Cache, deps.Logger),
	}
}
