// Package stripe exposes the payment endpoints: seller onboarding, checkout
// and the webhook receiver.
package stripe

import (
	"github.com/amirasaad/marketplace/config"
	"github.com/amirasaad/marketplace/pkg/middleware"
	provider "github.com/amirasaad/marketplace/pkg/provider/payment"
	paymentsvc "github.com/amirasaad/marketplace/pkg/service/payment"
	"github.com/amirasaad/marketplace/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the payment endpoints. The webhook route is
// unauthenticated; the signature check is its authentication.
func Routes(
	app *fiber.App,
	paymentSvc *paymentsvc.Service,
	gateway provider.Gateway,
	cfg *config.AppConfig,
) {
	protected := middleware.JwtProtected(cfg.Jwt)
	app.Post("/stripe/onboard", protected, CreateOnboardingLink(paymentSvc, &cfg.Stripe))
	app.Post("/stripe/dashboard", protected, CreateDashboardLink(paymentSvc))
	app.Get("/stripe/status", protected, GetConnectStatus(paymentSvc))
	app.Post("/stripe/status/refresh", protected, RefreshAccountStatus(paymentSvc))
	app.Post("/offers/:id/checkout", protected, CreateCheckoutSession(paymentSvc, &cfg.Stripe))
	app.Post("/stripe/webhook", Webhook(paymentSvc, gateway))
}

// CreateOnboardingLink returns a URL the seller visits to complete
// onboarding. The connected account is created on first call.
func CreateOnboardingLink(paymentSvc *paymentsvc.Service, cfg *config.Stripe) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		url, err := paymentSvc.CreateOnboardingLink(
			c.Context(), userID, cfg.OnboardingRefreshURL, cfg.OnboardingReturnURL)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Onboarding link", fiber.Map{
			"url": url,
		})
	}
}

func CreateDashboardLink(paymentSvc *paymentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		url, err := paymentSvc.CreateDashboardLink(c.Context(), userID)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Dashboard link", fiber.Map{
			"url": url,
		})
	}
}

func GetConnectStatus(paymentSvc *paymentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		status, err := paymentSvc.GetConnectStatus(c.Context(), userID)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Connect status", status)
	}
}

// RefreshAccountStatus re-reads the connected account and persists its
// capability flags. The frontend calls it when the seller returns from
// onboarding.
func RefreshAccountStatus(paymentSvc *paymentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		status, err := paymentSvc.RefreshAccountStatus(c.Context(), userID)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account status", status)
	}
}

// CreateCheckoutSession starts the hosted payment flow for an offer and
// returns the redirect URL.
func CreateCheckoutSession(paymentSvc *paymentsvc.Service, cfg *config.Stripe) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		offerID, err := common.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		result, err := paymentSvc.CreateCheckoutSession(
			c.Context(), offerID, userID, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Checkout session", fiber.Map{
			"url":           result.URL,
			"transactionId": result.TransactionID,
		})
	}
}

// Webhook verifies and reconciles Stripe events. The raw body is passed to
// signature verification untouched; a failed verification is rejected with
// no state change.
func Webhook(paymentSvc *paymentsvc.Service, gateway provider.Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		event, err := gateway.ConstructEvent(c.Body(), c.Get("Stripe-Signature"))
		if err != nil {
			return common.ErrorResponseJSON(
				c, fiber.StatusBadRequest, "Invalid webhook", err.Error())
		}
		if err := paymentSvc.HandleWebhookEvent(c.Context(), event); err != nil {
			// Non-2xx makes Stripe redeliver, which the handlers tolerate.
			return common.ErrorResponseJSON(
				c, fiber.StatusInternalServerError, "Webhook processing failed", nil)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Received", fiber.Map{
			"received": true,
		})
	}
}
