// Package webapi assembles the HTTP surface. Handlers live in sub-packages
// per domain:
// - auth: registration and login
// - user: profile management
// - offer: listings
// - transaction: negotiation threads
// - stripe: onboarding, checkout and webhooks
// - notification: badge counters
package webapi

import (
	"strings"

	"github.com/amirasaad/marketplace/pkg/app"
	authweb "github.com/amirasaad/marketplace/webapi/auth"
	"github.com/amirasaad/marketplace/webapi/common"
	notificationweb "github.com/amirasaad/marketplace/webapi/notification"
	offerweb "github.com/amirasaad/marketplace/webapi/offer"
	stripeweb "github.com/amirasaad/marketplace/webapi/stripe"
	transactionweb "github.com/amirasaad/marketplace/webapi/transaction"
	userweb "github.com/amirasaad/marketplace/webapi/user"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp builds the Fiber application with middleware and all routes.
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return common.ErrorResponseJSON(c, fe.Code, fe.Message, nil)
			}
			return common.ErrorResponseJSON(
				c, fiber.StatusInternalServerError, "Internal Server Error", nil)
		},
	})

	// Rate limiting keys on the client IP, honoring proxy headers.
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        a.Config.RateLimit.MaxRequests,
		Expiration: a.Config.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ErrorResponseJSON(
				c, fiber.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authweb.Routes(fiberApp, a.AuthService, a.UserService)
	userweb.Routes(fiberApp, a.UserService, a.Config)
	offerweb.Routes(fiberApp, a.OfferService, a.Config)
	transactionweb.Routes(fiberApp, a.NegotiationService, a.NotificationService, a.Config)
	stripeweb.Routes(fiberApp, a.PaymentService, a.Deps.Gateway, a.Config)
	notificationweb.Routes(fiberApp, a.NotificationService, a.Config)

	return fiberApp
}
