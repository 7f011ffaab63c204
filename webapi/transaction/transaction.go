// Package transaction exposes the negotiation thread endpoints.
package transaction

import (
	"errors"

	"github.com/amirasaad/marketplace/config"
	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/middleware"
	negotiationsvc "github.com/amirasaad/marketplace/pkg/service/negotiation"
	notificationsvc "github.com/amirasaad/marketplace/pkg/service/notification"
	"github.com/amirasaad/marketplace/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the negotiation endpoints.
func Routes(
	app *fiber.App,
	negotiationSvc *negotiationsvc.Service,
	notificationSvc *notificationsvc.Service,
	cfg *config.AppConfig,
) {
	protected := middleware.JwtProtected(cfg.Jwt)
	app.Post("/offers/:id/transactions", protected, CreateTransaction(negotiationSvc))
	app.Get("/offers/:id/transactions/mine", protected, GetExistingTransaction(negotiationSvc))
	app.Get("/transactions", protected, ListTransactions(negotiationSvc))
	app.Get("/transactions/:id", protected, GetTransaction(negotiationSvc))
	app.Post("/transactions/:id/messages", protected, SendMessage(negotiationSvc, notificationSvc))
	app.Post("/transactions/:id/offers", protected, SendOffer(negotiationSvc, notificationSvc))
	app.Post(
		"/transactions/:id/messages/:messageId/resolve",
		protected,
		ResolveOffer(negotiationSvc, notificationSvc),
	)
}

func CreateTransaction(negotiationSvc *negotiationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		offerID, err := common.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		tx, err := negotiationSvc.CreateTransaction(c.Context(), offerID, userID)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Transaction created", tx)
	}
}

// GetExistingTransaction returns the caller's thread for an offer, letting
// the client route to it instead of creating a duplicate.
func GetExistingTransaction(negotiationSvc *negotiationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		offerID, err := common.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		tx, err := negotiationSvc.GetExistingTransaction(c.Context(), offerID, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return common.SuccessResponseJSON(c, fiber.StatusOK, "No transaction", nil)
		}
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction", tx)
	}
}

func ListTransactions(negotiationSvc *negotiationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		list, err := negotiationSvc.ListTransactionsForUser(c.Context(), userID)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions", list)
	}
}

func GetTransaction(negotiationSvc *negotiationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		transactionID, err := common.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		detail, err := negotiationSvc.GetTransaction(c.Context(), transactionID, userID)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction", detail)
	}
}

func SendMessage(
	negotiationSvc *negotiationsvc.Service,
	notificationSvc *notificationsvc.Service,
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		transactionID, err := common.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		input, err := common.BindAndValidate[MessageInput](c)
		if input == nil {
			return err
		}
		if err := negotiationSvc.SendMessage(
			c.Context(), transactionID, userID, input.Content); err != nil {
			return common.DomainErrorJSON(c, err)
		}
		notificationSvc.Invalidate(c.Context(), userID)
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Message sent", nil)
	}
}

func SendOffer(
	negotiationSvc *negotiationsvc.Service,
	notificationSvc *notificationsvc.Service,
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		transactionID, err := common.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		input, err := common.BindAndValidate[OfferInput](c)
		if input == nil {
			return err
		}
		if err := negotiationSvc.SendOffer(
			c.Context(), transactionID, userID, input.Price); err != nil {
			return common.DomainErrorJSON(c, err)
		}
		notificationSvc.Invalidate(c.Context(), userID)
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Offer sent", nil)
	}
}

func ResolveOffer(
	negotiationSvc *negotiationsvc.Service,
	notificationSvc *notificationsvc.Service,
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		transactionID, err := common.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		messageID, err := common.ParamUUID(c, "messageId")
		if err != nil {
			return err
		}
		input, err := common.BindAndValidate[ResolveInput](c)
		if input == nil {
			return err
		}
		if err := negotiationSvc.ResolveOffer(
			c.Context(),
			transactionID, messageID, userID,
			domain.OfferDecision(input.Decision),
		); err != nil {
			return common.DomainErrorJSON(c, err)
		}
		notificationSvc.Invalidate(c.Context(), userID)
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Offer resolved", nil)
	}
}
