// Package offer exposes the listing endpoints.
package offer

import (
	"github.com/amirasaad/marketplace/config"
	"github.com/amirasaad/marketplace/pkg/dto"
	"github.com/amirasaad/marketplace/pkg/middleware"
	offersvc "github.com/amirasaad/marketplace/pkg/service/offer"
	"github.com/amirasaad/marketplace/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the listing endpoints. All of them require auth; the
// catalog is scoped to logged-in users.
func Routes(app *fiber.App, offerSvc *offersvc.Service, cfg *config.AppConfig) {
	protected := middleware.JwtProtected(cfg.Jwt)
	app.Get("/offers", protected, ListOffers(offerSvc))
	app.Post("/offers", protected, CreateOffer(offerSvc))
	app.Get("/offers/:id", protected, GetOffer(offerSvc))
	app.Put("/offers/:id", protected, UpdateOffer(offerSvc))
	app.Post("/offers/:id/image", protected, UploadImage(offerSvc))
	app.Get("/me/offers", protected, ListMyOffers(offerSvc))
}

func ListOffers(offerSvc *offersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		items, err := offerSvc.ListActiveOffers(c.Context(), userID)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Offers", items)
	}
}

func CreateOffer(offerSvc *offersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		input, err := common.BindAndValidate[CreateInput](c)
		if input == nil {
			return err
		}
		created, err := offerSvc.CreateOffer(c.Context(), userID, offersvc.CreateInput{
			Title:       input.Title,
			Description: input.Description,
			Price:       input.Price,
		})
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Offer created", created)
	}
}

func GetOffer(offerSvc *offersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		offerID, err := common.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		detail, err := offerSvc.GetOffer(c.Context(), offerID, userID)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Offer", detail)
	}
}

func UpdateOffer(offerSvc *offersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		offerID, err := common.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		input, err := common.BindAndValidate[UpdateInput](c)
		if input == nil {
			return err
		}
		updated, err := offerSvc.UpdateOffer(c.Context(), offerID, userID, &dto.OfferUpdate{
			Title:       input.Title,
			Description: input.Description,
			Price:       input.Price,
			Active:      input.Active,
		})
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Offer updated", updated)
	}
}

func UploadImage(offerSvc *offersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		offerID, err := common.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		header, err := c.FormFile("file")
		if err != nil {
			return common.ErrorResponseJSON(
				c, fiber.StatusBadRequest, "Missing file", "multipart field 'file' is required")
		}
		file, err := header.Open()
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Unreadable file", err.Error())
		}
		defer file.Close() //nolint:errcheck

		contentType := header.Header.Get(fiber.HeaderContentType)
		if err := offerSvc.UploadImage(c.Context(), offerID, userID, file, contentType); err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Image uploaded", nil)
	}
}

func ListMyOffers(offerSvc *offersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		items, err := offerSvc.ListMyOffers(c.Context(), userID)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "My offers", items)
	}
}
