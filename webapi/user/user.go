// Package user exposes the profile endpoints.
package user

import (
	"github.com/amirasaad/marketplace/config"
	"github.com/amirasaad/marketplace/pkg/middleware"
	usersvc "github.com/amirasaad/marketplace/pkg/service/user"
	"github.com/amirasaad/marketplace/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// UpdateInput is the profile update request body.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// Routes registers the profile endpoints.
func Routes(app *fiber.App, userSvc *usersvc.Service, cfg *config.AppConfig) {
	app.Get("/me", middleware.JwtProtected(cfg.Jwt), GetProfile(userSvc))
	app.Put("/me", middleware.JwtProtected(cfg.Jwt), UpdateProfile(userSvc))
	app.Post("/me/avatar", middleware.JwtProtected(cfg.Jwt), UploadAvatar(userSvc))
}

func GetProfile(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		profile, err := userSvc.GetProfile(c.Context(), userID)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Profile", profile)
	}
}

func UpdateProfile(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		input, err := common.BindAndValidate[UpdateInput](c)
		if input == nil {
			return err
		}
		if err := userSvc.UpdateProfile(c.Context(), userID, input.Name, input.Password); err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Profile updated", nil)
	}
}

func UploadAvatar(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
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
		if err := userSvc.UploadAvatar(c.Context(), userID, file, contentType); err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Avatar updated", nil)
	}
}
