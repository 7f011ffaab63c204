// Package auth exposes the registration and login endpoints.
package auth

import (
	authsvc "github.com/amirasaad/marketplace/pkg/service/auth"
	usersvc "github.com/amirasaad/marketplace/pkg/service/user"
	"github.com/amirasaad/marketplace/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the public auth endpoints.
func Routes(app *fiber.App, authSvc *authsvc.Service, userSvc *usersvc.Service) {
	app.Post("/auth/register", Register(authSvc, userSvc))
	app.Post("/auth/login", Login(authSvc))
}

// Register creates an account and returns a token for it.
func Register(authSvc *authsvc.Service, userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[RegisterInput](c)
		if input == nil {
			return err
		}
		profile, err := userSvc.Register(c.Context(), input.Email, input.Name, input.Password)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		token, err := authSvc.IssueToken(profile.ID)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Account created", fiber.Map{
			"token": token,
			"user":  profile,
		})
	}
}

// Login authenticates credentials and returns a token.
func Login(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[LoginInput](c)
		if input == nil {
			return err
		}
		token, err := authSvc.Login(c.Context(), input.Email, input.Password)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Success login", fiber.Map{
			"token": token,
		})
	}
}
