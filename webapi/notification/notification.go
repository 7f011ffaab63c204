// Package notification exposes the badge counter endpoint.
package notification

import (
	"github.com/amirasaad/marketplace/config"
	"github.com/amirasaad/marketplace/pkg/middleware"
	notificationsvc "github.com/amirasaad/marketplace/pkg/service/notification"
	"github.com/amirasaad/marketplace/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the notification endpoints.
func Routes(app *fiber.App, notificationSvc *notificationsvc.Service, cfg *config.AppConfig) {
	app.Get("/notifications/badges", middleware.JwtProtected(cfg.Jwt), GetBadges(notificationSvc))
}

func GetBadges(notificationSvc *notificationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		counts, err := notificationSvc.GetBadgeCounts(c.Context(), userID)
		if err != nil {
			return common.DomainErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Badges", counts)
	}
}
