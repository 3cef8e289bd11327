package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const riderTokenTTL = 24 * time.Hour

// RegisterRoutes exposes token issuance for the location-sharing flow.
// The registration bot calls it when a participant turns on live
// tracking and relays the token to the rider's device.
func RegisterRoutes(r fiber.Router, secret string, adminAuth fiber.Handler) {
	r.Post("/auth/token", adminAuth, func(c *fiber.Ctx) error {
		var req struct {
			TelegramID int64 `json:"telegram_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.TelegramID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "telegram_id required")
		}

		token, err := GenerateToken(secret, req.TelegramID, riderTokenTTL)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"token": token})
	})
}
