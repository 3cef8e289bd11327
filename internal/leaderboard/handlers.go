package leaderboard

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, b *Builder) {
	r.Get("/leaderboard", func(c *fiber.Ctx) error {
		return c.JSON(b.Latest())
	})
}
