package race

import (
	"errors"

	"github.com/iwatkot/fatracingbot/internal/registry"
	"github.com/iwatkot/fatracingbot/internal/route"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, ctrl *Controller, riderAuth fiber.Handler, adminAuth fiber.Handler) {
	r.Post("/location", riderAuth, func(c *fiber.Ctx) error {
		var req Fix
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		telegramID, ok := c.Locals("telegram_id").(int64)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing rider identity")
		}

		accepted := ctrl.Ingest(c.Context(), telegramID, req)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"ongoing": accepted})
	})

	r.Post("/race/start", adminAuth, func(c *fiber.Ctx) error {
		var session Session
		var err error

		if code := c.Query("code"); code != "" {
			session, err = ctrl.StartByCode(c.Context(), code)
		} else {
			session, err = ctrl.Start(c.Context())
		}

		switch {
		case err == nil:
			return c.Status(fiber.StatusCreated).JSON(session)
		case errors.Is(err, ErrRaceOngoing):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case errors.Is(err, registry.ErrNotFound), errors.Is(err, route.ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		default:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	})

	r.Post("/race/stop", adminAuth, func(c *fiber.Ctx) error {
		if err := ctrl.Stop(c.Context()); err != nil {
			if errors.Is(err, ErrNoActiveRace) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"stopped": true})
	})

	r.Post("/race/finish", adminAuth, func(c *fiber.Ctx) error {
		var req struct {
			Bib int `json:"bib"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Bib <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "bib required")
		}

		if err := ctrl.RecordFinish(c.Context(), req.Bib); err != nil {
			if errors.Is(err, ErrNoActiveRace) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"bib": req.Bib, "finished": true})
	})

	r.Get("/race", func(c *fiber.Ctx) error {
		session, ok := ctrl.Current()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no active race")
		}
		return c.JSON(session)
	})
}
