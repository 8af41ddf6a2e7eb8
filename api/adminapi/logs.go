package adminapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/internal/apierror"
	"github.com/mathhub-edu/mathhub/storage/model"
)

// registerLogs wires the attempt log handlers
func registerLogs(r fiber.Router, attempts *gate.AttemptLogger) {
	g := r.Group("/logs")

	// GET /logs?success=true|false&limit=n returns the newest entries first
	g.Get(
		"/", func(c *fiber.Ctx) error {
			var filter *bool
			if s := c.Query("success"); s != "" {
				b, err := strconv.ParseBool(s)
				if err != nil {
					return c.Status(fiber.StatusBadRequest).JSON(apierror.InvalidRequest("success must be a boolean"))
				}
				filter = &b
			}
			limit := c.QueryInt("limit", 0)
			if limit < 0 {
				return c.Status(fiber.StatusBadRequest).JSON(apierror.InvalidRequest("limit must not be negative"))
			}
			all := attempts.List()
			items := make([]model.LoginAttempt, 0, len(all))
			for i := len(all) - 1; i >= 0; i-- {
				if filter != nil && all[i].Success != *filter {
					continue
				}
				items = append(items, all[i])
				if limit > 0 && len(items) == limit {
					break
				}
			}
			return c.JSON(items)
		},
	)

	g.Delete(
		"/", func(c *fiber.Ctx) error {
			if err := attempts.Clear(); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apierror.ServerError(err.Error()))
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
