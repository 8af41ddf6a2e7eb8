package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/internal/apierror"
)

type adminCodeResponse struct {
	Override string `json:"override,omitempty"`
	Active   string `json:"active"`
}

// registerAdminCode wires the admin code override handlers
func registerAdminCode(r fiber.Router, mh *gate.Gate) {
	codes := mh.Codes
	g := r.Group("/admin-code")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			return c.JSON(
				adminCodeResponse{
					Override: codes.AdminOverride(),
					Active:   mh.ActiveAdminCode(),
				},
			)
		},
	)

	g.Put(
		"/", func(c *fiber.Ctx) error {
			var req codeRequest
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apierror.InvalidRequest("invalid body"))
			}
			if req.Code == "" {
				return c.Status(fiber.StatusBadRequest).JSON(apierror.InvalidRequest("code is required"))
			}
			if err := codes.SetAdminOverride(req.Code); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apierror.ServerError(err.Error()))
			}
			return c.JSON(
				adminCodeResponse{
					Override: req.Code,
					Active:   mh.ActiveAdminCode(),
				},
			)
		},
	)

	g.Delete(
		"/", func(c *fiber.Ctx) error {
			if err := codes.ClearAdminOverride(); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apierror.ServerError(err.Error()))
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
