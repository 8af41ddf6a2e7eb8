package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/storage/model"
)

// registerSessions wires the session list handler
func registerSessions(r fiber.Router, sessions *gate.SessionRecorder) {
	r.Get(
		"/sessions", func(c *fiber.Ctx) error {
			list := sessions.List()
			if list == nil {
				list = []model.Session{}
			}
			return c.JSON(list)
		},
	)
}
