package mathhub

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mathhub-edu/mathhub/internal/apierror"
)

func handleError(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	var body apierror.Error
	switch {
	case code == fiber.StatusNotFound:
		body = apierror.NotFound(err.Error())
	case code >= 500:
		log.WithError(err).WithField("path", ctx.Path()).Error("request failed")
		body = apierror.ServerError(err.Error())
	default:
		body = apierror.InvalidRequest(err.Error())
	}
	return ctx.Status(code).JSON(body)
}
