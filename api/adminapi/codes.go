package adminapi

import (
	"errors"
	"net/url"

	go2 "github.com/adam-hanna/arrayOperations"
	"github.com/gofiber/fiber/v2"

	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/internal/apierror"
	"github.com/mathhub-edu/mathhub/storage/model"
)

type codesResponse struct {
	Builtin []string `json:"builtin"`
	Local   []string `json:"local"`
	Cloud   []string `json:"cloud"`
	// Shared are the local codes the remote configuration serves as well
	Shared []string `json:"shared"`
	All    []string `json:"all"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type codeRequest struct {
	Code string `json:"code" form:"code"`
}

// registerCodes wires the custom code handlers
func registerCodes(r fiber.Router, codes *gate.CodeStore, sessions SessionResolver) {
	g := r.Group("/codes")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			var bs *gate.BrowserSession
			if sessions != nil {
				bs = sessions(c)
			}
			local := codes.LocalCodes()
			cloud := codes.CloudCodes(bs)
			return c.JSON(
				codesResponse{
					Builtin: nonNil(codes.BuiltinCodes()),
					Local:   nonNil(local),
					Cloud:   nonNil(cloud),
					Shared:  nonNil(go2.Intersect(local, cloud)),
					All:     nonNil(codes.UserCodes(bs)),
				},
			)
		},
	)

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req codeRequest
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apierror.InvalidRequest("invalid body"))
			}
			if req.Code == "" {
				return c.Status(fiber.StatusBadRequest).JSON(apierror.InvalidRequest("code is required"))
			}
			if err := codes.AddCode(req.Code); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apierror.ServerError(err.Error()))
			}
			return c.Status(fiber.StatusCreated).JSON(nonNil(codes.LocalCodes()))
		},
	)

	g.Delete(
		"/:code", func(c *fiber.Ctx) error {
			code, err := url.PathUnescape(c.Params("code"))
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apierror.InvalidRequest("invalid code"))
			}
			if err = codes.RemoveCode(code); err != nil {
				var notFound model.NotFoundError
				if errors.As(err, &notFound) {
					return c.Status(fiber.StatusNotFound).JSON(apierror.NotFound(err.Error()))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(apierror.ServerError(err.Error()))
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
