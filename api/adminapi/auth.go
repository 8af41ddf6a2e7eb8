package adminapi

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/internal/apierror"
)

// authMiddleware only lets admins through. A request is from an admin if
// its browser session logged in with the admin code, or if it carries
// HTTP Basic credentials whose password is the admin code currently in
// force, the remote one included.
func authMiddleware(g *gate.Gate, sessions SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sessions != nil {
			if bs := sessions(c); bs != nil && gate.LoadAuth(bs).IsAdmin {
				return c.Next()
			}
		}
		_, password, ok := parseBasicAuth(c)
		if !ok {
			c.Set("WWW-Authenticate", "Basic realm=admin")
			return c.Status(fiber.StatusUnauthorized).JSON(apierror.Unauthorized("missing credentials"))
		}
		if !strings.EqualFold(password, g.CurrentAdminCode(c.UserContext())) {
			c.Set("WWW-Authenticate", "Basic realm=admin")
			return c.Status(fiber.StatusUnauthorized).JSON(apierror.Unauthorized("invalid credentials"))
		}
		return c.Next()
	}
}

// parseBasicAuth extracts Basic auth credentials from request headers
func parseBasicAuth(c *fiber.Ctx) (username, password string, ok bool) {
	auth := string(c.Request().Header.Peek("Authorization"))
	if auth == "" {
		return "", "", false
	}
	const prefix = "Basic "
	if !strings.HasPrefix(auth, prefix) {
		return "", "", false
	}
	b, err := base64.StdEncoding.DecodeString(auth[len(prefix):])
	if err != nil {
		return "", "", false
	}
	creds := string(b)
	i := strings.IndexByte(creds, ':')
	if i < 0 {
		return "", "", false
	}
	return creds[:i], creds[i+1:], true
}
