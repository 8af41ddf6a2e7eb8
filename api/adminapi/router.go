package adminapi

import (
	"embed"
	"net"
	neturl "net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mathhub-edu/mathhub/gate"
)

//go:embed swagger.html openapi.yaml
var assets embed.FS

// SessionResolver returns the browser session of a request, or nil if the
// request does not belong to one.
type SessionResolver func(c *fiber.Ctx) *gate.BrowserSession

// Options controls optional features of the admin API registration.
type Options struct {
	// Sessions resolves the browser session of a request; without it only
	// basic auth is accepted.
	Sessions SessionResolver
	// Port, when > 0, is used to adapt the serverURL to the admin API port for docs.
	Port int
}

// Register mounts all admin API routes under the provided group.
func Register(r fiber.Router, serverURL string, g *gate.Gate, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Port > 0 {
		serverURL = adaptServerURLPort(serverURL, opts.Port)
	}

	openapiRaw, err := assets.ReadFile("openapi.yaml")
	if err != nil {
		return errors.Wrap(err, "adminapi: failed to read openapi.yaml")
	}
	openapiData := updateOpenAPIServers(openapiRaw, serverURL)
	swaggerHTML, err := assets.ReadFile("swagger.html")
	if err != nil {
		return errors.Wrap(err, "adminapi: failed to read swagger.html")
	}

	r.Get(
		"/openapi.yaml", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, "application/yaml")
			return c.Send(openapiData)
		},
	)
	r.Get(
		"/docs", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTML)
			return c.Send(swaggerHTML)
		},
	)

	r.Use(authMiddleware(g, opts.Sessions))

	registerLogs(r, g.Attempts)
	registerSessions(r, g.Sessions)
	registerCodes(r, g.Codes, opts.Sessions)
	registerAdminCode(r, g)
	registerStats(r, g)
	return nil
}

func updateOpenAPIServers(doc []byte, serverURL string) []byte {
	if len(serverURL) == 0 {
		return doc
	}
	var full map[string]any
	if err := yaml.Unmarshal(doc, &full); err != nil {
		return doc
	}
	full["servers"] = []map[string]any{
		{
			"url":         serverURL,
			"description": "This instance",
		},
	}
	res, err := yaml.Marshal(full)
	if err != nil {
		return doc
	}
	return res
}

// adaptServerURLPort updates or adds the port to the provided serverURL.
// If the input is invalid, it returns the original serverURL.
func adaptServerURLPort(serverURL string, port int) string {
	if len(serverURL) == 0 || port <= 0 {
		return serverURL
	}
	u, err := neturl.Parse(serverURL)
	if err != nil {
		return serverURL
	}
	host := u.Host
	if host == "" {
		return serverURL
	}
	name, _, err := net.SplitHostPort(host)
	if err != nil {
		// no port present, just append
		u.Host = net.JoinHostPort(host, strconv.Itoa(port))
		return u.String()
	}
	u.Host = net.JoinHostPort(name, strconv.Itoa(port))
	return u.String()
}
