package mathhub

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/internal/apierror"
	"github.com/mathhub-edu/mathhub/trigger"
	"github.com/mathhub-edu/mathhub/view"
)

const secretPagePath = "/secret.html"

type stateResponse struct {
	View       view.View `json:"view"`
	Renderable bool      `json:"renderable"`
	// Changed tells if the request moved the visitor to another view
	Changed bool           `json:"changed"`
	Auth    gate.AuthState `json:"auth"`
}

type triggerResponse struct {
	stateResponse
	Fired bool `json:"fired"`
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Code     string `json:"code" form:"code"`
}

type loginResponse struct {
	gate.Result
	stateResponse
}

type standaloneResponse struct {
	Matched  bool   `json:"matched"`
	Location string `json:"location,omitempty"`
}

// visit resolves the browser session and page state of a request. The first
// request of a browser session refreshes the cached remote configuration in
// the background.
func (s *Server) visit(c *fiber.Ctx) (*gate.BrowserSession, *visitor) {
	bs, started := s.browserSession(c)
	if started {
		s.gate.SyncInBackground(bs)
	}
	return bs, s.visitors.get(bs.ID)
}

func (s *Server) state(bs *gate.BrowserSession, v *visitor, changed bool) stateResponse {
	auth := s.gate.Auth(bs)
	current := v.router.Current()
	return stateResponse{
		View:       current,
		Renderable: view.Renderable(current, auth),
		Changed:    changed,
		Auth:       auth,
	}
}

func (s *Server) registerAPI() {
	api := s.server.Group("/api")

	api.Get(
		"/state", func(c *fiber.Ctx) error {
			bs, v := s.visit(c)
			return c.JSON(s.state(bs, v, false))
		},
	)

	secret := api.Group("/secret")
	secret.Post(
		"/click", func(c *fiber.Ctx) error {
			bs, v := s.visit(c)
			fired := v.clicks.RegisterClick(time.Now())
			changed := false
			if fired {
				_, changed = v.router.Trigger(s.gate.Auth(bs))
			}
			return c.JSON(triggerResponse{stateResponse: s.state(bs, v, changed), Fired: fired})
		},
	)
	secret.Post(
		"/key", func(c *fiber.Ctx) error {
			var e trigger.KeyEvent
			if err := c.BodyParser(&e); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apierror.InvalidRequest("invalid key event"))
			}
			bs, v := s.visit(c)
			fired := s.chord.Matches(e)
			changed := false
			if fired {
				_, changed = v.router.Trigger(s.gate.Auth(bs))
			}
			return c.JSON(triggerResponse{stateResponse: s.state(bs, v, changed), Fired: fired})
		},
	)

	api.Post(
		"/login", func(c *fiber.Ctx) error {
			var req loginRequest
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apierror.InvalidRequest("invalid body"))
			}
			bs, v := s.visit(c)
			res := s.gate.AttemptLogin(c.UserContext(), bs, strings.TrimSpace(req.Username), req.Code)
			changed := false
			if res.Success {
				_, changed = v.router.LoginSucceeded(res.IsAdmin)
			}
			return c.JSON(loginResponse{Result: res, stateResponse: s.state(bs, v, changed)})
		},
	)

	nav := api.Group("/nav")
	nav.Post(
		"/back", func(c *fiber.Ctx) error {
			bs, v := s.visit(c)
			_, changed := v.router.Back()
			return c.JSON(s.state(bs, v, changed))
		},
	)
	nav.Post(
		"/admin", func(c *fiber.Ctx) error {
			bs, v := s.visit(c)
			_, changed := v.router.OpenAdmin(s.gate.Auth(bs))
			return c.JSON(s.state(bs, v, changed))
		},
	)

	api.Post(
		"/logout", func(c *fiber.Ctx) error {
			bs, v := s.visit(c)
			s.gate.Logout(bs)
			_, changed := v.router.Logout()
			return c.JSON(s.state(bs, v, changed))
		},
	)

	api.Post(
		"/standalone/key", func(c *fiber.Ctx) error {
			var e trigger.KeyEvent
			if err := c.BodyParser(&e); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apierror.InvalidRequest("invalid key event"))
			}
			// the standalone page neither logs nor syncs anything
			bs, _ := s.browserSession(c)
			v := s.visitors.get(bs.ID)
			if v.sequence.Press(e.Key) {
				return c.JSON(standaloneResponse{Matched: true, Location: secretPagePath})
			}
			return c.JSON(standaloneResponse{})
		},
	)
}
