package mathhub

import (
	"sync"
	"time"

	"github.com/TwiN/gocache/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/trigger"
	"github.com/mathhub-edu/mathhub/view"
)

const (
	defaultCookieName = "mh_sid"
	defaultVisitorTTL = 2 * time.Hour
)

// visitor is the page state of one browser session. It lives as long as the
// browser keeps the page open and is not persisted.
type visitor struct {
	router   *view.Router
	clicks   *trigger.ClickCounter
	sequence *trigger.Sequence
}

type visitorRegistry struct {
	cache    *gocache.Cache
	ttl      time.Duration
	newState func() *visitor
	mu       sync.Mutex
}

func newVisitorRegistry(ttl time.Duration, newState func() *visitor) *visitorRegistry {
	if ttl <= 0 {
		ttl = defaultVisitorTTL
	}
	c := gocache.NewCache().WithMaxSize(gocache.NoMaxSize)
	if err := c.StartJanitor(); err != nil {
		log.WithError(err).Debug("visitor janitor already running")
	}
	return &visitorRegistry{
		cache:    c,
		ttl:      ttl,
		newState: newState,
	}
}

// get returns the visitor for sid, creating it if needed; every access
// extends its lifetime.
func (r *visitorRegistry) get(sid string) *visitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.cache.Get(sid)
	st, _ := v.(*visitor)
	if !ok || st == nil {
		st = r.newState()
	}
	r.cache.SetWithTTL(sid, st, r.ttl)
	return st
}

func (r *visitorRegistry) close() {
	r.cache.StopJanitor()
}

// browserSession resolves the browser session of a request from its
// session cookie, starting a new one if there is none. started tells if a
// new session was started.
func (s *Server) browserSession(c *fiber.Ctx) (bs *gate.BrowserSession, started bool) {
	sid := c.Cookies(s.visitorConf.CookieName)
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
		started = true
		c.Cookie(
			&fiber.Cookie{
				Name:     s.visitorConf.CookieName,
				Value:    sid,
				Path:     "/",
				HTTPOnly: true,
				Secure:   s.visitorConf.SecureCookie,
				SameSite: fiber.CookieSameSiteLaxMode,
				// no Expires: the cookie ends with the browser session
			},
		)
	}
	return &gate.BrowserSession{
		ID:    sid,
		Store: s.sessions.Bind(sid),
		Client: gate.ClientInfo{
			IP:        c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		},
	}, started
}

// existingSession resolves the browser session of a request without
// starting a new one.
func (s *Server) existingSession(c *fiber.Ctx) *gate.BrowserSession {
	sid := c.Cookies(s.visitorConf.CookieName)
	if _, err := uuid.Parse(sid); err != nil {
		return nil
	}
	return &gate.BrowserSession{
		ID:    sid,
		Store: s.sessions.Bind(sid),
		Client: gate.ClientInfo{
			IP:        c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		},
	}
}
