// Package mathhub serves the math resources site and its hidden gate
package mathhub

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mathhub-edu/mathhub/api/adminapi"
	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/storage/model"
	"github.com/mathhub-edu/mathhub/trigger"
	"github.com/mathhub-edu/mathhub/view"
)

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
}

// Options are the optional settings of a Server
type Options struct {
	Trigger  TriggerConf
	Visitors VisitorConf
	// AccessLogConfig replaces the default request log format
	AccessLogConfig *logger.Config
	// AdminAPI mounts the admin api under /api/v1/admin
	AdminAPI bool
}

// Server serves the site
type Server struct {
	server      *fiber.App
	serverConf  ServerConf
	visitorConf VisitorConf
	gate        *gate.Gate
	sessions    model.SessionBackend
	visitors    *visitorRegistry
	chord       trigger.Chord
	pages       *pages
}

// NewServer creates a new Server
func NewServer(serverConf ServerConf, g *gate.Gate, sessions model.SessionBackend, opts Options) (*Server, error) {
	if opts.Trigger.Chord == "" {
		opts.Trigger.Chord = trigger.DefaultChord
	}
	if opts.Trigger.StandaloneCode == "" {
		opts.Trigger.StandaloneCode = trigger.DefaultSequenceCode
	}
	if opts.Visitors.CookieName == "" {
		opts.Visitors.CookieName = defaultCookieName
	}
	chord, err := trigger.ParseChord(opts.Trigger.Chord)
	if err != nil {
		return nil, err
	}
	if _, err = trigger.NewSequence(opts.Trigger.StandaloneCode); err != nil {
		return nil, err
	}
	p, err := loadPages()
	if err != nil {
		return nil, err
	}

	fiberConf := FiberServerConfig
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		fiberConf.TrustedProxies = serverConf.TrustedProxies
		fiberConf.EnableTrustedProxyCheck = true
	}
	fiberConf.ProxyHeader = serverConf.ForwardedIPHeader
	server := fiber.New(fiberConf)
	server.Use(recover.New())
	server.Use(compress.New())
	if opts.AccessLogConfig != nil {
		server.Use(logger.New(*opts.AccessLogConfig))
	} else {
		server.Use(logger.New())
	}
	server.Use(requestid.New())

	s := &Server{
		server:      server,
		serverConf:  serverConf,
		visitorConf: opts.Visitors,
		gate:        g,
		sessions:    sessions,
		chord:       chord,
		pages:       p,
	}
	tc := opts.Trigger
	s.visitors = newVisitorRegistry(
		opts.Visitors.IdleTTL, func() *visitor {
			seq, _ := trigger.NewSequence(tc.StandaloneCode)
			return &visitor{
				router:   view.NewRouter(),
				clicks:   trigger.NewClickCounter(tc.ClickThreshold, tc.ClickWindow),
				sequence: seq,
			}
		},
	)

	s.registerPages()
	s.registerAPI()
	if opts.AdminAPI {
		if err = adminapi.Register(
			server.Group("/api/v1/admin"), serverConf.ExternalURL, g, &adminapi.Options{
				Sessions: s.existingSession,
			},
		); err != nil {
			return nil, errors.Wrap(err, "could not register admin api")
		}
	}
	return s, nil
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (s *Server) Listen(addr string) error {
	return s.server.Listen(addr)
}

// Shutdown stops the server and drops the visitor state
func (s *Server) Shutdown() error {
	s.visitors.close()
	return s.server.Shutdown()
}

// Start starts the server as configured and blocks
func (s *Server) Start() {
	conf := s.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(s.Listen(fmt.Sprintf("%s:%d", conf.IPListen, conf.Port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(fmt.Sprintf("%s:80", conf.IPListen))).Fatal()
		}()
	}
	time.Sleep(time.Millisecond) // This is just for a more pretty output with the tls header printed after the http one
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(s.server.ListenTLS(fmt.Sprintf("%s:443", conf.IPListen), conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
