package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mathhub-edu/mathhub"
	"github.com/mathhub-edu/mathhub/cmd/mathhub/config"
	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/internal/effects"
	"github.com/mathhub-edu/mathhub/internal/logger"
	"github.com/mathhub-edu/mathhub/internal/version"
	"github.com/mathhub-edu/mathhub/remote"
)

func loggerConf(c *config.Config) logger.Conf {
	lc := logger.Conf{
		Access: logger.Output{
			Dir:    c.Logging.Access.Dir,
			StdErr: c.Logging.Access.StdErr,
		},
		Internal: logger.Output{
			Dir:    c.Logging.Internal.Dir,
			StdErr: c.Logging.Internal.StdErr,
		},
		Level: c.Logging.Internal.Level,
	}
	if c.Logging.Internal.Smart.Enabled {
		lc.SmartDir = c.Logging.Internal.Smart.Dir
	}
	return lc
}

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	c := config.Get()
	lc := loggerConf(c)
	if err := logger.Init(lc); err != nil {
		log.WithError(err).Fatal("could not init logger")
	}
	log.WithField("version", version.VERSION).Info("Loaded Config")

	backs, err := config.LoadStorageBackends(c)
	if err != nil {
		log.Fatal(err)
	}

	queue := effects.New(
		effects.Config{
			Workers:   c.Effects.Workers,
			QueueSize: c.Effects.QueueSize,
			Timeout:   c.Effects.Timeout.Duration(),
		},
	)

	// the sync before every login is bounded by its context only
	source := remote.NewClient(c.Remote.ScriptURL)
	reporter := remote.NewClient(c.Remote.ScriptURL, remote.WithTimeout(c.Remote.LogTimeout.Duration()))
	if source.Configured() {
		log.Info("Remote script endpoint configured")
	}
	var geo *remote.GeoIP
	if c.Remote.GeoIPDB != "" {
		if geo, err = remote.OpenGeoIP(c.Remote.GeoIPDB); err != nil {
			log.WithError(err).Fatal("could not load geoip database")
		}
	}

	g := gate.New(
		backs.Durable, gate.Config{
			BuiltinCodes:     c.Gate.BuiltinCodes,
			DefaultAdminCode: c.Gate.AdminCode,
			MaxAttempts:      c.Gate.MaxAttempts,
			MaxSessions:      c.Gate.MaxSessions,
			TimeLayout:       c.Gate.TimeLayout,
			SyncTimeout:      c.Remote.SyncTimeout.Duration(),
		}, gate.Deps{
			Source:   source,
			Reporter: reporter,
			IPLookup: remote.NewIPLookup(c.Remote.IPLookupURL, remote.WithTimeout(c.Remote.LogTimeout.Duration())),
			GeoIP:    geo,
			Effects:  queue,
		},
	)
	log.Info("Initialized Gate")

	accessLog, err := logger.AccessLogConfig(lc)
	if err != nil {
		log.WithError(err).Fatal("could not open access log")
	}
	server, err := mathhub.NewServer(
		c.Server, g, backs.Sessions, mathhub.Options{
			Trigger: mathhub.TriggerConf{
				ClickThreshold: c.Trigger.ClickThreshold,
				ClickWindow:    c.Trigger.ClickWindow.Duration(),
				Chord:          c.Trigger.Chord,
				StandaloneCode: c.Trigger.StandaloneCode,
			},
			Visitors: mathhub.VisitorConf{
				CookieName:   c.Sessions.CookieName,
				IdleTTL:      c.Sessions.VisitorIdle.Duration(),
				SecureCookie: c.Sessions.SecureCookie,
			},
			AccessLogConfig: accessLog,
			AdminAPI:        c.API.Admin.Enabled,
		},
	)
	if err != nil {
		log.Fatal(err)
	}
	log.Info("Added Endpoints")

	go server.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("Shutting down")
	if err = server.Shutdown(); err != nil {
		log.WithError(err).Warn("server shutdown failed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = queue.Close(ctx); err != nil {
		log.WithError(err).Warn("effects queue did not drain")
	}
	_ = geo.Close()
	if err = backs.Close(); err != nil {
		log.WithError(err).Warn("could not close storage")
	}
}
