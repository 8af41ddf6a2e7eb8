// Package gate decides whether an entered access code opens the hidden area,
// and records every attempt and every resulting session.
package gate

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mathhub-edu/mathhub/internal/effects"
	"github.com/mathhub-edu/mathhub/remote"
	"github.com/mathhub-edu/mathhub/storage/model"
)

// User visible outcome messages
const (
	MessageAdminGranted = "Admin access granted."
	MessageUserGranted  = "Access granted!"
	MessageInvalidCode  = "Invalid access code. Try again."
)

// DefaultTimeLayout renders timestamps like the en-US locale does
const DefaultTimeLayout = "1/2/2006, 3:04:05 PM"

// Built-in defaults; both can be replaced through Config.
var (
	DefaultBuiltinCodes = []string{"talon2024", "mathgamer", "unblockedftw", "letmein99", "gamer123"}
	DefaultAdminCode    = "admintalon"
)

// Default caps for the durable logs
const (
	DefaultMaxAttempts = 500
	DefaultMaxSessions = 200
)

// ConfigSource serves the shared configuration
type ConfigSource interface {
	Configured() bool
	GetConfig(ctx context.Context) (*remote.Config, error)
}

// Reporter receives attempt and session logs
type Reporter interface {
	Configured() bool
	LogAttempt(ctx context.Context, a remote.AttemptLog) error
	LogSession(ctx context.Context, s remote.SessionLog) error
}

// Effects runs best-effort side effects
type Effects interface {
	Submit(name string, task effects.Task)
}

// ClientInfo describes the browser behind a BrowserSession
type ClientInfo struct {
	IP        string
	UserAgent string
}

// BrowserSession is the state tied to one browser session: a session-scoped
// store, cleared when the session ends, and facts about the client.
type BrowserSession struct {
	ID     string
	Store  model.KeyValueStore
	Client ClientInfo
}

// Result is the outcome of AttemptLogin
type Result struct {
	Success bool   `json:"success"`
	IsAdmin bool   `json:"isAdmin"`
	Message string `json:"message"`
}

// Config configures a Gate
type Config struct {
	BuiltinCodes     []string
	DefaultAdminCode string
	MaxAttempts      int
	MaxSessions      int
	// TimeLayout formats attempt and session timestamps
	TimeLayout string
	// SyncTimeout bounds the sync done before every login; 0 waits as long
	// as the endpoint takes
	SyncTimeout time.Duration
	// Now replaces time.Now, for tests
	Now func() time.Time
}

// Deps are the optional collaborators of a Gate; every nil dependency
// disables the corresponding remote behavior.
type Deps struct {
	Source   ConfigSource
	Reporter Reporter
	IPLookup *remote.IPLookup
	GeoIP    *remote.GeoIP
	Effects  Effects
}

// Gate ties together the code store, the config sync and the loggers
type Gate struct {
	Codes    *CodeStore
	Syncer   *Syncer
	Attempts *AttemptLogger
	Sessions *SessionRecorder

	effects     Effects
	syncTimeout time.Duration
	clock
}

type clock struct {
	now    func() time.Time
	layout string
}

func (c clock) timestamp() string {
	return c.now().Format(c.layout)
}

// New creates a Gate persisting to durable
func New(durable model.KeyValueStore, conf Config, deps Deps) *Gate {
	if conf.BuiltinCodes == nil {
		conf.BuiltinCodes = DefaultBuiltinCodes
	}
	if conf.DefaultAdminCode == "" {
		conf.DefaultAdminCode = DefaultAdminCode
	}
	if conf.MaxAttempts <= 0 {
		conf.MaxAttempts = DefaultMaxAttempts
	}
	if conf.MaxSessions <= 0 {
		conf.MaxSessions = DefaultMaxSessions
	}
	if conf.TimeLayout == "" {
		conf.TimeLayout = DefaultTimeLayout
	}
	if conf.Now == nil {
		conf.Now = time.Now
	}
	c := clock{
		now:    conf.Now,
		layout: conf.TimeLayout,
	}
	return &Gate{
		Codes:  NewCodeStore(durable, conf.BuiltinCodes, conf.DefaultAdminCode),
		Syncer: NewSyncer(deps.Source),
		Attempts: newAttemptLogger(durable, conf.MaxAttempts, deps),
		Sessions: newSessionRecorder(
			durable, conf.MaxSessions, deps.Reporter, deps.Effects, c,
		),
		effects:     deps.Effects,
		syncTimeout: conf.SyncTimeout,
		clock:       c,
	}
}

func codesMatch(candidate, entered string) bool {
	return candidate == entered || strings.ToLower(candidate) == strings.ToLower(entered)
}

// AttemptLogin checks code after a fresh config sync and records the
// attempt. Any string is a valid code to compare; nothing is rate limited.
func (g *Gate) AttemptLogin(ctx context.Context, bs *BrowserSession, username, code string) Result {
	syncCtx, cancel := g.syncContext(ctx)
	g.Syncer.Sync(syncCtx, bs)
	cancel()

	var client ClientInfo
	if bs != nil {
		client = bs.Client
	}
	res := g.Classify(bs, code)
	attempt := model.LoginAttempt{
		Username:  username,
		Code:      code,
		Timestamp: g.timestamp(),
		Success:   res.Success,
		IsAdmin:   res.IsAdmin,
		IP:        client.IP,
		UserAgent: truncate(client.UserAgent, userAgentAttemptLen),
	}
	if res.IsAdmin {
		attempt.Code = model.MaskedAdminCode
	}

	g.Attempts.Record(attempt)
	if res.Success {
		g.Sessions.RecordSession(bs, username, res.IsAdmin)
		saveAuth(
			bs, AuthState{
				Authenticated: true,
				IsAdmin:       res.IsAdmin,
				CurrentUser:   username,
			},
		)
	}
	log.WithFields(
		log.Fields{
			"user":    username,
			"success": res.Success,
			"admin":   res.IsAdmin,
		},
	).Info("gate check")
	return res
}

func (g *Gate) syncContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.syncTimeout > 0 {
		return context.WithTimeout(ctx, g.syncTimeout)
	}
	return ctx, func() {}
}

// CurrentAdminCode resolves the admin code for callers without a browser
// session. It refreshes the remote configuration first; if that fails the
// last remote admin code seen by this gate still wins over the local
// override and the default.
func (g *Gate) CurrentAdminCode(ctx context.Context) string {
	syncCtx, cancel := g.syncContext(ctx)
	g.Syncer.Refresh(syncCtx)
	cancel()
	return g.ActiveAdminCode()
}

// ActiveAdminCode is CurrentAdminCode without the refresh
func (g *Gate) ActiveAdminCode() string {
	if c := g.Syncer.LastAdminCode(); c != "" {
		return c
	}
	return g.Codes.AdminCode(nil)
}

// Classify checks code against the codes known to bs without syncing or
// recording anything. The admin code is checked first.
func (g *Gate) Classify(bs *BrowserSession, code string) Result {
	switch {
	case codesMatch(g.Codes.AdminCode(bs), code):
		return Result{Success: true, IsAdmin: true, Message: MessageAdminGranted}
	case g.matchesUserCode(bs, code):
		return Result{Success: true, Message: MessageUserGranted}
	default:
		return Result{Message: MessageInvalidCode}
	}
}

func (g *Gate) matchesUserCode(bs *BrowserSession, code string) bool {
	for _, c := range g.Codes.UserCodes(bs) {
		if codesMatch(c, code) {
			return true
		}
	}
	return false
}

// SyncInBackground refreshes the cached shared configuration of bs without
// waiting for it.
func (g *Gate) SyncInBackground(bs *BrowserSession) {
	if g.effects == nil || !g.Syncer.Enabled() {
		return
	}
	g.effects.Submit(
		"config-sync", func(ctx context.Context) error {
			g.Syncer.Sync(ctx, bs)
			return nil
		},
	)
}

// Auth returns the AuthState of bs
func (*Gate) Auth(bs *BrowserSession) AuthState {
	return LoadAuth(bs)
}

// Logout forgets the AuthState of bs
func (*Gate) Logout(bs *BrowserSession) {
	Logout(bs)
}
