package gate

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/mathhub-edu/mathhub/internal/effects"
	"github.com/mathhub-edu/mathhub/remote"
	"github.com/mathhub-edu/mathhub/storage"
	"github.com/mathhub-edu/mathhub/storage/model"
)

const (
	userAgentAttemptLen = 150
	userAgentDeviceLen  = 80
)

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// submit hands task to eff or, without a queue, runs it detached
func submit(eff Effects, name string, task effects.Task) {
	if eff != nil {
		eff.Submit(name, task)
		return
	}
	go func() {
		if err := task(context.Background()); err != nil {
			log.WithError(err).WithField("effect", name).Debug("side effect failed")
		}
	}()
}

// AttemptLogger keeps the capped, insertion ordered log of all gate checks
// in the durable store and reports every attempt to the remote endpoint.
// Every write re-reads the stored log, so changes made by other processes
// on the same store are kept.
type AttemptLogger struct {
	durable  model.KeyValueStore
	max      int
	reporter Reporter
	lookup   *remote.IPLookup
	geo      *remote.GeoIP
	effects  Effects

	mu sync.Mutex
}

func newAttemptLogger(durable model.KeyValueStore, max int, deps Deps) *AttemptLogger {
	return &AttemptLogger{
		durable:  durable,
		max:      max,
		reporter: deps.Reporter,
		lookup:   deps.IPLookup,
		geo:      deps.GeoIP,
		effects:  deps.Effects,
	}
}

func (l *AttemptLogger) load() []model.LoginAttempt {
	var attempts []model.LoginAttempt
	if _, err := storage.GetAs(
		l.durable, model.KeyValueScopeLogs, model.KeyValueKeyAttempts, &attempts,
	); err != nil {
		log.WithError(err).Debug("ignoring unreadable attempt log")
		return nil
	}
	return attempts
}

func capTail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return append([]T(nil), s[len(s)-n:]...)
}

// Record appends a to the log, evicting the oldest entries beyond the cap,
// and reports it to the remote endpoint. Record never fails; storage errors
// are only logged.
func (l *AttemptLogger) Record(a model.LoginAttempt) {
	if a.Country == "" {
		a.Country = l.geo.Country(a.IP)
	}
	l.mu.Lock()
	attempts := capTail(append(l.load(), a), l.max)
	err := storage.SetAny(l.durable, model.KeyValueScopeLogs, model.KeyValueKeyAttempts, attempts)
	l.mu.Unlock()
	if err != nil {
		log.WithError(err).Warn("could not persist attempt log")
	}
	l.report(a)
}

func (l *AttemptLogger) report(a model.LoginAttempt) {
	if l.reporter == nil || !l.reporter.Configured() {
		return
	}
	submit(
		l.effects, "log-attempt", func(ctx context.Context) error {
			return l.reporter.LogAttempt(
				ctx, remote.AttemptLog{
					Username:  a.Username,
					Code:      a.Code,
					Status:    a.Status(),
					Timestamp: a.Timestamp,
					IP:        remote.ClientIP(ctx, a.IP, l.lookup),
					UserAgent: a.UserAgent,
				},
			)
		},
	)
}

// List returns the logged attempts, oldest first
func (l *AttemptLogger) List() []model.LoginAttempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// Clear empties the log in the durable store
func (l *AttemptLogger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.durable.Delete(model.KeyValueScopeLogs, model.KeyValueKeyAttempts)
}
