package gate

import (
	"context"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mathhub-edu/mathhub/remote"
	"github.com/mathhub-edu/mathhub/storage"
	"github.com/mathhub-edu/mathhub/storage/model"
)

// SessionRecorder keeps the capped list of sessions opened by successful
// logins.
type SessionRecorder struct {
	durable  model.KeyValueStore
	max      int
	reporter Reporter
	effects  Effects
	clock

	mu sync.Mutex
}

func newSessionRecorder(
	durable model.KeyValueStore, max int, reporter Reporter, eff Effects, c clock,
) *SessionRecorder {
	return &SessionRecorder{
		durable:  durable,
		max:      max,
		reporter: reporter,
		effects:  eff,
		clock:    c,
	}
}

// RecordSession appends a new session for username, remembers its id in bs
// and reports it to the remote endpoint.
func (r *SessionRecorder) RecordSession(bs *BrowserSession, username string, isAdmin bool) model.Session {
	s := model.Session{
		ID:        uuid.NewString(),
		Username:  username,
		LoginTime: r.timestamp(),
		IsAdmin:   isAdmin,
		Active:    true,
	}
	if bs != nil {
		s.Device = truncate(bs.Client.UserAgent, userAgentDeviceLen)
	}

	r.mu.Lock()
	sessions := r.List()
	sessions = capTail(append(sessions, s), r.max)
	err := storage.SetAny(r.durable, model.KeyValueScopeSessions, model.KeyValueKeySessionList, sessions)
	r.mu.Unlock()
	if err != nil {
		log.WithError(err).Warn("could not persist session list")
	}
	if store := sessionStore(bs); store != nil {
		if err = storage.SetAny(store, model.SessionScopeAuth, model.SessionKeySessionID, s.ID); err != nil {
			log.WithError(err).Warn("could not store session id")
		}
	}

	if r.reporter != nil && r.reporter.Configured() {
		submit(
			r.effects, "log-session", func(ctx context.Context) error {
				return r.reporter.LogSession(
					ctx, remote.SessionLog{
						SessionID: s.ID,
						Username:  s.Username,
						LoginTime: s.LoginTime,
						Device:    s.Device,
						IsAdmin:   s.IsAdmin,
					},
				)
			},
		)
	}
	return s
}

// List returns the recorded sessions, oldest first. Unreadable data reads as
// an empty list.
func (r *SessionRecorder) List() []model.Session {
	var sessions []model.Session
	if _, err := storage.GetAs(
		r.durable, model.KeyValueScopeSessions, model.KeyValueKeySessionList, &sessions,
	); err != nil {
		log.WithError(err).Debug("ignoring unreadable session list")
		return nil
	}
	return sessions
}

// CurrentSessionID returns the id of the session opened in bs, if any
func CurrentSessionID(bs *BrowserSession) string {
	return readString(sessionStore(bs), model.SessionScopeAuth, model.SessionKeySessionID)
}
