package gate

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/mathhub-edu/mathhub/remote"
	"github.com/mathhub-edu/mathhub/storage"
	"github.com/mathhub-edu/mathhub/storage/model"
)

// Syncer copies the remote configuration into the cache of a browser
// session. It also remembers the last remote admin code it has seen, for
// requests that do not belong to a browser session.
type Syncer struct {
	source ConfigSource

	mu        sync.RWMutex
	lastAdmin string
}

// NewSyncer creates a Syncer; a nil or unconfigured source makes every
// Sync a no-op.
func NewSyncer(source ConfigSource) *Syncer {
	return &Syncer{source: source}
}

// Enabled tells if there is a remote source to sync from
func (s *Syncer) Enabled() bool {
	return s.source != nil && s.source.Configured()
}

// Sync fetches the remote configuration and overwrites every cached value
// the response carries. Fields missing from the response keep their cached
// value. Failures are logged and otherwise ignored.
func (s *Syncer) Sync(ctx context.Context, bs *BrowserSession) {
	if bs == nil || bs.Store == nil {
		return
	}
	conf := s.fetch(ctx)
	if conf == nil {
		return
	}
	if conf.AdminCode != "" {
		if err := storage.SetAny(
			bs.Store, model.SessionScopeCloud, model.SessionKeyCloudAdminCode, conf.AdminCode,
		); err != nil {
			log.WithError(err).Debug("could not cache remote admin code")
		}
	}
	if conf.HasCustomCodes {
		codes := conf.CustomCodes
		if codes == nil {
			codes = []string{}
		}
		if err := storage.SetAny(
			bs.Store, model.SessionScopeCloud, model.SessionKeyCloudCustomCodes, codes,
		); err != nil {
			log.WithError(err).Debug("could not cache remote custom codes")
		}
	}
}

// Refresh fetches the remote configuration only to update LastAdminCode
func (s *Syncer) Refresh(ctx context.Context) {
	s.fetch(ctx)
}

// LastAdminCode returns the admin code of the latest remote configuration
// that carried one, or "" if none was seen yet.
func (s *Syncer) LastAdminCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAdmin
}

func (s *Syncer) fetch(ctx context.Context) *remote.Config {
	if !s.Enabled() {
		return nil
	}
	conf, err := s.source.GetConfig(ctx)
	if err != nil {
		log.WithError(err).Debug("config sync failed")
		return nil
	}
	if conf != nil && conf.AdminCode != "" {
		s.mu.Lock()
		s.lastAdmin = conf.AdminCode
		s.mu.Unlock()
	}
	return conf
}
