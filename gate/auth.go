package gate

import (
	log "github.com/sirupsen/logrus"

	"github.com/mathhub-edu/mathhub/storage"
	"github.com/mathhub-edu/mathhub/storage/model"
)

// UnknownUser is restored if an authenticated session lost its username
const UnknownUser = "Unknown"

// AuthState is the authentication of one browser session.
// IsAdmin implies Authenticated.
type AuthState struct {
	Authenticated bool   `json:"authenticated"`
	IsAdmin       bool   `json:"isAdmin"`
	CurrentUser   string `json:"currentUser"`
}

func readBool(kv model.KeyValueStore, scope, key string) bool {
	if kv == nil {
		return false
	}
	var v bool
	if _, err := storage.GetAs(kv, scope, key, &v); err != nil {
		return false
	}
	return v
}

// LoadAuth restores the AuthState mirrored into bs
func LoadAuth(bs *BrowserSession) AuthState {
	store := sessionStore(bs)
	if store == nil {
		return AuthState{}
	}
	var st AuthState
	st.Authenticated = readBool(store, model.SessionScopeAuth, model.SessionKeyAuthenticated)
	if !st.Authenticated {
		return AuthState{}
	}
	st.IsAdmin = readBool(store, model.SessionScopeAuth, model.SessionKeyAdmin)
	st.CurrentUser = readString(store, model.SessionScopeAuth, model.SessionKeyUser)
	if st.CurrentUser == "" {
		st.CurrentUser = UnknownUser
	}
	return st
}

func saveAuth(bs *BrowserSession, st AuthState) {
	store := sessionStore(bs)
	if store == nil {
		return
	}
	if st.IsAdmin {
		st.Authenticated = true
	}
	for _, e := range []struct {
		key string
		v   any
	}{
		{model.SessionKeyAuthenticated, st.Authenticated},
		{model.SessionKeyAdmin, st.IsAdmin},
		{model.SessionKeyUser, st.CurrentUser},
	} {
		if err := storage.SetAny(store, model.SessionScopeAuth, e.key, e.v); err != nil {
			log.WithError(err).WithField("key", e.key).Warn("could not store auth state")
		}
	}
}

// Logout forgets the AuthState of bs. The session id and cached remote
// configuration are kept until the browser session ends.
func Logout(bs *BrowserSession) {
	store := sessionStore(bs)
	if store == nil {
		return
	}
	for _, key := range []string{
		model.SessionKeyAuthenticated, model.SessionKeyAdmin, model.SessionKeyUser,
	} {
		if err := store.Delete(model.SessionScopeAuth, key); err != nil {
			log.WithError(err).WithField("key", key).Warn("could not clear auth state")
		}
	}
}
