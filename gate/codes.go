package gate

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	slices2 "tideland.dev/go/slices"

	"github.com/mathhub-edu/mathhub/storage"
	"github.com/mathhub-edu/mathhub/storage/model"
)

// CodeStore resolves the valid user codes and the admin code from the
// built-in defaults, the durable store and the codes cached for a browser
// session.
type CodeStore struct {
	durable      model.KeyValueStore
	builtin      []string
	defaultAdmin string
	mu           sync.Mutex
}

// NewCodeStore creates a new CodeStore
func NewCodeStore(durable model.KeyValueStore, builtin []string, defaultAdmin string) *CodeStore {
	return &CodeStore{
		durable:      durable,
		builtin:      append([]string(nil), builtin...),
		defaultAdmin: defaultAdmin,
	}
}

// readStrings reads a []string; malformed or missing data reads as nil
func readStrings(kv model.KeyValueStore, scope, key string) []string {
	if kv == nil {
		return nil
	}
	var v []string
	if _, err := storage.GetAs(kv, scope, key, &v); err != nil {
		log.WithError(err).WithField("key", scope+"/"+key).Debug("ignoring unreadable stored codes")
		return nil
	}
	return v
}

// readString reads a string; malformed or missing data reads as ""
func readString(kv model.KeyValueStore, scope, key string) string {
	if kv == nil {
		return ""
	}
	var v string
	if _, err := storage.GetAs(kv, scope, key, &v); err != nil {
		log.WithError(err).WithField("key", scope+"/"+key).Debug("ignoring unreadable stored code")
		return ""
	}
	return v
}

func sessionStore(bs *BrowserSession) model.KeyValueStore {
	if bs == nil {
		return nil
	}
	return bs.Store
}

// BuiltinCodes returns the built-in user codes
func (s *CodeStore) BuiltinCodes() []string {
	return append([]string(nil), s.builtin...)
}

// LocalCodes returns the custom codes kept in the durable store
func (s *CodeStore) LocalCodes() []string {
	return readStrings(s.durable, model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes)
}

// CloudCodes returns the remote codes cached for bs
func (*CodeStore) CloudCodes(bs *BrowserSession) []string {
	return readStrings(sessionStore(bs), model.SessionScopeCloud, model.SessionKeyCloudCustomCodes)
}

// UserCodes returns the deduplicated union of the built-in, the local and
// the cached remote codes.
func (s *CodeStore) UserCodes(bs *BrowserSession) []string {
	all := s.BuiltinCodes()
	all = append(all, s.LocalCodes()...)
	all = append(all, s.CloudCodes(bs)...)
	return slices2.Unique(all)
}

// AdminCode returns the cached remote admin code, else the local override,
// else the default admin code.
func (s *CodeStore) AdminCode(bs *BrowserSession) string {
	if c := readString(sessionStore(bs), model.SessionScopeCloud, model.SessionKeyCloudAdminCode); c != "" {
		return c
	}
	if c := s.AdminOverride(); c != "" {
		return c
	}
	return s.defaultAdmin
}

// AdminOverride returns the locally set admin code or "" if there is none
func (s *CodeStore) AdminOverride() string {
	return readString(s.durable, model.KeyValueScopeCodes, model.KeyValueKeyAdminOverride)
}

// AddCode adds a custom code to the durable store; adding a present code is
// a no-op.
func (s *CodeStore) AddCode(code string) error {
	if code == "" {
		return errors.New("code must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := s.LocalCodes()
	for _, c := range codes {
		if c == code {
			return nil
		}
	}
	codes = append(codes, code)
	return errors.Wrap(
		storage.SetAny(s.durable, model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes, codes),
		"could not store custom codes",
	)
}

// RemoveCode removes a custom code from the durable store. Built-in codes
// cannot be removed.
func (s *CodeStore) RemoveCode(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := s.LocalCodes()
	kept := make([]string, 0, len(codes))
	found := false
	for _, c := range codes {
		if c == code {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return model.NotFoundErrorFmt("custom code '%s' not found", code)
	}
	return errors.Wrap(
		storage.SetAny(s.durable, model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes, kept),
		"could not store custom codes",
	)
}

// SetAdminOverride sets the local admin code override
func (s *CodeStore) SetAdminOverride(code string) error {
	if code == "" {
		return errors.New("admin code must not be empty")
	}
	return errors.Wrap(
		storage.SetAny(s.durable, model.KeyValueScopeCodes, model.KeyValueKeyAdminOverride, code),
		"could not store admin code",
	)
}

// ClearAdminOverride removes the local admin code override
func (s *CodeStore) ClearAdminOverride() error {
	return s.durable.Delete(model.KeyValueScopeCodes, model.KeyValueKeyAdminOverride)
}
