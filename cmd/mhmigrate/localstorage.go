package main

import (
	"encoding/json"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	slices2 "tideland.dev/go/slices"

	"github.com/mathhub-edu/mathhub/storage"
	"github.com/mathhub-edu/mathhub/storage/model"
)

// Keys used by the browser-only deployment in the local storage
const (
	legacyKeyCustomCodes = "tmh_custom_codes"
	legacyKeyAdminCode   = "tmh_admin_code"
	legacyKeyLoginLogs   = "tmh_login_logs"
	legacyKeySessions    = "tmh_sessions"
)

type importStats struct {
	Codes     int
	AdminCode bool
	Attempts  int
	Sessions  int
}

// legacyValue decodes a local storage value into out. Local storage only
// holds strings, so a dump carries either the json encoded string or the
// value itself.
func legacyValue(raw json.RawMessage, out any) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if str, isString := out.(*string); isString {
			*str = s
			return nil
		}
		raw = json.RawMessage(s)
	}
	return json.Unmarshal(raw, out)
}

func capTail[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// importLocalStorage merges a local storage dump into kv. Imported log
// entries count as older than everything already stored.
func importLocalStorage(
	dump map[string]json.RawMessage, kv model.KeyValueStore, maxAttempts, maxSessions int, dryRun bool,
) (importStats, error) {
	var stats importStats

	if raw, ok := dump[legacyKeyCustomCodes]; ok {
		var imported []string
		if err := legacyValue(raw, &imported); err != nil {
			return stats, errors.Wrapf(err, "could not parse '%s'", legacyKeyCustomCodes)
		}
		var existing []string
		if _, err := storage.GetAs(kv, model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes, &existing); err != nil {
			log.WithError(err).Warn("ignoring unreadable stored custom codes")
			existing = nil
		}
		var cleaned []string
		for _, c := range imported {
			if c != "" {
				cleaned = append(cleaned, c)
			}
		}
		merged := slices2.Unique(append(existing, cleaned...))
		stats.Codes = len(merged) - len(existing)
		if !dryRun {
			if err := storage.SetAny(kv, model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes, merged); err != nil {
				return stats, err
			}
		}
	}

	if raw, ok := dump[legacyKeyAdminCode]; ok {
		var code string
		if err := legacyValue(raw, &code); err != nil {
			return stats, errors.Wrapf(err, "could not parse '%s'", legacyKeyAdminCode)
		}
		if code != "" {
			stats.AdminCode = true
			if !dryRun {
				if err := storage.SetAny(kv, model.KeyValueScopeCodes, model.KeyValueKeyAdminOverride, code); err != nil {
					return stats, err
				}
			}
		}
	}

	if raw, ok := dump[legacyKeyLoginLogs]; ok {
		var imported []model.LoginAttempt
		if err := legacyValue(raw, &imported); err != nil {
			return stats, errors.Wrapf(err, "could not parse '%s'", legacyKeyLoginLogs)
		}
		var existing []model.LoginAttempt
		if _, err := storage.GetAs(kv, model.KeyValueScopeLogs, model.KeyValueKeyAttempts, &existing); err != nil {
			return stats, errors.Wrap(err, "could not read stored attempt log")
		}
		stats.Attempts = len(imported)
		if !dryRun {
			merged := capTail(append(imported, existing...), maxAttempts)
			if err := storage.SetAny(kv, model.KeyValueScopeLogs, model.KeyValueKeyAttempts, merged); err != nil {
				return stats, err
			}
		}
	}

	if raw, ok := dump[legacyKeySessions]; ok {
		var imported []model.Session
		if err := legacyValue(raw, &imported); err != nil {
			return stats, errors.Wrapf(err, "could not parse '%s'", legacyKeySessions)
		}
		var existing []model.Session
		if _, err := storage.GetAs(kv, model.KeyValueScopeSessions, model.KeyValueKeySessionList, &existing); err != nil {
			return stats, errors.Wrap(err, "could not read stored session list")
		}
		stats.Sessions = len(imported)
		if !dryRun {
			merged := capTail(append(imported, existing...), maxSessions)
			if err := storage.SetAny(kv, model.KeyValueScopeSessions, model.KeyValueKeySessionList, merged); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

// durableKeys lists every key the server keeps in the durable store
var durableKeys = [][2]string{
	{model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes},
	{model.KeyValueScopeCodes, model.KeyValueKeyAdminOverride},
	{model.KeyValueScopeLogs, model.KeyValueKeyAttempts},
	{model.KeyValueScopeSessions, model.KeyValueKeySessionList},
}

// copyDurable copies every durable key present in src to dst
func copyDurable(src, dst model.KeyValueStore, dryRun bool) (int, error) {
	n := 0
	for _, k := range durableKeys {
		v, err := src.Get(k[0], k[1])
		if err != nil {
			return n, errors.Wrapf(err, "could not read %s/%s", k[0], k[1])
		}
		if v == nil {
			continue
		}
		n++
		log.WithField("key", k[0]+"/"+k[1]).Debug("copying")
		if dryRun {
			continue
		}
		if err = dst.Set(k[0], k[1], v); err != nil {
			return n, errors.Wrapf(err, "could not write %s/%s", k[0], k[1])
		}
	}
	return n, nil
}
