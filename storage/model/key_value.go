package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Scopes and keys used in the durable store.
const (
	KeyValueScopeCodes    = "codes"
	KeyValueScopeLogs     = "logs"
	KeyValueScopeSessions = "sessions"

	KeyValueKeyCustomCodes   = "custom"
	KeyValueKeyAdminOverride = "admin_override"
	KeyValueKeyAttempts      = "attempts"
	KeyValueKeySessionList   = "list"
)

// Scopes and keys used in the per-browser-session store.
const (
	SessionScopeCloud = "cloud"
	SessionScopeAuth  = "auth"

	SessionKeyCloudAdminCode   = "admin_code"
	SessionKeyCloudCustomCodes = "custom_codes"
	SessionKeyAuthenticated    = "authenticated"
	SessionKeyAdmin            = "admin"
	SessionKeyUser             = "user"
	SessionKeySessionID        = "session_id"
)

// KeyValue stores arbitrary key-value data.
//
// Values are serialized using GORM's json serializer, which leverages the
// database JSON type when available (e.g., PostgreSQL, MySQL), and falls back
// to TEXT in others (e.g., SQLite). The `Scope` field enables namespacing to
// avoid key collisions across different features.
type KeyValue struct {
	CreatedAt int            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Scope string `gorm:"primaryKey" json:"scope"`
	Key   string `gorm:"primaryKey" json:"key"`

	Value datatypes.JSON `json:"value"`
}

// KeyValueStore defines the operations every key-value backend offers, be it
// durable (gorm, badger) or bound to a single browser session (memory, redis).
// Implementations must honor the uniqueness of (scope,key) and store values
// as JSON.
type KeyValueStore interface {
	// Get retrieves the value for a (scope, key). Returns (nil, nil) if not found.
	Get(scope, key string) (datatypes.JSON, error)

	// Set stores/replaces the value for a (scope, key).
	Set(scope, key string, value datatypes.JSON) error

	// Delete removes the entry for a (scope, key). No error if missing.
	Delete(scope, key string) error
}

// SessionBackend hands out key-value stores that live only as long as one
// browser session.
type SessionBackend interface {
	// Bind returns the KeyValueStore of the browser session sid.
	Bind(sid string) KeyValueStore
}
