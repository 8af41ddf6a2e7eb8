package storage

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/mathhub-edu/mathhub/storage/model"
)

// GetAs retrieves and unmarshals the value for (scope, key) into out.
// out must be a pointer to the target type. Returns (false, nil) if not found.
func GetAs(kv model.KeyValueStore, scope, key string, out any) (bool, error) {
	raw, err := kv.Get(scope, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// SetAny marshals v to JSON and stores it at (scope, key).
func SetAny(kv model.KeyValueStore, scope, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Set(scope, key, datatypes.JSON(b))
}

func copyJSON(v datatypes.JSON) datatypes.JSON {
	if v == nil {
		return nil
	}
	c := make(datatypes.JSON, len(v))
	copy(c, v)
	return c
}
