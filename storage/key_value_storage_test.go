package storage

import (
	"testing"

	"gorm.io/datatypes"

	"github.com/mathhub-edu/mathhub/storage/model"
)

func testKeyValueStore(t *testing.T, kv model.KeyValueStore) {
	t.Helper()

	v, err := kv.Get(model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes)
	if err != nil {
		t.Fatalf("Get on empty store failed: %v", err)
	}
	if v != nil {
		t.Fatalf("expected nil for missing key, got %s", v)
	}

	if err = SetAny(kv, model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes, []string{"a", "b"}); err != nil {
		t.Fatalf("SetAny failed: %v", err)
	}
	var codes []string
	found, err := GetAs(kv, model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes, &codes)
	if err != nil || !found {
		t.Fatalf("GetAs failed: found=%v err=%v", found, err)
	}
	if len(codes) != 2 || codes[0] != "a" || codes[1] != "b" {
		t.Fatalf("unexpected codes: %v", codes)
	}

	if err = kv.Set(model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes, datatypes.JSON(`["c"]`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if _, err = GetAs(kv, model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes, &codes); err != nil {
		t.Fatalf("GetAs after overwrite failed: %v", err)
	}
	if len(codes) != 1 || codes[0] != "c" {
		t.Fatalf("overwrite not visible: %v", codes)
	}

	if err = kv.Delete(model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err = kv.Delete(model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes); err != nil {
		t.Fatalf("Delete of missing key must not fail: %v", err)
	}
	found, err = GetAs(kv, model.KeyValueScopeCodes, model.KeyValueKeyCustomCodes, &codes)
	if err != nil || found {
		t.Fatalf("expected deleted key to be absent: found=%v err=%v", found, err)
	}
}

func TestMemoryStorage(t *testing.T) {
	testKeyValueStore(t, NewMemoryStorage())
}

func TestMemoryStorageReturnsCopies(t *testing.T) {
	m := NewMemoryStorage()
	if err := m.Set("s", "k", datatypes.JSON(`"abc"`)); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Get("s", "k")
	v[1] = 'x'
	again, _ := m.Get("s", "k")
	if string(again) != `"abc"` {
		t.Fatalf("stored value was mutated through a returned slice: %s", again)
	}
}

func TestBadgerStorage(t *testing.T) {
	b, err := NewBadgerStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open badger storage: %v", err)
	}
	defer b.Close()
	testKeyValueStore(t, b)
}

func TestGetAsMalformed(t *testing.T) {
	m := NewMemoryStorage()
	if err := m.Set("s", "k", datatypes.JSON(`{not json`)); err != nil {
		t.Fatal(err)
	}
	var out []string
	if _, err := GetAs(m, "s", "k", &out); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}
