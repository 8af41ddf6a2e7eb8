package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
	"gorm.io/datatypes"
)

// badgerEntry is what is stored under every badger key; timestamps mirror
// the ones of model.KeyValue.
type badgerEntry struct {
	Value     []byte `msgpack:"v"`
	CreatedAt int64  `msgpack:"c"`
	UpdatedAt int64  `msgpack:"u"`
}

// BadgerStorage implements model.KeyValueStore on an embedded badger database
type BadgerStorage struct {
	db       *badger.DB
	stopGC   chan struct{}
	stopOnce sync.Once
}

// NewBadgerStorage opens (or creates) a badger database at path
func NewBadgerStorage(path string) (*BadgerStorage, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(log.StandardLogger()))
	if err != nil {
		return nil, err
	}
	store := &BadgerStorage{
		db:     db,
		stopGC: make(chan struct{}),
	}
	go store.runValueLogGC(5 * time.Minute)
	return store, nil
}

func (store *BadgerStorage) runValueLogGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-store.stopGC:
			return
		case <-ticker.C:
			for store.db.RunValueLogGC(0.7) == nil {
			}
		}
	}
}

func badgerKey(scope, key string) []byte {
	return []byte(scope + ":" + key)
}

// Get returns the JSON value for a (scope, key). If not found, returns nil, nil.
func (store *BadgerStorage) Get(scope, key string) (datatypes.JSON, error) {
	var value datatypes.JSON
	err := store.db.View(
		func(txn *badger.Txn) error {
			item, err := txn.Get(badgerKey(scope, key))
			if err != nil {
				return err
			}
			return item.Value(
				func(val []byte) error {
					var e badgerEntry
					if err = msgpack.Unmarshal(val, &e); err != nil {
						return err
					}
					value = e.Value
					return nil
				},
			)
		},
	)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return value, err
}

// Set upserts the JSON value for a (scope, key).
func (store *BadgerStorage) Set(scope, key string, value datatypes.JSON) error {
	k := badgerKey(scope, key)
	return store.db.Update(
		func(txn *badger.Txn) error {
			now := time.Now().Unix()
			e := badgerEntry{
				Value:     value,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if item, err := txn.Get(k); err == nil {
				_ = item.Value(
					func(val []byte) error {
						var old badgerEntry
						if msgpack.Unmarshal(val, &old) == nil {
							e.CreatedAt = old.CreatedAt
						}
						return nil
					},
				)
			}
			data, err := msgpack.Marshal(&e)
			if err != nil {
				return err
			}
			return txn.Set(k, data)
		},
	)
}

// Delete removes a (scope, key) pair. No error if it's missing.
func (store *BadgerStorage) Delete(scope, key string) error {
	return store.db.Update(
		func(txn *badger.Txn) error {
			return txn.Delete(badgerKey(scope, key))
		},
	)
}

// Close stops the value log garbage collection and closes the database
func (store *BadgerStorage) Close() error {
	store.stopOnce.Do(func() { close(store.stopGC) })
	return store.db.Close()
}
