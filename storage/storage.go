package storage

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/mathhub-edu/mathhub/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db *gorm.DB
}

var models = []any{
	&model.KeyValue{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate the schemas
	if err = db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{
		db: db,
	}, nil
}

// Close closes the underlying database connection
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LoadDurable opens the durable key-value backend selected by cfg.Driver. The
// returned function releases it.
func LoadDurable(cfg Config) (model.KeyValueStore, func() error, error) {
	switch {
	case cfg.Driver.IsGorm():
		warehouse, err := NewStorage(cfg)
		if err != nil {
			return nil, nil, err
		}
		return warehouse.KeyValue(), warehouse.Close, nil
	case cfg.Driver == DriverBadger:
		b, err := NewBadgerStorage(filepath.Join(cfg.DataDir, "badger"))
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open badger storage")
		}
		return b, b.Close, nil
	case cfg.Driver == DriverMemory:
		m := NewMemoryStorage()
		return m, func() error { return nil }, nil
	default:
		return nil, nil, errors.Errorf("unsupported storage driver '%s'", cfg.Driver)
	}
}

// LoadStorageBackends initializes the durable and session backends and
// returns them grouped.
func LoadStorageBackends(cfg Config, sessions SessionConfig) (model.Backends, error) {
	durable, closeDurable, err := LoadDurable(cfg)
	if err != nil {
		return model.Backends{}, err
	}
	sessionBackend, closeSessions, err := LoadSessionBackend(sessions)
	if err != nil {
		_ = closeDurable()
		return model.Backends{}, err
	}
	return model.Backends{
		Durable:  durable,
		Sessions: sessionBackend,
		Close: func() error {
			errS := closeSessions()
			if err := closeDurable(); err != nil {
				return err
			}
			return errS
		},
	}, nil
}
