package config

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mathhub-edu/mathhub/storage"
	"github.com/mathhub-edu/mathhub/storage/model"
)

type storageConf struct {
	Driver  storage.DriverType `yaml:"driver"`
	DataDir string             `yaml:"data_dir"`
	DSN     string             `yaml:"dsn"`
	storage.DSNConf
	Debug bool `yaml:"debug"`
}

func (c *storageConf) validate() error {
	switch c.Driver {
	case storage.DriverSQLite, storage.DriverBadger:
		if c.DataDir == "" {
			return errors.New("error in storage conf: data_dir must be specified")
		}
		return nil
	case storage.DriverMemory:
		log.Warn("memory storage driver selected; codes and logs are lost on restart")
		return nil
	}
	var err error
	if c.DSN == "" {
		c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
	}
	return err
}

var defaultStorageConf = storageConf{
	Driver:  storage.DriverSQLite,
	DataDir: ".",
	DSNConf: storage.DSNConf{
		User: "mathhub",
		Host: "localhost",
		DB:   "mathhub",
	},
	Debug: false,
}

// LoadStorageBackends loads and returns the storage backends for the passed Config
func LoadStorageBackends(c *Config) (model.Backends, error) {
	cfg := storage.Config{
		Driver:  c.Storage.Driver,
		DSN:     c.Storage.DSN,
		DataDir: c.Storage.DataDir,
		Debug:   c.Storage.Debug,
	}
	backs, err := storage.LoadStorageBackends(cfg, c.Sessions.storageConfig())
	if err != nil {
		return model.Backends{}, err
	}
	log.WithFields(
		log.Fields{
			"driver":   cfg.Driver,
			"sessions": c.Sessions.Backend,
		},
	).Info("Loaded storage backends")
	return backs, nil
}

// LoadDurable loads only the durable storage backend, for offline tools
func LoadDurable(c *Config) (model.KeyValueStore, func() error, error) {
	return storage.LoadDurable(
		storage.Config{
			Driver:  c.Storage.Driver,
			DSN:     c.Storage.DSN,
			DataDir: c.Storage.DataDir,
			Debug:   c.Storage.Debug,
		},
	)
}
