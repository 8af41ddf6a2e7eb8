package config

import (
	"os"
	"reflect"

	"github.com/fatih/structs"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/mathhub-edu/mathhub"
)

// Config holds the whole server configuration
type Config struct {
	Server   mathhub.ServerConf `yaml:"server"`
	Logging  loggingConf        `yaml:"logging"`
	Storage  storageConf        `yaml:"storage"`
	Sessions sessionsConf       `yaml:"sessions"`
	Gate     gateConf           `yaml:"gate"`
	Remote   remoteConf         `yaml:"remote"`
	Trigger  triggerConf        `yaml:"trigger"`
	Effects  effectsConf        `yaml:"effects"`
	API      apiConf            `yaml:"api"`
}

type configValidator interface {
	validate() error
}

var c *Config

var possibleConfigLocations = []string{
	".",
	"config",
	"/config",
	"/mathhub/config",
	"/mathhub",
	"/etc/mathhub",
}

// defaultConfig returns a Config holding all default values
func defaultConfig() Config {
	return Config{
		Server: mathhub.ServerConf{
			Port: 7672,
		},
		Logging:  defaultLoggingConf,
		Storage:  defaultStorageConf,
		Sessions: defaultSessionsConf,
		Gate:     defaultGateConf(),
		Remote:   defaultRemoteConf,
		Trigger:  defaultTriggerConf,
		Effects:  defaultEffectsConf,
		API:      defaultAPIConf,
	}
}

// Get returns the loaded Config
func Get() *Config {
	return c
}

// Load loads the Config from filename or, if it is empty, from the first
// config.yaml found in the usual locations. Errors are fatal.
func Load(filename string) {
	if filename == "" {
		for _, dir := range possibleConfigLocations {
			if p := dir + "/config.yaml"; fileutils.FileExists(p) {
				filename = p
				break
			}
		}
	}
	if filename == "" {
		log.Fatal("could not find config file in any of the possible locations")
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		log.WithError(err).Fatal("could not read config file")
	}
	conf, err := LoadFromBytes(data)
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	c = conf
	log.WithField("file", filename).Debug("config loaded")
	log.WithFields(structs.Map(c.redacted())).Debug("effective config")
}

// LoadFromBytes parses and validates a yaml config
func LoadFromBytes(data []byte) (*Config, error) {
	conf := defaultConfig()
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (conf *Config) validate() error {
	v := reflect.ValueOf(conf).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		fieldVal := v.Field(i)

		// Get addressable pointer to field if possible
		if fieldVal.CanAddr() {
			ptr := fieldVal.Addr().Interface()

			if validator, ok := ptr.(configValidator); ok {
				if err := validator.validate(); err != nil {
					return errors.Errorf("validation failed for field '%s': %s", t.Field(i).Name, err.Error())
				}
			}
		}
	}
	return nil
}

// redacted returns a copy without secrets, for logging
func (conf Config) redacted() Config {
	const hidden = "***"
	if conf.Storage.Password != "" {
		conf.Storage.Password = hidden
	}
	if conf.Storage.DSN != "" {
		conf.Storage.DSN = hidden
	}
	if conf.Sessions.Password != "" {
		conf.Sessions.Password = hidden
	}
	if conf.Gate.AdminCode != "" {
		conf.Gate.AdminCode = hidden
	}
	conf.Gate.BuiltinCodes = nil
	return conf
}
