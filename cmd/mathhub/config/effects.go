package config

import (
	"time"

	"github.com/zachmann/go-utils/duration"
)

// effectsConf sizes the queue running remote logging and background syncs
type effectsConf struct {
	Workers   int                     `yaml:"workers"`
	QueueSize int                     `yaml:"queue_size"`
	Timeout   duration.DurationOption `yaml:"timeout"`
}

var defaultEffectsConf = effectsConf{
	Workers:   4,
	QueueSize: 256,
	Timeout:   duration.DurationOption(30 * time.Second),
}
