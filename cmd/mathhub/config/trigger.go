package config

import (
	"github.com/zachmann/go-utils/duration"

	"github.com/mathhub-edu/mathhub/trigger"
)

type triggerConf struct {
	ClickThreshold int                     `yaml:"click_threshold"`
	ClickWindow    duration.DurationOption `yaml:"click_window"`
	Chord          string                  `yaml:"chord"`
	StandaloneCode string                  `yaml:"standalone_code"`
}

var defaultTriggerConf = triggerConf{
	ClickThreshold: trigger.DefaultClickThreshold,
	ClickWindow:    duration.DurationOption(trigger.DefaultClickWindow),
	Chord:          trigger.DefaultChord,
	StandaloneCode: trigger.DefaultSequenceCode,
}

func (c *triggerConf) validate() error {
	if _, err := trigger.ParseChord(c.Chord); err != nil {
		return err
	}
	if _, err := trigger.NewSequence(c.StandaloneCode); err != nil {
		return err
	}
	return nil
}
