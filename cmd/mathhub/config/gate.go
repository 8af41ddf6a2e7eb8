package config

import (
	"github.com/pkg/errors"

	"github.com/mathhub-edu/mathhub/gate"
)

// gateConf configures the access gate
type gateConf struct {
	// BuiltinCodes replace the built-in user codes if set
	BuiltinCodes []string `yaml:"builtin_codes"`
	// AdminCode replaces the default admin code if set
	AdminCode   string `yaml:"admin_code"`
	MaxAttempts int    `yaml:"max_attempts"`
	MaxSessions int    `yaml:"max_sessions"`
	TimeLayout  string `yaml:"time_layout"`
}

func defaultGateConf() gateConf {
	return gateConf{
		BuiltinCodes: append([]string(nil), gate.DefaultBuiltinCodes...),
		AdminCode:    gate.DefaultAdminCode,
		MaxAttempts:  gate.DefaultMaxAttempts,
		MaxSessions:  gate.DefaultMaxSessions,
		TimeLayout:   gate.DefaultTimeLayout,
	}
}

func (c *gateConf) validate() error {
	if c.AdminCode == "" {
		return errors.New("error in gate conf: admin_code must not be empty")
	}
	if c.MaxAttempts <= 0 || c.MaxSessions <= 0 {
		return errors.New("error in gate conf: max_attempts and max_sessions must be positive")
	}
	return nil
}
