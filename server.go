package mathhub

import (
	"time"
)

// ServerConf configures the http server
type ServerConf struct {
	IPListen          string   `yaml:"ip_listen"`
	Port              int      `yaml:"port"`
	TLS               tlsConf  `yaml:"tls"`
	TrustedProxies    []string `yaml:"trusted_proxies"`
	ForwardedIPHeader string   `yaml:"forwarded_ip_header"`
	// ExternalURL is only used to point the admin api docs at this instance
	ExternalURL string `yaml:"external_url"`
}

type tlsConf struct {
	Enabled      bool   `yaml:"enabled"`
	RedirectHTTP bool   `yaml:"redirect_http"`
	Cert         string `yaml:"cert"`
	Key          string `yaml:"key"`
}

// TriggerConf configures the hidden entry points
type TriggerConf struct {
	ClickThreshold int           `yaml:"click_threshold"`
	ClickWindow    time.Duration `yaml:"-"`
	Chord          string        `yaml:"chord"`
	StandaloneCode string        `yaml:"standalone_code"`
}

// VisitorConf configures how long the server keeps per-visitor page state
type VisitorConf struct {
	CookieName string        `yaml:"cookie_name"`
	IdleTTL    time.Duration `yaml:"-"`
	// SecureCookie marks the session cookie as https only
	SecureCookie bool `yaml:"secure_cookie"`
}
