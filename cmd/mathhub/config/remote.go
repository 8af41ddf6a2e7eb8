package config

import (
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"
)

// remoteConf configures the script endpoint serving the shared configuration
// and collecting logs. Without a script_url everything stays local.
//
// YAML example:
//
//	remote:
//	  script_url: https://script.google.com/macros/s/.../exec
//	  sync_timeout: 8s
type remoteConf struct {
	ScriptURL string `yaml:"script_url"`
	// SyncTimeout bounds the sync before every login; 0 waits indefinitely
	SyncTimeout duration.DurationOption `yaml:"sync_timeout"`
	// LogTimeout bounds every logging request
	LogTimeout duration.DurationOption `yaml:"log_timeout"`
	// IPLookupURL is an IP echo service asked for the address of visitors
	// whose request address is private or loopback. It answers with the
	// server's public address, so only set it if the server and its
	// visitors share a NAT. Unset, such visitors are logged as "unknown";
	// configure trusted proxies in the server section instead when running
	// behind a reverse proxy.
	IPLookupURL string `yaml:"ip_lookup_url"`
	// GeoIPDB is the path of a MaxMind country database
	GeoIPDB string `yaml:"geoip_db"`
}

var defaultRemoteConf = remoteConf{
	SyncTimeout: duration.DurationOption(8 * time.Second),
	LogTimeout:  duration.DurationOption(15 * time.Second),
}

func (c *remoteConf) validate() error {
	for name, u := range map[string]string{
		"script_url":    c.ScriptURL,
		"ip_lookup_url": c.IPLookupURL,
	} {
		if u == "" {
			continue
		}
		if p, err := url.Parse(u); err != nil || p.Scheme == "" || p.Host == "" {
			return errors.Errorf("error in remote conf: %s '%s' is not an absolute url", name, u)
		}
	}
	return nil
}
