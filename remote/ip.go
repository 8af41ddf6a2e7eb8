package remote

import (
	"context"
	"encoding/json"
	"net"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

// UnknownIP is reported whenever the client address cannot be determined
const UnknownIP = "unknown"

// IPLookup asks a public IP echo service answering with {"ip": "..."} for the
// public address
type IPLookup struct {
	http *resty.Client
	url  string
}

// NewIPLookup creates an IPLookup querying url
func NewIPLookup(url string, opts ...Option) *IPLookup {
	return &IPLookup{
		http: newResty(opts),
		url:  url,
	}
}

// Lookup returns the public address, or UnknownIP on any failure
func (l *IPLookup) Lookup(ctx context.Context) string {
	if l == nil || l.url == "" {
		return UnknownIP
	}
	res, err := l.http.R().SetContext(ctx).Get(l.url)
	if err != nil || res.IsError() {
		log.WithError(err).Debug("ip lookup failed")
		return UnknownIP
	}
	var body struct {
		IP string `json:"ip"`
	}
	if err = json.Unmarshal(res.Body(), &body); err != nil || body.IP == "" {
		return UnknownIP
	}
	return body.IP
}

// ClientIP returns requestIP if it is a public address. For loopback and
// private addresses lookup is asked instead; the echo service reports the
// server's own public address, which is only the visitor's one if both sit
// behind the same NAT. A nil or unconfigured lookup yields UnknownIP.
func ClientIP(ctx context.Context, requestIP string, lookup *IPLookup) string {
	if isPublic(requestIP) {
		return requestIP
	}
	return lookup.Lookup(ctx)
}

func isPublic(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast())
}
