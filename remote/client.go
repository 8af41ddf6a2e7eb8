// Package remote talks to the spreadsheet-backed script endpoint that serves
// the shared configuration and collects attempt and session logs.
package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/mathhub-edu/mathhub/internal/version"
)

// Actions understood by the script endpoint
const (
	ActionGetConfig  = "getConfig"
	ActionLog        = "log"
	ActionLogSession = "logSession"
)

// Config is the configuration served by the script endpoint.
type Config struct {
	// AdminCode is empty if the response did not carry a usable admin code
	AdminCode string
	// CustomCodes is only meaningful if HasCustomCodes is set; an empty list
	// then clears previously cached codes
	CustomCodes    []string
	HasCustomCodes bool
}

// AttemptLog is the payload of a logged gate check
type AttemptLog struct {
	Username  string
	Code      string
	Status    string
	Timestamp string
	IP        string
	UserAgent string
}

// SessionLog is the payload of a logged session
type SessionLog struct {
	SessionID string
	Username  string
	LoginTime string
	Device    string
	IsAdmin   bool
}

// Option configures a Client or IPLookup
type Option func(*resty.Client)

// WithTransport replaces the http transport; used to plug in test doubles
func WithTransport(rt http.RoundTripper) Option {
	return func(c *resty.Client) {
		c.SetTransport(rt)
	}
}

// WithTimeout bounds every request made by the client; 0 means unbounded
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) {
		c.SetTimeout(d)
	}
}

func newResty(opts []Option) *resty.Client {
	c := resty.New().
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", version.UserAgent()).
		SetRetryCount(0)
	for _, o := range opts {
		o(c)
	}
	return c
}

// Client is a client for the script endpoint. A Client without a script URL
// is valid and turns every call into a no-op.
type Client struct {
	http      *resty.Client
	scriptURL string
}

// NewClient creates a new Client for scriptURL
func NewClient(scriptURL string, opts ...Option) *Client {
	return &Client{
		http:      newResty(opts),
		scriptURL: scriptURL,
	}
}

// Configured tells if a script URL is set
func (c *Client) Configured() bool {
	return c != nil && c.scriptURL != ""
}

func (c *Client) get(ctx context.Context, params map[string]string) (*resty.Response, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(c.scriptURL)
	if err != nil {
		return nil, errors.Wrapf(err, "%s request failed", params["action"])
	}
	if res.IsError() {
		return res, errors.Errorf("%s request failed: status %d", params["action"], res.StatusCode())
	}
	return res, nil
}

// GetConfig fetches the shared configuration
func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	if !c.Configured() {
		return nil, nil
	}
	res, err := c.get(ctx, map[string]string{"action": ActionGetConfig})
	if err != nil {
		return nil, err
	}
	return parseConfig(res.Body())
}

func parseConfig(body []byte) (*Config, error) {
	var raw struct {
		AdminCode   json.RawMessage `json:"adminCode"`
		CustomCodes json.RawMessage `json:"customCodes"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.Wrap(err, "config response is not a json object")
	}
	conf := &Config{}
	if len(raw.AdminCode) > 0 {
		var admin string
		if json.Unmarshal(raw.AdminCode, &admin) == nil {
			conf.AdminCode = admin
		}
	}
	if len(raw.CustomCodes) > 0 {
		var codes []string
		if json.Unmarshal(raw.CustomCodes, &codes) == nil && codes != nil {
			conf.CustomCodes = codes
			conf.HasCustomCodes = true
		}
	}
	return conf, nil
}

// LogAttempt reports a gate check; the response is ignored
func (c *Client) LogAttempt(ctx context.Context, a AttemptLog) error {
	if !c.Configured() {
		return nil
	}
	_, err := c.get(
		ctx, map[string]string{
			"action":    ActionLog,
			"username":  a.Username,
			"code":      a.Code,
			"status":    a.Status,
			"timestamp": a.Timestamp,
			"ip":        a.IP,
			"userAgent": a.UserAgent,
		},
	)
	return err
}

// LogSession reports a new session; the response is ignored
func (c *Client) LogSession(ctx context.Context, s SessionLog) error {
	if !c.Configured() {
		return nil
	}
	_, err := c.get(
		ctx, map[string]string{
			"action":    ActionLogSession,
			"sessionId": s.SessionID,
			"username":  s.Username,
			"loginTime": s.LoginTime,
			"device":    s.Device,
			"isAdmin":   strconv.FormatBool(s.IsAdmin),
		},
	)
	return err
}
