package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/jarcoal/httpmock"
)

const testScriptURL = "https://script.example.test/exec"

func newMockClient(t *testing.T, responder httpmock.Responder) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodGet, testScriptURL, responder)
	return NewClient(testScriptURL, WithTransport(mt)), mt
}

func TestGetConfig(t *testing.T) {
	var query url.Values
	c, _ := newMockClient(
		t, func(req *http.Request) (*http.Response, error) {
			query = req.URL.Query()
			return httpmock.NewStringResponse(200, `{"adminCode":"boss","customCodes":["x","y"]}`), nil
		},
	)
	conf, err := c.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if query.Get("action") != ActionGetConfig {
		t.Fatalf("unexpected action %q", query.Get("action"))
	}
	if conf.AdminCode != "boss" {
		t.Fatalf("unexpected admin code %q", conf.AdminCode)
	}
	if !conf.HasCustomCodes || len(conf.CustomCodes) != 2 {
		t.Fatalf("unexpected custom codes %v (set=%v)", conf.CustomCodes, conf.HasCustomCodes)
	}
}

func TestParseConfigFieldPresence(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		admin     string
		hasCodes  bool
		codeCount int
	}{
		{name: "empty object", body: `{}`},
		{name: "explicit empty list", body: `{"customCodes":[]}`, hasCodes: true},
		{name: "null list", body: `{"customCodes":null}`},
		{name: "list is not an array", body: `{"customCodes":"abc"}`},
		{name: "empty admin code", body: `{"adminCode":""}`},
		{name: "numeric admin code", body: `{"adminCode":42,"customCodes":["a"]}`, hasCodes: true, codeCount: 1},
		{name: "admin only", body: `{"adminCode":"root"}`, admin: "root"},
	}
	for _, test := range tests {
		t.Run(
			test.name, func(t *testing.T) {
				conf, err := parseConfig([]byte(test.body))
				if err != nil {
					t.Fatalf("parseConfig failed: %v", err)
				}
				if conf.AdminCode != test.admin {
					t.Fatalf("admin code: expected %q, got %q", test.admin, conf.AdminCode)
				}
				if conf.HasCustomCodes != test.hasCodes {
					t.Fatalf("custom codes presence: expected %v, got %v", test.hasCodes, conf.HasCustomCodes)
				}
				if len(conf.CustomCodes) != test.codeCount {
					t.Fatalf("custom codes: expected %d, got %v", test.codeCount, conf.CustomCodes)
				}
			},
		)
	}
}

func TestGetConfigNotJSON(t *testing.T) {
	c, _ := newMockClient(t, httpmock.NewStringResponder(200, "<html>sign in</html>"))
	if _, err := c.GetConfig(context.Background()); err == nil {
		t.Fatal("expected an error for a non-json body")
	}
}

func TestGetConfigTransportError(t *testing.T) {
	c, _ := newMockClient(t, httpmock.NewErrorResponder(errors.New("offline")))
	if _, err := c.GetConfig(context.Background()); err == nil {
		t.Fatal("expected an error when the transport fails")
	}
}

func TestUnconfiguredClientIsNoop(t *testing.T) {
	mt := httpmock.NewMockTransport()
	c := NewClient("", WithTransport(mt))
	conf, err := c.GetConfig(context.Background())
	if err != nil || conf != nil {
		t.Fatalf("expected nil, nil; got %v, %v", conf, err)
	}
	if err = c.LogAttempt(context.Background(), AttemptLog{}); err != nil {
		t.Fatal(err)
	}
	if err = c.LogSession(context.Background(), SessionLog{}); err != nil {
		t.Fatal(err)
	}
	if n := mt.GetTotalCallCount(); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
	var nilClient *Client
	if nilClient.Configured() {
		t.Fatal("nil client must not be configured")
	}
}

func TestLogAttemptQuery(t *testing.T) {
	var query url.Values
	c, _ := newMockClient(
		t, func(req *http.Request) (*http.Response, error) {
			query = req.URL.Query()
			return httpmock.NewStringResponse(200, "ok"), nil
		},
	)
	err := c.LogAttempt(
		context.Background(), AttemptLog{
			Username:  "sam",
			Code:      "gamer123",
			Status:    "FAILED",
			Timestamp: "1/2/2026, 3:04:05 PM",
			IP:        "203.0.113.9",
			UserAgent: "Mozilla/5.0",
		},
	)
	if err != nil {
		t.Fatalf("LogAttempt failed: %v", err)
	}
	expected := map[string]string{
		"action":    "log",
		"username":  "sam",
		"code":      "gamer123",
		"status":    "FAILED",
		"timestamp": "1/2/2026, 3:04:05 PM",
		"ip":        "203.0.113.9",
		"userAgent": "Mozilla/5.0",
	}
	for k, v := range expected {
		if query.Get(k) != v {
			t.Fatalf("param %s: expected %q, got %q", k, v, query.Get(k))
		}
	}
}

func TestLogSessionQuery(t *testing.T) {
	var query url.Values
	c, _ := newMockClient(
		t, func(req *http.Request) (*http.Response, error) {
			query = req.URL.Query()
			return httpmock.NewStringResponse(500, "error"), nil
		},
	)
	err := c.LogSession(
		context.Background(), SessionLog{
			SessionID: "abc",
			Username:  "sam",
			LoginTime: "now",
			Device:    "dev",
			IsAdmin:   true,
		},
	)
	if err == nil {
		t.Fatal("expected an error for status 500")
	}
	if query.Get("action") != "logSession" || query.Get("sessionId") != "abc" || query.Get("isAdmin") != "true" {
		t.Fatalf("unexpected query %v", query)
	}
}
