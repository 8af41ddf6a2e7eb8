package mathhub

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/storage"
	"github.com/mathhub-edu/mathhub/view"
)

type client struct {
	t      *testing.T
	app    *fiber.App
	cookie *http.Cookie
}

func newTestServer(t *testing.T) (*Server, *gate.Gate) {
	t.Helper()
	g := gate.New(storage.NewMemoryStorage(), gate.Config{}, gate.Deps{})
	s, err := NewServer(
		ServerConf{}, g, storage.NewMemorySessions(0), Options{
			AdminAPI: true,
		},
	)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { s.visitors.close() })
	return s, g
}

func (c *client) do(method, path, body string) (int, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	res, err := c.app.Test(req)
	if err != nil {
		c.t.Fatalf("app.Test: %v", err)
	}
	for _, ck := range res.Cookies() {
		if ck.Name == defaultCookieName {
			c.cookie = ck
		}
	}
	data, _ := io.ReadAll(res.Body)
	return res.StatusCode, data
}

func (c *client) state(method, path, body string) triggerResponse {
	c.t.Helper()
	status, data := c.do(method, path, body)
	if status != fiber.StatusOK {
		c.t.Fatalf("%s %s: status %d: %s", method, path, status, data)
	}
	var st triggerResponse
	if err := json.Unmarshal(data, &st); err != nil {
		c.t.Fatalf("unmarshal: %v", err)
	}
	return st
}

func TestIndexStartsSession(t *testing.T) {
	s, _ := newTestServer(t)
	c := &client{t: t, app: s.server}
	status, body := c.do(http.MethodGet, "/", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if c.cookie == nil || c.cookie.Value == "" {
		t.Fatal("expected a session cookie")
	}
	if !strings.Contains(string(body), `data-view="math-hub"`) {
		t.Fatalf("expected math hub view, got %s", body)
	}
}

func TestClickTriggerOpensLogin(t *testing.T) {
	s, _ := newTestServer(t)
	c := &client{t: t, app: s.server}
	for i := 0; i < 4; i++ {
		if st := c.state(http.MethodPost, "/api/secret/click", ""); st.Fired {
			t.Fatalf("fired on click %d", i+1)
		}
	}
	st := c.state(http.MethodPost, "/api/secret/click", "")
	if !st.Fired || !st.Changed || st.View != view.Login {
		t.Fatalf("expected login after fifth click, got %+v", st)
	}
	_, body := c.do(http.MethodGet, "/", "")
	if !strings.Contains(string(body), "login-form") {
		t.Fatal("expected login form to be rendered")
	}
}

func TestChordAndLoginFlow(t *testing.T) {
	s, _ := newTestServer(t)
	c := &client{t: t, app: s.server}

	st := c.state(http.MethodPost, "/api/secret/key", `{"key":"G","ctrlKey":true,"shiftKey":false}`)
	if st.Fired {
		t.Fatal("chord without shift must not fire")
	}
	st = c.state(http.MethodPost, "/api/secret/key", `{"key":"G","ctrlKey":true,"shiftKey":true}`)
	if !st.Fired || st.View != view.Login {
		t.Fatalf("expected login view, got %+v", st)
	}

	status, data := c.do(http.MethodPost, "/api/login", `{"username":"kim","code":"nope"}`)
	var lr loginResponse
	_ = json.Unmarshal(data, &lr)
	if status != fiber.StatusOK || lr.Success || lr.Message != gate.MessageInvalidCode || lr.View != view.Login {
		t.Fatalf("unexpected failed login response %d %+v", status, lr)
	}

	_, data = c.do(http.MethodPost, "/api/login", `{"username":"kim","code":"GAMER123"}`)
	lr = loginResponse{}
	_ = json.Unmarshal(data, &lr)
	if !lr.Success || lr.IsAdmin || lr.View != view.Games || !lr.Auth.Authenticated {
		t.Fatalf("unexpected login response %+v", lr)
	}

	st = c.state(http.MethodPost, "/api/nav/admin", "")
	if st.Changed || st.View != view.Games {
		t.Fatalf("non-admin must not open the admin panel, got %+v", st)
	}
	if status, _ = c.do(http.MethodGet, "/api/v1/admin/logs", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected admin api to reject non-admin, got %d", status)
	}

	st = c.state(http.MethodPost, "/api/logout", "")
	if st.View != view.MathHub || st.Auth.Authenticated {
		t.Fatalf("unexpected state after logout %+v", st)
	}
}

func TestAdminFlow(t *testing.T) {
	s, g := newTestServer(t)
	c := &client{t: t, app: s.server}
	c.state(http.MethodPost, "/api/secret/key", `{"key":"G","ctrlKey":true,"shiftKey":true}`)
	_, data := c.do(http.MethodPost, "/api/login", `{"username":"boss","code":"admintalon"}`)
	var lr loginResponse
	_ = json.Unmarshal(data, &lr)
	if !lr.IsAdmin || lr.View != view.Admin {
		t.Fatalf("unexpected admin login response %+v", lr)
	}
	_, body := c.do(http.MethodGet, "/", "")
	if !strings.Contains(string(body), `id="admin"`) {
		t.Fatal("expected admin panel to be rendered")
	}
	if status, _ := c.do(http.MethodGet, "/api/v1/admin/logs", ""); status != fiber.StatusOK {
		t.Fatalf("expected admin api to accept admin session, got %d", status)
	}
	st := c.state(http.MethodPost, "/api/nav/back", "")
	if st.View != view.Games {
		t.Fatalf("expected games after back, got %+v", st)
	}
	if n := len(g.Sessions.List()); n != 1 {
		t.Fatalf("expected one recorded session, got %d", n)
	}
}

func TestAuthenticatedTriggerGoesToGames(t *testing.T) {
	s, _ := newTestServer(t)
	c := &client{t: t, app: s.server}
	c.state(http.MethodPost, "/api/secret/key", `{"key":"G","ctrlKey":true,"shiftKey":true}`)
	c.do(http.MethodPost, "/api/login", `{"username":"a","code":"letmein99"}`)

	// the page state expires while the browser session keeps its auth
	s.visitors.cache.Delete(c.cookie.Value)
	st := c.state(http.MethodGet, "/api/state", "")
	if st.View != view.MathHub || !st.Auth.Authenticated {
		t.Fatalf("expected authenticated math hub, got %+v", st)
	}
	st = c.state(http.MethodPost, "/api/secret/key", `{"key":"G","ctrlKey":true,"shiftKey":true}`)
	if !st.Fired || st.View != view.Games || !st.Renderable {
		t.Fatalf("expected games, got %+v", st)
	}
}

func TestGamesNotRenderedWithoutAuth(t *testing.T) {
	s, g := newTestServer(t)
	c := &client{t: t, app: s.server}
	c.state(http.MethodPost, "/api/secret/key", `{"key":"G","ctrlKey":true,"shiftKey":true}`)
	c.do(http.MethodPost, "/api/login", `{"username":"a","code":"mathgamer"}`)
	// auth is dropped behind the router's back, e.g. by an expired session
	g.Logout(&gate.BrowserSession{ID: c.cookie.Value, Store: s.sessions.Bind(c.cookie.Value)})
	st := c.state(http.MethodGet, "/api/state", "")
	if st.View != view.Games || st.Renderable {
		t.Fatalf("expected games view that is not renderable, got %+v", st)
	}
	_, body := c.do(http.MethodGet, "/", "")
	if strings.Contains(string(body), "Welcome") {
		t.Fatal("games content rendered without authentication")
	}
}

func TestStandalone(t *testing.T) {
	s, g := newTestServer(t)
	c := &client{t: t, app: s.server}
	if status, _ := c.do(http.MethodGet, "/standalone", ""); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var res standaloneResponse
	for i, k := range "2133767" {
		_, data := c.do(http.MethodPost, "/api/standalone/key", `{"key":"`+string(k)+`"}`)
		res = standaloneResponse{}
		_ = json.Unmarshal(data, &res)
		if i < 6 && res.Matched {
			t.Fatalf("matched early at %d", i)
		}
	}
	if !res.Matched || res.Location != secretPagePath {
		t.Fatalf("expected match, got %+v", res)
	}
	if status, _ := c.do(http.MethodGet, secretPagePath, ""); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if n := len(g.Attempts.List()); n != 0 {
		t.Fatalf("standalone must not log, got %d attempts", n)
	}
}

func TestAdminAPIBasicAuth(t *testing.T) {
	s, _ := newTestServer(t)
	c := &client{t: t, app: s.server}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Basic "+base64.StdEncoding.EncodeToString([]byte("x:admintalon")))
	res, err := c.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
}

func TestUnknownRouteUsesErrorHandler(t *testing.T) {
	s, _ := newTestServer(t)
	c := &client{t: t, app: s.server}
	status, body := c.do(http.MethodGet, "/does-not-exist", "")
	if status != fiber.StatusNotFound || !strings.Contains(string(body), `"not_found"`) {
		t.Fatalf("unexpected response %d %s", status, body)
	}
}
