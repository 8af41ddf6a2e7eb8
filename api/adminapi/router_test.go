package adminapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/remote"
	"github.com/mathhub-edu/mathhub/storage"
	"github.com/mathhub-edu/mathhub/storage/model"
)

func newTestApp(t *testing.T, resolver SessionResolver) (*fiber.App, *gate.Gate) {
	t.Helper()
	return newTestAppWithDeps(t, resolver, gate.Deps{})
}

func newTestAppWithDeps(t *testing.T, resolver SessionResolver, deps gate.Deps) (*fiber.App, *gate.Gate) {
	t.Helper()
	g := gate.New(storage.NewMemoryStorage(), gate.Config{}, deps)
	app := fiber.New()
	if err := Register(app.Group("/api/v1/admin"), "http://localhost:7672", g, &Options{Sessions: resolver}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return app, g
}

func basic(password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:"+password))
}

func do(t *testing.T, app *fiber.App, method, path, auth, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(fiber.HeaderAuthorization, auth)
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	data, _ := io.ReadAll(res.Body)
	return res.StatusCode, data
}

func TestAuthRequired(t *testing.T) {
	app, _ := newTestApp(t, nil)
	if status, _ := do(t, app, http.MethodGet, "/api/v1/admin/logs", "", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if status, _ := do(t, app, http.MethodGet, "/api/v1/admin/logs", basic("wrong"), ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if status, _ := do(t, app, http.MethodGet, "/api/v1/admin/logs", basic("ADMINTALON"), ""); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	// docs are public
	if status, _ := do(t, app, http.MethodGet, "/api/v1/admin/openapi.yaml", "", ""); status != fiber.StatusOK {
		t.Fatalf("expected 200 for openapi.yaml, got %d", status)
	}
}

type configSource struct {
	conf *remote.Config
	err  error
}

func (*configSource) Configured() bool { return true }

func (s *configSource) GetConfig(context.Context) (*remote.Config, error) {
	return s.conf, s.err
}

func TestBasicAuthUsesRemoteAdminCode(t *testing.T) {
	src := &configSource{conf: &remote.Config{AdminCode: "rotated-secret"}}
	app, g := newTestAppWithDeps(t, nil, gate.Deps{Source: src})

	bs := &gate.BrowserSession{ID: "s", Store: storage.NewMemorySessions(0).Bind("s")}
	if r := g.AttemptLogin(context.Background(), bs, "root", "admintalon"); r.Success {
		t.Fatalf("replaced default admin code must not open the gate, got %+v", r)
	}
	if status, _ := do(t, app, http.MethodDelete, "/api/v1/admin/logs", basic("admintalon"), ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for replaced admin code, got %d", status)
	}
	if n := len(g.Attempts.List()); n != 1 {
		t.Fatalf("log must be untouched, got %d entries", n)
	}
	if status, _ := do(t, app, http.MethodGet, "/api/v1/admin/logs", basic("ROTATED-secret"), ""); status != fiber.StatusOK {
		t.Fatalf("expected 200 for remote admin code, got %d", status)
	}

	// an unreachable endpoint keeps the last remote admin code in force
	src.conf, src.err = nil, errors.New("unreachable")
	if status, _ := do(t, app, http.MethodGet, "/api/v1/admin/logs", basic("admintalon"), ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 while endpoint is down, got %d", status)
	}
	status, body := do(t, app, http.MethodGet, "/api/v1/admin/admin-code", basic("rotated-secret"), "")
	var res adminCodeResponse
	_ = json.Unmarshal(body, &res)
	if status != fiber.StatusOK || res.Active != "rotated-secret" {
		t.Fatalf("unexpected admin code response %d %+v", status, res)
	}
}

func TestAdminSessionIsAccepted(t *testing.T) {
	bs := &gate.BrowserSession{ID: "s", Store: storage.NewMemorySessions(0).Bind("s")}
	app, g := newTestApp(t, func(*fiber.Ctx) *gate.BrowserSession { return bs })

	if status, _ := do(t, app, http.MethodGet, "/api/v1/admin/stats", "", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", status)
	}
	g.AttemptLogin(context.Background(), bs, "u", "gamer123")
	if status, _ := do(t, app, http.MethodGet, "/api/v1/admin/stats", "", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for non-admin, got %d", status)
	}
	g.AttemptLogin(context.Background(), bs, "root", "admintalon")
	status, body := do(t, app, http.MethodGet, "/api/v1/admin/stats", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", status)
	}
	var stats Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.Attempts != 2 || stats.Successful != 2 || stats.AdminLogins != 1 || stats.UniqueUsers != 2 || stats.Sessions != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestLogsEndpoint(t *testing.T) {
	app, g := newTestApp(t, nil)
	auth := basic("admintalon")
	for _, a := range []model.LoginAttempt{
		{Username: "a", Code: "x"},
		{Username: "b", Code: "gamer123", Success: true},
		{Username: "c", Code: "y"},
	} {
		g.Attempts.Record(a)
	}

	status, body := do(t, app, http.MethodGet, "/api/v1/admin/logs", auth, "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var items []model.LoginAttempt
	_ = json.Unmarshal(body, &items)
	if len(items) != 3 || items[0].Username != "c" || items[2].Username != "a" {
		t.Fatalf("expected newest first, got %+v", items)
	}

	_, body = do(t, app, http.MethodGet, "/api/v1/admin/logs?success=false&limit=1", auth, "")
	items = nil
	_ = json.Unmarshal(body, &items)
	if len(items) != 1 || items[0].Username != "c" {
		t.Fatalf("unexpected filtered log %+v", items)
	}

	if status, _ = do(t, app, http.MethodGet, "/api/v1/admin/logs?success=maybe", auth, ""); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}

	if status, _ = do(t, app, http.MethodDelete, "/api/v1/admin/logs", auth, ""); status != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", status)
	}
	if n := len(g.Attempts.List()); n != 0 {
		t.Fatalf("expected cleared log, got %d entries", n)
	}
}

func TestCodesEndpoints(t *testing.T) {
	app, g := newTestApp(t, nil)
	auth := basic("admintalon")

	if status, _ := do(t, app, http.MethodPost, "/api/v1/admin/codes", auth, `{"code":"newcode"}`); status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if status, _ := do(t, app, http.MethodPost, "/api/v1/admin/codes", auth, `{"code":""}`); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}

	status, body := do(t, app, http.MethodGet, "/api/v1/admin/codes", auth, "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var res codesResponse
	_ = json.Unmarshal(body, &res)
	if len(res.Local) != 1 || res.Local[0] != "newcode" {
		t.Fatalf("unexpected local codes %v", res.Local)
	}
	if len(res.All) != len(gate.DefaultBuiltinCodes)+1 {
		t.Fatalf("unexpected merged codes %v", res.All)
	}

	if r := g.AttemptLogin(context.Background(), nil, "u", "newcode"); !r.Success {
		t.Fatalf("added code must open the gate, got %+v", r)
	}

	if status, _ = do(t, app, http.MethodDelete, "/api/v1/admin/codes/newcode", auth, ""); status != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", status)
	}
	if status, _ = do(t, app, http.MethodDelete, "/api/v1/admin/codes/gamer123", auth, ""); status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for builtin code, got %d", status)
	}
}

func TestAdminCodeEndpoints(t *testing.T) {
	app, _ := newTestApp(t, nil)

	status, body := do(t, app, http.MethodPut, "/api/v1/admin/admin-code", basic("admintalon"), `{"code":"newadmin"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	// the old code no longer authenticates
	if status, _ = do(t, app, http.MethodGet, "/api/v1/admin/admin-code", basic("admintalon"), ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	status, body = do(t, app, http.MethodGet, "/api/v1/admin/admin-code", basic("newadmin"), "")
	var res adminCodeResponse
	_ = json.Unmarshal(body, &res)
	if status != fiber.StatusOK || res.Active != "newadmin" || res.Override != "newadmin" {
		t.Fatalf("unexpected admin code response %d %+v", status, res)
	}
	if status, _ = do(t, app, http.MethodDelete, "/api/v1/admin/admin-code", basic("newadmin"), ""); status != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", status)
	}
	if status, _ = do(t, app, http.MethodGet, "/api/v1/admin/sessions", basic("admintalon"), ""); status != fiber.StatusOK {
		t.Fatalf("expected default admin code to work again, got %d", status)
	}
}

func TestAdaptServerURLPort(t *testing.T) {
	tests := map[string]string{
		"https://example.org":      "https://example.org:9000",
		"https://example.org:8443": "https://example.org:9000",
		"":                         "",
	}
	for in, want := range tests {
		if got := adaptServerURLPort(in, 9000); got != want {
			t.Fatalf("adaptServerURLPort(%q) = %q, want %q", in, got, want)
		}
	}
}
