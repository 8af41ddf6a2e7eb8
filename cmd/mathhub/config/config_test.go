package config

import (
	"testing"
	"time"

	"github.com/mathhub-edu/mathhub/gate"
	"github.com/mathhub-edu/mathhub/storage"
)

func TestDefaults(t *testing.T) {
	conf, err := LoadFromBytes([]byte("{}"))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if conf.Server.Port != 7672 {
		t.Fatalf("unexpected port %d", conf.Server.Port)
	}
	if conf.Storage.Driver != storage.DriverSQLite {
		t.Fatalf("unexpected driver %s", conf.Storage.Driver)
	}
	if conf.Gate.AdminCode != gate.DefaultAdminCode || len(conf.Gate.BuiltinCodes) != len(gate.DefaultBuiltinCodes) {
		t.Fatalf("unexpected gate conf %+v", conf.Gate)
	}
	if conf.Remote.SyncTimeout.Duration() != 8*time.Second {
		t.Fatalf("unexpected sync timeout %v", conf.Remote.SyncTimeout.Duration())
	}
	if conf.Trigger.ClickThreshold != 5 || conf.Trigger.ClickWindow.Duration() != 4*time.Second {
		t.Fatalf("unexpected trigger conf %+v", conf.Trigger)
	}
	if conf.Remote.IPLookupURL != "" {
		t.Fatalf("ip lookup must be opt-in, got %q", conf.Remote.IPLookupURL)
	}
	if !conf.API.Admin.Enabled {
		t.Fatal("admin api must be enabled by default")
	}
}

func TestOverrides(t *testing.T) {
	conf, err := LoadFromBytes(
		[]byte(`
server:
  port: 8080
storage:
  driver: postgres
  host: db
  password: secret
sessions:
  backend: redis
  redis_addr: localhost:6379
gate:
  admin_code: other
  builtin_codes: [a, b]
remote:
  script_url: https://script.example.org/exec
trigger:
  chord: alt+K
`),
	)
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if conf.Server.Port != 8080 || conf.Gate.AdminCode != "other" || len(conf.Gate.BuiltinCodes) != 2 {
		t.Fatalf("overrides not applied: %+v", conf)
	}
	if conf.Storage.DSN == "" {
		t.Fatal("expected dsn to be built from the dsn parts")
	}
	r := conf.redacted()
	if r.Storage.Password == "secret" || r.Storage.DSN == conf.Storage.DSN || r.Gate.AdminCode == "other" {
		t.Fatalf("secrets not redacted: %+v", r)
	}
	if conf.Storage.Password != "secret" {
		t.Fatal("redacting must not change the config")
	}
}

func TestInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"redis without addr": "sessions:\n  backend: redis\n",
		"unknown backend":    "sessions:\n  backend: mongo\n",
		"bad chord":          "trigger:\n  chord: hyper+X\n",
		"bad standalone":     "trigger:\n  standalone_code: abc\n",
		"relative url":       "remote:\n  script_url: /exec\n",
		"empty admin code":   "gate:\n  admin_code: \"\"\n",
		"missing log dir":    "logging:\n  internal:\n    dir: /does/not/exist\n",
		"badger without dir": "storage:\n  driver: badger\n  data_dir: \"\"\n",
	} {
		t.Run(
			name, func(t *testing.T) {
				if _, err := LoadFromBytes([]byte(data)); err == nil {
					t.Fatal("expected error")
				}
			},
		)
	}
}
