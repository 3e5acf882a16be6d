package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
server:
  address: 0.0.0.0
  port: 9000
storage:
  db_path: /data/db
  media_root: /data/media
session:
  autosave_quiet_ms: 250
  default_limit_seconds: 90
retention:
  enabled: true
  cron: "30 2 * * *"
  grace_minutes: 120
security:
  rate_limit:
    rps: 5
    burst: 10
logging:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9000" {
		t.Fatalf("addr: %q", cfg.Addr())
	}
	if cfg.Storage.DBPath != "/data/db" || cfg.Storage.MediaRoot != "/data/media" {
		t.Fatalf("storage: %+v", cfg.Storage)
	}
	if cfg.AutosaveQuiet() != 250*time.Millisecond {
		t.Fatalf("autosave quiet: %v", cfg.AutosaveQuiet())
	}
	if !cfg.Retention.Enabled || cfg.Retention.Cron != "30 2 * * *" || cfg.Retention.GraceMinutes != 120 {
		t.Fatalf("retention: %+v", cfg.Retention)
	}
	if cfg.Security.RateLimit.RPS != 5 || cfg.Security.RateLimit.Burst != 10 {
		t.Fatalf("rate limit: %+v", cfg.Security.RateLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [")); err == nil {
		t.Fatalf("invalid yaml accepted")
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config
	if cfg.Addr() != "127.0.0.1:8480" {
		t.Fatalf("default addr: %q", cfg.Addr())
	}
	if cfg.AutosaveQuiet() != time.Second {
		t.Fatalf("default quiet: %v", cfg.AutosaveQuiet())
	}
}

func TestLoadEffectiveEnvOverrides(t *testing.T) {
	p := writeConfig(t, sampleYAML)
	t.Setenv("DRAFTSTORE_CONFIG", p)
	t.Setenv("DRAFTSTORE_DB_PATH", "/env/db")
	t.Setenv("DRAFTSTORE_ADDR", "10.0.0.1:7000")

	eff, err := LoadEffective("")
	if err != nil {
		t.Fatalf("load effective: %v", err)
	}
	if eff.DBPath != "/env/db" {
		t.Fatalf("env db override lost: %q", eff.DBPath)
	}
	if eff.MediaRoot != "/data/media" {
		t.Fatalf("file media root lost: %q", eff.MediaRoot)
	}
	if eff.Addr != "10.0.0.1:7000" {
		t.Fatalf("env addr override lost: %q", eff.Addr)
	}
	if eff.Source != "file:"+p {
		t.Fatalf("source: %q", eff.Source)
	}
}

func TestSplitAddr(t *testing.T) {
	host, port := splitAddr("192.168.1.5:9090", 8480)
	if host != "192.168.1.5" || port != 9090 {
		t.Fatalf("got %q %d", host, port)
	}
	host, port = splitAddr("justhost", 8480)
	if host != "justhost" || port != 8480 {
		t.Fatalf("got %q %d", host, port)
	}
}
