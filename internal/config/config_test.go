package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/contravault/internal/storage"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != storage.DriverSQLite || !strings.HasSuffix(cfg.Storage.SQLitePath, "contravault.db") {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Focus.Work != 25*time.Minute || cfg.Focus.Break != 5*time.Minute {
		t.Fatalf("unexpected focus defaults: %+v", cfg.Focus)
	}
	if !cfg.Reminders.Enabled || cfg.Reminders.Lead != 15*time.Minute || cfg.Reminders.Interval != time.Minute {
		t.Fatalf("unexpected reminder defaults: %+v", cfg.Reminders)
	}
	if cfg.Auth.TokenTTL != 168*time.Hour || cfg.Server.Addr != ":8080" || cfg.File != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	body := "storage:\n  driver: mongo\n  mongo_database: vault\nfocus:\n  work: 50m\ntimezone: UTC\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONTRAVAULT_FOCUS_BREAK", "10m")
	t.Setenv("CONTRAVAULT_STORAGE_MONGO_DATABASE", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != storage.DriverMongo || cfg.Storage.MongoDatabase != "from-env" {
		t.Fatalf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.Focus.Work != 50*time.Minute || cfg.Focus.Break != 10*time.Minute {
		t.Fatalf("unexpected focus: %+v", cfg.Focus)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("unexpected location %v %v", loc, err)
	}
	if cfg.File != path {
		t.Fatalf("unexpected file %q", cfg.File)
	}
}

func TestLoadFindsProjectFile(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, "contravault.yaml"), []byte("user: alice\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.User != "alice" {
		t.Fatalf("expected user from project file, got %q", cfg.User)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	chdirTemp(t)
	cases := map[string]string{
		"CONTRAVAULT_STORAGE_DRIVER":     "postgres",
		"CONTRAVAULT_AUTH_TOKEN_TTL":     "0s",
		"CONTRAVAULT_TIMEZONE":           "Mars/Olympus",
		"CONTRAVAULT_REMINDERS_INTERVAL": "0s",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(""); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for a missing explicit file")
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "nested", FileName)
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default: %v", err)
	}
	if err := WriteDefault(path); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	focus, ok := doc["focus"].(map[string]any)
	if !ok || focus["work"] != "25m" {
		t.Fatalf("unexpected focus section: %#v", doc["focus"])
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load written defaults: %v", err)
	}
	if cfg.Focus.Work != 25*time.Minute || cfg.Auth.CookieName != "contravault_session" {
		t.Fatalf("unexpected reloaded config: %+v", cfg)
	}
}
