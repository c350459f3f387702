package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/contravault/internal/storage"
)

const (
	EnvPrefix = "CONTRAVAULT"
	FileName  = "config.yaml"
	AppDir    = "contravault"
)

type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Focus     FocusConfig     `mapstructure:"focus"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	Timezone  string          `mapstructure:"timezone"`
	// User is the identity the CLI acts as when no token is given.
	User string `mapstructure:"user"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-"`
}

type StorageConfig struct {
	Driver        string `mapstructure:"driver"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	CookieName         string        `mapstructure:"cookie_name"`
	GoogleClientID     string        `mapstructure:"google_client_id"`
	GoogleClientSecret string        `mapstructure:"google_client_secret"`
	GoogleRedirectURL  string        `mapstructure:"google_redirect_url"`
}

type FocusConfig struct {
	Work  time.Duration `mapstructure:"work"`
	Break time.Duration `mapstructure:"break"`
}

// RemindersConfig drives the deadline watcher started by serve.
type RemindersConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Lead     time.Duration `mapstructure:"lead"`
	Interval time.Duration `mapstructure:"interval"`
}

func DataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppDir)
	}
	return "."
}

func defaults() map[string]any {
	return map[string]any{
		"storage.driver":            storage.DriverSQLite,
		"storage.sqlite_path":       filepath.Join(DataDir(), "contravault.db"),
		"storage.mongo_uri":         "mongodb://localhost:27017",
		"storage.mongo_database":    "contravault",
		"server.addr":               ":8080",
		"server.mode":               "release",
		"server.shutdown_timeout":   "10s",
		"auth.jwt_secret":           "",
		"auth.token_ttl":            "168h",
		"auth.cookie_name":          "contravault_session",
		"auth.google_client_id":     "",
		"auth.google_client_secret": "",
		"auth.google_redirect_url":  "http://localhost:8080/auth/google/callback",
		"focus.work":                "25m",
		"focus.break":               "5m",
		"reminders.enabled":         true,
		"reminders.lead":            "15m",
		"reminders.interval":        "1m",
		"timezone":                  "Local",
		"user":                      "local",
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	return v
}

// Load reads defaults, then the YAML file at path (or the first file found in
// the search paths when path is empty), then CONTRAVAULT_* variables.
// CONTRAVAULT_STORAGE_DRIVER overrides storage.driver.
func Load(path string) (Config, error) {
	v := newViper()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = findFile()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.File = path
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func SearchPaths() []string {
	return []string{
		filepath.Join(DataDir(), FileName),
		filepath.Join(".", "contravault.yaml"),
	}
}

func findFile() string {
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case storage.DriverSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			errs = append(errs, errors.New("config: storage.sqlite_path is required"))
		}
	case storage.DriverMongo:
		if strings.TrimSpace(c.Storage.MongoURI) == "" || strings.TrimSpace(c.Storage.MongoDatabase) == "" {
			errs = append(errs, errors.New("config: storage.mongo_uri and storage.mongo_database are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("config: auth.token_ttl must be positive"))
	}
	if c.Focus.Work <= 0 || c.Focus.Break <= 0 {
		errs = append(errs, errors.New("config: focus durations must be positive"))
	}
	if c.Reminders.Lead < 0 || c.Reminders.Interval <= 0 {
		errs = append(errs, errors.New("config: reminders.lead must not be negative and reminders.interval must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:        c.Storage.Driver,
		SQLitePath:    c.Storage.SQLitePath,
		MongoURI:      c.Storage.MongoURI,
		MongoDatabase: c.Storage.MongoDatabase,
	}
}

// DefaultYAML renders the default settings as a config file.
func DefaultYAML() ([]byte, error) {
	return yaml.Marshal(newViper().AllSettings())
}

// WriteDefault writes the default config file to path unless one exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	out, err := DefaultYAML()
	if err != nil {
		return fmt.Errorf("config: encode defaults: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	return os.WriteFile(path, out, 0o600)
}
