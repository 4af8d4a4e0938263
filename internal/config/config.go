package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfig     = "MAILROOM_CONFIG"
	envStorePath  = "MAILROOM_STORE_PATH"
	envLogLevel   = "MAILROOM_LOG_LEVEL"
	envWebhookURL = "MAILROOM_WEBHOOK_URL"

	CredentialsFile    = "file"
	CredentialsKeyring = "keyring"

	DefaultFetchLimit = 50
	DefaultListen     = "127.0.0.1:8025"
)

// Config holds non-secret configuration loaded from YAML.
type Config struct {
	Store Store `yaml:"store"`
	Fetch Fetch `yaml:"fetch"`
	Log   Log   `yaml:"log"`
	API   API   `yaml:"api"`
}

// Store configures where accounts and their passwords live.
type Store struct {
	Path        string `yaml:"path"`
	Credentials string `yaml:"credentials"`
	KeyringDir  string `yaml:"keyring_dir"`
}

type Fetch struct {
	Limit int `yaml:"limit"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type API struct {
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	dir := defaultDir()
	return Config{
		Store: Store{
			Path:        filepath.Join(dir, "accounts.json"),
			Credentials: CredentialsFile,
			KeyringDir:  filepath.Join(dir, "keyring"),
		},
		Fetch: Fetch{Limit: DefaultFetchLimit},
		Log:   Log{Level: "info", Format: "text"},
		API:   API{Listen: DefaultListen},
	}
}

// Load reads configuration from a YAML file on top of the defaults and
// applies environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(expandHome(path))
		if err != nil {
			return Config{}, errors.Wrapf(err, "reading config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "decoding config %s", path)
		}
	}

	ApplyEnv(&cfg)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Store.KeyringDir = expandHome(cfg.Store.KeyringDir)
	return cfg, nil
}

// ApplyEnv overrides file values with MAILROOM_* environment variables.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envStorePath)); v != "" {
		cfg.Store.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		cfg.Log.Level = v
	}
}

// Validate performs basic validation on the loaded config.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Store.Path) == "" {
		return errors.New("store.path is required")
	}
	switch cfg.Store.Credentials {
	case CredentialsFile, CredentialsKeyring:
	default:
		return fmt.Errorf("store.credentials must be %q or %q, got %q", CredentialsFile, CredentialsKeyring, cfg.Store.Credentials)
	}
	if cfg.Fetch.Limit < 1 || cfg.Fetch.Limit > DefaultFetchLimit {
		return fmt.Errorf("fetch.limit must be between 1 and %d, got %d", DefaultFetchLimit, cfg.Fetch.Limit)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
	return nil
}

// Summary returns a concise config summary.
func Summary(cfg Config) string {
	reportingStatus := "disabled"
	if ReportingEnabled() {
		reportingStatus = "enabled"
	}
	return fmt.Sprintf(
		"Config summary\n"+
			"- account store: %s\n"+
			"- credentials: %s\n"+
			"- fetch limit: %d\n"+
			"- log: %s/%s\n"+
			"- api listen: %s\n"+
			"- announcement webhook: %s",
		cfg.Store.Path,
		defaultIfEmpty(cfg.Store.Credentials, CredentialsFile),
		cfg.Fetch.Limit,
		cfg.Log.Level,
		cfg.Log.Format,
		defaultIfEmpty(cfg.API.Listen, "(not set)"),
		reportingStatus,
	)
}

// WebhookURL returns the announcement webhook from the environment.
func WebhookURL() string {
	return strings.TrimSpace(os.Getenv(envWebhookURL))
}

// ReportingEnabled returns true when a webhook URL is configured via env var.
func ReportingEnabled() bool {
	return WebhookURL() != ""
}

func defaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".", ".mailroom")
	}
	return filepath.Join(dir, "mailroom")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
