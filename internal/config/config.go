package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all grana configuration.
type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	General    GeneralConfig    `toml:"general"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// DatabaseConfig selects and tunes the store.
type DatabaseConfig struct {
	Driver        string `toml:"driver"`
	DSN           string `toml:"dsn,omitempty"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Owner    string `toml:"owner"`
	Currency string `toml:"currency"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Environment variables that override the file.
const (
	EnvDriver   = "GRANA_DB_DRIVER"
	EnvDSN      = "DATABASE_URL"
	EnvOwner    = "GRANA_OWNER"
	EnvLogLevel = "GRANA_LOG_LEVEL"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:        "sqlite",
			BusyTimeoutMS: 5000,
		},
		General: GeneralConfig{
			Owner:    "me",
			Currency: "BRL",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "grana")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "grana")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory holding the SQLite database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "grana")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "grana")
}

// DefaultDBPath is where the SQLite database lives when no DSN is configured.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "grana.db")
}

// LoadEnvFile loads KEY=VALUE pairs from path (".env" when empty) into the
// process environment without overriding variables already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads the config file, returning defaults if it doesn't exist,
// applies environment overrides and validates the result.
func Load() (Config, error) {
	cfg, err := Read()
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	return cfg, cfg.Validate()
}

// Read reads the config file over the defaults, without environment
// overrides or validation.
func Read() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any of the grana environment variables that are set.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvDriver); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		cfg.Database.DSN = v
		if os.Getenv(EnvDriver) == "" && isPostgresURL(v) {
			cfg.Database.Driver = "postgres"
		}
	}
	if v := os.Getenv(EnvOwner); v != "" {
		cfg.General.Owner = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}

func isPostgresURL(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

// Validate reports settings no command could run with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown database driver %q (want sqlite or postgres)", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return errors.New("config: postgres needs a dsn or " + EnvDSN)
	}
	if strings.TrimSpace(c.General.Owner) == "" {
		return errors.New("config: general.owner is empty")
	}
	return nil
}

// DSN returns the configured DSN, or the default SQLite path.
func (c Config) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	if c.Database.Driver == "sqlite" {
		return DefaultDBPath()
	}
	return ""
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
