package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, k := range []string{EnvDriver, EnvDSN, EnvOwner, EnvLogLevel} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("Load = %+v, want defaults", cfg)
	}
	if Exists() {
		t.Fatal("Exists() = true before Save")
	}
	if want := filepath.Join(dir, "data", "grana", "grana.db"); cfg.DSN() != want {
		t.Fatalf("DSN = %q, want %q", cfg.DSN(), want)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	isolate(t)

	cfg := DefaultConfig()
	cfg.General.Owner = "ana"
	cfg.Database.BusyTimeoutMS = 250
	cfg.Log.Level = "debug"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Fatalf("Load = %+v, want %+v", got, cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	isolate(t)
	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	data := "[general]\nowner = \"bia\"\n"
	if err := os.WriteFile(ConfigPath(), []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.Owner != "bia" || cfg.General.Currency != "BRL" || cfg.Database.Driver != "sqlite" {
		t.Fatalf("Load = %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvDSN, "postgres://grana@localhost/grana?sslmode=disable")
	t.Setenv(EnvOwner, "caio")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres inferred from DATABASE_URL", cfg.Database.Driver)
	}
	if cfg.General.Owner != "caio" || cfg.Log.Level != "warn" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)
	t.Setenv(EnvDriver, "mysql")
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted an unknown driver")
	}

	t.Setenv(EnvDriver, "postgres")
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted postgres without a dsn")
	}
}

func TestLoadEnvFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("GRANA_TEST_OWNER=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GRANA_TEST_OWNER", "")
	os.Unsetenv("GRANA_TEST_OWNER")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("GRANA_TEST_OWNER"); got != "from-dotenv" {
		t.Fatalf("GRANA_TEST_OWNER = %q", got)
	}
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file: %v", err)
	}
}
