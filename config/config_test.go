package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddress != ":8545" || cfg.RateLimit.Burst != 40 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.DataDir != cfg.DataDir || reloaded.Auth.Issuer != "fracledger" {
		t.Fatalf("reloaded config differs: %+v", reloaded)
	}
}

func TestLoadParsesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `ListenAddress = "127.0.0.1:9000"
DataDir = "./data"
GenesisFile = "genesis.yaml"
Environment = "testnet"

[auth]
HMACSecret = "file-secret"
HMACSecretEnv = ""
Issuer = "issuer"
Audience = "frac-rpc"

[rate_limit]
RatePerSecond = 5.5
Burst = 10

[telemetry]
Endpoint = "otel:4318"
Traces = true

[log]
Level = "debug"
File = "/var/log/fracd.log"

[journal]
Driver = "sqlite"
DSN = "file:journal.db"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddress != "127.0.0.1:9000" || cfg.Environment != "testnet" {
		t.Fatalf("unexpected top level %+v", cfg)
	}
	if cfg.Auth.Audience != "frac-rpc" || cfg.HMACSecret() != "file-secret" {
		t.Fatalf("unexpected auth %+v", cfg.Auth)
	}
	if cfg.RateLimit.RatePerSecond != 5.5 || cfg.RateLimit.Burst != 10 {
		t.Fatalf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if !cfg.Telemetry.Traces || cfg.Telemetry.Metrics {
		t.Fatalf("unexpected telemetry %+v", cfg.Telemetry)
	}
	if cfg.Log.Level != "debug" || cfg.Log.MaxSizeMB != 100 {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if cfg.Journal.Driver != "sqlite" {
		t.Fatalf("unexpected journal %+v", cfg.Journal)
	}
}

func TestHMACSecretPrefersEnvironment(t *testing.T) {
	cfg := Default()
	cfg.Auth.HMACSecret = "from-file"
	t.Setenv(cfg.Auth.HMACSecretEnv, "from-env")
	if got := cfg.HMACSecret(); got != "from-env" {
		t.Fatalf("expected env secret, got %q", got)
	}
	t.Setenv(cfg.Auth.HMACSecretEnv, "")
	if got := cfg.HMACSecret(); got != "from-file" {
		t.Fatalf("expected file secret, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty listen":     func(c *Config) { c.ListenAddress = "" },
		"empty data dir":   func(c *Config) { c.DataDir = " " },
		"negative rate":    func(c *Config) { c.RateLimit.RatePerSecond = -1 },
		"zero burst":       func(c *Config) { c.RateLimit.Burst = 0 },
		"no otel endpoint": func(c *Config) { c.Telemetry.Metrics = true; c.Telemetry.Endpoint = "" },
		"journal no dsn":   func(c *Config) { c.Journal.Driver = "postgres" },
		"journal driver":   func(c *Config) { c.Journal.Driver = "mysql"; c.Journal.DSN = "x" },
		"negative backups": func(c *Config) { c.Log.MaxBackups = -1 },
		"webhook secret":   func(c *Config) { c.Webhook.Endpoint = "http://hook"; c.Webhook.SecretEnv = "" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if strings.TrimSpace(err.Error()) == "" {
			t.Fatalf("%s: empty error message", name)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
