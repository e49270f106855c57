package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ListenAddress  string    `toml:"ListenAddress"`
	MetricsAddress string    `toml:"MetricsAddress"`
	DataDir        string    `toml:"DataDir"`
	GenesisFile    string    `toml:"GenesisFile"`
	Environment    string    `toml:"Environment"`
	Auth           Auth      `toml:"auth"`
	RateLimit      RateLimit `toml:"rate_limit"`
	Telemetry      Telemetry `toml:"telemetry"`
	Log            Log       `toml:"log"`
	Journal        Journal   `toml:"journal"`
	Webhook        Webhook   `toml:"webhook"`
}

// Default returns the configuration written for new nodes.
func Default() *Config {
	return &Config{
		ListenAddress:  ":8545",
		MetricsAddress: ":9100",
		DataDir:        "./frac-data",
		GenesisFile:    "genesis.yaml",
		Environment:    "local",
		Auth: Auth{
			HMACSecretEnv:    "FRAC_RPC_JWT_SECRET",
			Issuer:           "fracledger",
			ClockSkewSeconds: 30,
		},
		RateLimit: RateLimit{RatePerSecond: 20, Burst: 40},
		Telemetry: Telemetry{Endpoint: "localhost:4318", Insecure: true},
		Log:       Log{Level: "info", MaxSizeMB: 100, MaxBackups: 3},
		Webhook:   Webhook{SecretEnv: "FRAC_WEBHOOK_SECRET", MaxAttempts: 5},
	}
}

// Load loads the configuration from the given path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HMACSecret resolves the JWT secret, preferring the environment variable.
func (c *Config) HMACSecret() string {
	if env := strings.TrimSpace(c.Auth.HMACSecretEnv); env != "" {
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			return value
		}
	}
	return strings.TrimSpace(c.Auth.HMACSecret)
}

// WebhookSecret reads the webhook signing secret from the environment.
func (c *Config) WebhookSecret() string {
	if env := strings.TrimSpace(c.Webhook.SecretEnv); env != "" {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
