package config

import (
	"fmt"
	"strings"
)

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress must be set")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must be set")
	}
	if c.RateLimit.RatePerSecond < 0 {
		return fmt.Errorf("rate_limit: RatePerSecond must not be negative")
	}
	if c.RateLimit.RatePerSecond > 0 && c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit: Burst must be positive when a rate is set")
	}
	if (c.Telemetry.Traces || c.Telemetry.Metrics) && strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		return fmt.Errorf("telemetry: Endpoint required when exporters are enabled")
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return fmt.Errorf("log: rotation limits must not be negative")
	}
	switch strings.ToLower(strings.TrimSpace(c.Journal.Driver)) {
	case "":
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Journal.DSN) == "" {
			return fmt.Errorf("journal: DSN required for driver %q", c.Journal.Driver)
		}
	default:
		return fmt.Errorf("journal: unsupported driver %q", c.Journal.Driver)
	}
	if c.Webhook.MaxAttempts < 0 {
		return fmt.Errorf("webhook: MaxAttempts must not be negative")
	}
	if strings.TrimSpace(c.Webhook.Endpoint) != "" && strings.TrimSpace(c.Webhook.SecretEnv) == "" {
		return fmt.Errorf("webhook: SecretEnv required when an endpoint is set")
	}
	return nil
}
