package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Provider defaults.
const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.4
	DefaultPort        = 18790
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultPort
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "loopback"
	}
	if cfg.Gateway.Auth.Mode == "" {
		cfg.Gateway.Auth.Mode = "none"
	}
	if cfg.Gateway.MaxConnections == 0 {
		cfg.Gateway.MaxConnections = 1000
	}

	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "gemini"
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultModel
	}
	if cfg.Provider.Temperature == nil {
		t := DefaultTemperature
		cfg.Provider.Temperature = &t
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 60 * time.Second
	}

	if cfg.Engagement.TeaserDelay == 0 {
		cfg.Engagement.TeaserDelay = 4 * time.Second
	}
	if cfg.Engagement.InactivityDelay == 0 {
		cfg.Engagement.InactivityDelay = 15 * time.Second
	}
	if cfg.Engagement.QuickReplyTurnLimit == 0 {
		cfg.Engagement.QuickReplyTurnLimit = 5
	}
	if cfg.Engagement.HistoryTurns == 0 {
		cfg.Engagement.HistoryTurns = 2
	}
	if cfg.Engagement.FailurePolicy == "" {
		cfg.Engagement.FailurePolicy = "silent"
	}

	if cfg.Responder.DemoDelay == 0 {
		cfg.Responder.DemoDelay = 1500 * time.Millisecond
	}

	if cfg.Leads.Store == "" {
		cfg.Leads.Store = "sqlite"
	}
	if cfg.Leads.RetentionDays == 0 {
		cfg.Leads.RetentionDays = 90
	}
	if cfg.Leads.PruneSchedule == "" {
		cfg.Leads.PruneSchedule = "@daily"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}
