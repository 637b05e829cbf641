package config

import (
	"fmt"
	"slices"

	"github.com/robfig/cron/v3"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// oneOf reports an issue when value is set and not in allowed.
func oneOf(issues []ValidationIssue, path, value string, allowed []string) []ValidationIssue {
	if value == "" || slices.Contains(allowed, value) {
		return issues
	}
	return append(issues, ValidationIssue{
		Path:    path,
		Message: fmt.Sprintf("must be one of %v, got %q", allowed, value),
	})
}

// nonNegative reports an issue when n is below zero.
func nonNegative[T ~int | ~int64](issues []ValidationIssue, path string, n T) []ValidationIssue {
	if n >= 0 {
		return issues
	}
	return append(issues, ValidationIssue{
		Path:    path,
		Message: fmt.Sprintf("must not be negative, got %v", n),
	})
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Gateway
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}
	issues = oneOf(issues, "gateway.bind", cfg.Gateway.Bind, []string{"auto", "lan", "loopback", "custom"})
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.customBindHost",
			Message: "required when bind is custom",
		})
	}
	issues = oneOf(issues, "gateway.auth.mode", cfg.Gateway.Auth.Mode, []string{"none", "token"})
	if cfg.Gateway.TLS.Enabled && (cfg.Gateway.TLS.CertPath == "" || cfg.Gateway.TLS.KeyPath == "") {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.tls",
			Message: "certPath and keyPath are required when TLS is enabled",
		})
	}
	issues = nonNegative(issues, "gateway.maxConnections", cfg.Gateway.MaxConnections)

	// Provider. A missing API key is not an issue: the demo responder
	// takes over.
	issues = oneOf(issues, "provider.name", cfg.Provider.Name, []string{"gemini", "demo"})
	if t := cfg.Provider.Temperature; t != nil && (*t < 0 || *t > 2) {
		issues = append(issues, ValidationIssue{
			Path:    "provider.temperature",
			Message: fmt.Sprintf("must be 0-2, got %g", *t),
		})
	}
	issues = nonNegative(issues, "provider.maxTokens", cfg.Provider.MaxTokens)
	issues = nonNegative(issues, "provider.timeout", cfg.Provider.Timeout)

	// Engagement
	issues = nonNegative(issues, "engagement.teaserDelay", cfg.Engagement.TeaserDelay)
	issues = nonNegative(issues, "engagement.inactivityDelay", cfg.Engagement.InactivityDelay)
	issues = nonNegative(issues, "engagement.quickReplyTurnLimit", cfg.Engagement.QuickReplyTurnLimit)
	issues = nonNegative(issues, "engagement.historyTurns", cfg.Engagement.HistoryTurns)
	issues = nonNegative(issues, "engagement.replyTimeout", cfg.Engagement.ReplyTimeout)
	issues = oneOf(issues, "engagement.failurePolicy", cfg.Engagement.FailurePolicy, []string{"silent", "apology"})

	// Responder
	issues = nonNegative(issues, "responder.demoDelay", cfg.Responder.DemoDelay)

	// Leads
	issues = oneOf(issues, "leads.store", cfg.Leads.Store, []string{"sqlite", "memory", "none"})
	issues = nonNegative(issues, "leads.retentionDays", cfg.Leads.RetentionDays)
	if cfg.Leads.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Leads.PruneSchedule); err != nil {
			issues = append(issues, ValidationIssue{
				Path:    "leads.pruneSchedule",
				Message: err.Error(),
			})
		}
	}

	// Logging
	issues = oneOf(issues, "logging.level", cfg.Logging.Level,
		[]string{"silent", "fatal", "error", "warn", "info", "debug", "trace"})
	issues = oneOf(issues, "logging.consoleStyle", cfg.Logging.ConsoleStyle, []string{"pretty", "compact", "json"})

	return issues
}
