package config

import "time"

// Config is the root configuration for concierge.
type Config struct {
	Gateway    GatewayConfig    `yaml:"gateway,omitempty"`
	Provider   ProviderConfig   `yaml:"provider,omitempty"`
	Engagement EngagementConfig `yaml:"engagement,omitempty"`
	Responder  ResponderConfig  `yaml:"responder,omitempty"`
	Leads      LeadsConfig      `yaml:"leads,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
}

// GatewayConfig controls the widget HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	TLS            GatewayTLS  `yaml:"tls,omitempty"`
	// AllowedOrigins lists the site origins allowed to open the widget socket.
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
	MaxConnections int      `yaml:"maxConnections,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode  string `yaml:"mode,omitempty"` // "none" | "token"
	Token string `yaml:"token,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// ProviderConfig selects the generative-language backend.
type ProviderConfig struct {
	Name        string   `yaml:"name,omitempty"` // "gemini" | "demo"
	APIKey      string   `yaml:"apiKey,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	Endpoint    string   `yaml:"endpoint,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   int      `yaml:"maxTokens,omitempty"`
	// SystemPrompt replaces the built-in consultant persona when set.
	SystemPrompt string        `yaml:"systemPrompt,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
}

// EngagementConfig tunes the controller timings and failure behaviour.
type EngagementConfig struct {
	TeaserDelay         time.Duration `yaml:"teaserDelay,omitempty"`
	InactivityDelay     time.Duration `yaml:"inactivityDelay,omitempty"`
	QuickReplyTurnLimit int           `yaml:"quickReplyTurnLimit,omitempty"`
	HistoryTurns        int           `yaml:"historyTurns,omitempty"`
	FailurePolicy       string        `yaml:"failurePolicy,omitempty"` // "silent" | "apology"
	ReplyTimeout        time.Duration `yaml:"replyTimeout,omitempty"`
}

// ResponderConfig tunes the response adapters.
type ResponderConfig struct {
	DemoDelay time.Duration `yaml:"demoDelay,omitempty"`
	// EmptyReplyText replaces an empty completion. Nil uses the built-in
	// line; an explicit empty string keeps empty replies as they are.
	EmptyReplyText *string `yaml:"emptyReplyText,omitempty"`
}

// LeadsConfig controls capture of scheduling requests.
type LeadsConfig struct {
	Store           string `yaml:"store,omitempty"` // "sqlite" | "memory" | "none"
	Path            string `yaml:"path,omitempty"`
	RetentionDays   int    `yaml:"retentionDays,omitempty"`
	PruneSchedule   string `yaml:"pruneSchedule,omitempty"`
	SlackWebhookURL string `yaml:"slackWebhookUrl,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}
