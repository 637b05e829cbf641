package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Defaults()

	cfg.Gateway.Port = -1
	issues := Validate(&cfg)
	require.NotEmpty(t, issues)
	assert.Equal(t, "gateway.port", issues[0].Path)

	cfg.Gateway.Port = 70000
	assert.NotEmpty(t, Validate(&cfg))
}

func TestValidate_ValidPort(t *testing.T) {
	for _, port := range []int{0, 8080, 65535} {
		cfg := Defaults()
		cfg.Gateway.Port = port
		assert.Empty(t, Validate(&cfg), "port %d should be valid", port)
	}
}

func TestValidate_Enums(t *testing.T) {
	tests := []struct {
		path string
		set  func(*Config, string)
		good []string
		bad  string
	}{
		{"gateway.bind", func(c *Config, v string) { c.Gateway.Bind = v }, []string{"auto", "lan", "loopback", ""}, "tailnet"},
		{"gateway.auth.mode", func(c *Config, v string) { c.Gateway.Auth.Mode = v }, []string{"none", "token", ""}, "password"},
		{"provider.name", func(c *Config, v string) { c.Provider.Name = v }, []string{"gemini", "demo", ""}, "claude"},
		{"engagement.failurePolicy", func(c *Config, v string) { c.Engagement.FailurePolicy = v }, []string{"silent", "apology", ""}, "retry"},
		{"leads.store", func(c *Config, v string) { c.Leads.Store = v }, []string{"sqlite", "memory", "none", ""}, "postgres"},
		{"logging.level", func(c *Config, v string) { c.Logging.Level = v }, []string{"silent", "warn", "trace", ""}, "verbose"},
		{"logging.consoleStyle", func(c *Config, v string) { c.Logging.ConsoleStyle = v }, []string{"pretty", "compact", "json", ""}, "fancy"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			for _, v := range tt.good {
				cfg := Defaults()
				tt.set(&cfg, v)
				assert.Empty(t, Validate(&cfg), "%q should be valid", v)
			}

			cfg := Defaults()
			tt.set(&cfg, tt.bad)
			issues := Validate(&cfg)
			require.Len(t, issues, 1)
			assert.Equal(t, tt.path, issues[0].Path)
			assert.Contains(t, issues[0].Message, tt.bad)
		})
	}
}

func TestValidate_CustomBindNeedsHost(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Bind = "custom"
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "gateway.customBindHost", issues[0].Path)

	cfg.Gateway.CustomBindHost = "10.0.0.5"
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_TLSNeedsCertAndKey(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.TLS.Enabled = true
	cfg.Gateway.TLS.CertPath = "/etc/cert.pem"
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "gateway.tls", issues[0].Path)
}

func TestValidate_Temperature(t *testing.T) {
	cfg := Defaults()
	hot := 2.5
	cfg.Provider.Temperature = &hot
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "provider.temperature", issues[0].Path)
}

func TestValidate_NegativeDurations(t *testing.T) {
	cfg := Defaults()
	cfg.Engagement.TeaserDelay = -time.Second
	cfg.Engagement.ReplyTimeout = -time.Second
	cfg.Responder.DemoDelay = -time.Millisecond

	var paths []string
	for _, i := range Validate(&cfg) {
		paths = append(paths, i.Path)
	}
	assert.ElementsMatch(t, []string{
		"engagement.teaserDelay",
		"engagement.replyTimeout",
		"responder.demoDelay",
	}, paths)
}

func TestValidate_PruneSchedule(t *testing.T) {
	for _, sched := range []string{"@daily", "@every 6h", "0 3 * * *"} {
		cfg := Defaults()
		cfg.Leads.PruneSchedule = sched
		assert.Empty(t, Validate(&cfg), "schedule %q should be valid", sched)
	}

	cfg := Defaults()
	cfg.Leads.PruneSchedule = "every tuesday"
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "leads.pruneSchedule", issues[0].Path)
}

func TestValidate_MissingAPIKeyIsFine(t *testing.T) {
	cfg := Defaults()
	cfg.Provider.APIKey = ""
	assert.Empty(t, Validate(&cfg))
}

func TestValidationIssue_String(t *testing.T) {
	i := ValidationIssue{Path: "leads.store", Message: "bad"}
	assert.Equal(t, "leads.store: bad", i.String())
}
