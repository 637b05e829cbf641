package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/soyeahso/concierge/internal/config"
	"github.com/stretchr/testify/assert"
)

// --- safeEqual tests ---

func TestSafeEqual(t *testing.T) {
	assert.True(t, safeEqual("secret", "secret"))
	assert.True(t, safeEqual("", ""))
	assert.False(t, safeEqual("secret", "wrong"))
	assert.False(t, safeEqual("short", "longer-string"))
	assert.False(t, safeEqual("secret", ""))
	assert.False(t, safeEqual("", "secret"))
}

// --- ResolveAuth tests ---

func TestResolveAuth_DefaultsToNone(t *testing.T) {
	t.Setenv("CONCIERGE_GATEWAY_TOKEN", "")
	auth := ResolveAuth(config.GatewayAuth{})
	assert.Equal(t, AuthModeNone, auth.Mode)
	assert.Empty(t, auth.Token)
}

func TestResolveAuth_TokenFromConfig(t *testing.T) {
	auth := ResolveAuth(config.GatewayAuth{Mode: "token", Token: "config-token"})
	assert.Equal(t, AuthModeToken, auth.Mode)
	assert.Equal(t, "config-token", auth.Token)
}

func TestResolveAuth_TokenFromEnv(t *testing.T) {
	t.Setenv("CONCIERGE_GATEWAY_TOKEN", "env-token")
	auth := ResolveAuth(config.GatewayAuth{Mode: "token"})
	assert.Equal(t, "env-token", auth.Token)
}

func TestResolveAuth_ConfigOverridesEnv(t *testing.T) {
	t.Setenv("CONCIERGE_GATEWAY_TOKEN", "env-token")
	auth := ResolveAuth(config.GatewayAuth{Mode: "token", Token: "config-token"})
	assert.Equal(t, "config-token", auth.Token)
}

// --- Authorize tests ---

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name       string
		server     ResolvedAuth
		client     *ConnectAuth
		wantOK     bool
		wantMethod string
		wantReason string
	}{
		{"none without credentials", ResolvedAuth{Mode: "none"}, nil, true, "none", ""},
		{"none ignores token", ResolvedAuth{Mode: "none"}, &ConnectAuth{Token: "x"}, true, "none", ""},
		{"token match", ResolvedAuth{Mode: "token", Token: "secret"}, &ConnectAuth{Token: "secret"}, true, "token", ""},
		{"token mismatch", ResolvedAuth{Mode: "token", Token: "secret"}, &ConnectAuth{Token: "wrong"}, false, "", "token_mismatch"},
		{"token empty", ResolvedAuth{Mode: "token", Token: "secret"}, &ConnectAuth{}, false, "", "token required"},
		{"token nil credentials", ResolvedAuth{Mode: "token", Token: "secret"}, nil, false, "", "no credentials provided"},
		{"server token missing", ResolvedAuth{Mode: "token"}, &ConnectAuth{Token: "x"}, false, "", "server token not configured"},
		{"unknown mode", ResolvedAuth{Mode: "password"}, &ConnectAuth{Token: "x"}, false, "", "unknown auth mode: password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Authorize(tt.server, tt.client)
			assert.Equal(t, tt.wantOK, got.OK)
			assert.Equal(t, tt.wantMethod, got.Method)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

// --- authRateLimiter tests ---

func TestAuthRateLimiter_AllowInitial(t *testing.T) {
	limiter := newAuthRateLimiter()
	assert.True(t, limiter.allow("192.168.1.1:12345"))
}

func TestAuthRateLimiter_AllowAfterFewFailures(t *testing.T) {
	limiter := newAuthRateLimiter()
	for range 5 {
		limiter.recordFailure("192.168.1.1:12345")
	}
	assert.True(t, limiter.allow("192.168.1.1:12345"))
}

func TestAuthRateLimiter_BlockAfterMaxFailures(t *testing.T) {
	limiter := newAuthRateLimiter()
	for range authRateMaxFails {
		limiter.recordFailure("192.168.1.1:12345")
	}
	assert.False(t, limiter.allow("192.168.1.1:54321"), "same host, other port")
	assert.True(t, limiter.allow("192.168.1.2:12345"))
}

func TestAuthRateLimiter_IPWithoutPort(t *testing.T) {
	limiter := newAuthRateLimiter()
	for range authRateMaxFails {
		limiter.recordFailure("192.168.1.1")
	}
	assert.False(t, limiter.allow("192.168.1.1"))
}

func TestAuthRateLimiter_ExpiredFailures(t *testing.T) {
	limiter := newAuthRateLimiter()

	limiter.mu.Lock()
	oldTime := time.Now().Add(-authRateWindow - time.Minute)
	for range authRateMaxFails {
		limiter.failures["192.168.1.1"] = append(limiter.failures["192.168.1.1"], oldTime)
	}
	limiter.mu.Unlock()

	assert.True(t, limiter.allow("192.168.1.1:12345"))
}

func TestAuthRateLimiter_Prune(t *testing.T) {
	limiter := newAuthRateLimiter()
	limiter.recordFailure("10.0.0.1:1")
	limiter.recordFailure("10.0.0.2:1")

	limiter.prune(time.Now())
	assert.Len(t, limiter.failures, 2)

	limiter.prune(time.Now().Add(authRateWindow + time.Second))
	assert.Empty(t, limiter.failures)
}

// --- checkWebSocketOrigin tests ---

func originRequest(origin string) *http.Request {
	req := httptest.NewRequest("GET", "/ws", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestCheckWebSocketOrigin(t *testing.T) {
	site := []string{"https://grandprime.com.br", "https://www.grandprime.com.br"}
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", nil, "", true},
		{"empty allowed list", nil, "https://grandprime.com.br", false},
		{"wildcard", []string{"*"}, "https://anything.example", true},
		{"site match", site, "https://www.grandprime.com.br", true},
		{"site mismatch", site, "https://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkWebSocketOrigin(tt.allowed)(originRequest(tt.origin)))
		})
	}
}
