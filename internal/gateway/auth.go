package gateway

import (
	"crypto/subtle"
	"os"

	"github.com/soyeahso/concierge/internal/config"
)

// Auth modes.
const (
	AuthModeNone  = "none"
	AuthModeToken = "token"
)

// AuthResult is the outcome of an authentication attempt.
type AuthResult struct {
	OK     bool   `json:"ok"`
	Method string `json:"method,omitempty"` // "none" | "token"
	Reason string `json:"reason,omitempty"`
}

// ResolvedAuth holds the resolved auth configuration for the gateway.
type ResolvedAuth struct {
	Mode  string
	Token string
}

// ResolveAuth resolves authentication settings from config and environment.
// Token precedence: config value, then CONCIERGE_GATEWAY_TOKEN. The public
// widget runs unauthenticated, so an empty mode means "none".
func ResolveAuth(cfg config.GatewayAuth) ResolvedAuth {
	auth := ResolvedAuth{Mode: cfg.Mode, Token: cfg.Token}
	if auth.Token == "" {
		auth.Token = os.Getenv("CONCIERGE_GATEWAY_TOKEN")
	}
	if auth.Mode == "" {
		auth.Mode = AuthModeNone
	}
	return auth
}

// Authorize checks the provided ConnectAuth against the resolved server auth.
func Authorize(serverAuth ResolvedAuth, clientAuth *ConnectAuth) AuthResult {
	switch serverAuth.Mode {
	case AuthModeNone:
		return AuthResult{OK: true, Method: AuthModeNone}

	case AuthModeToken:
		if serverAuth.Token == "" {
			return AuthResult{OK: false, Reason: "server token not configured"}
		}
		if clientAuth == nil {
			return AuthResult{OK: false, Reason: "no credentials provided"}
		}
		if clientAuth.Token == "" {
			return AuthResult{OK: false, Reason: "token required"}
		}
		if !safeEqual(clientAuth.Token, serverAuth.Token) {
			return AuthResult{OK: false, Reason: "token_mismatch"}
		}
		return AuthResult{OK: true, Method: AuthModeToken}

	default:
		return AuthResult{OK: false, Reason: "unknown auth mode: " + serverAuth.Mode}
	}
}

// safeEqual is a constant-time string comparison that does not leak the
// secret length.
func safeEqual(a, b string) bool {
	lenMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	cmp := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(lenMatch, cmp, 0) == 1
}
