package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	handler := loggingMiddleware(testLog())(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestLoggingMiddleware_KeepsHijacker(t *testing.T) {
	var hijackable bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hijackable = w.(http.Hijacker)
	})

	ts := httptest.NewServer(loggingMiddleware(testLog())(inner))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if assert.NoError(t, err) {
		resp.Body.Close()
	}
	assert.True(t, hijackable)
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	handler := requestIDMiddleware(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRequestIDMiddleware_PreservesExisting(t *testing.T) {
	handler := requestIDMiddleware(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "custom-id-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "custom-id-123", rr.Header().Get("X-Request-ID"))
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"unconfigured denies", nil, "https://grandprime.com.br", ""},
		{"wildcard", []string{"*"}, "http://localhost:3000", "http://localhost:3000"},
		{"specific match", []string{"https://grandprime.com.br"}, "https://grandprime.com.br", "https://grandprime.com.br"},
		{"specific mismatch", []string{"https://grandprime.com.br"}, "https://evil.example", ""},
		{"no origin header", []string{"*"}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := corsMiddleware(tt.allowed)(okHandler())

			req := httptest.NewRequest("GET", "/api/contexts", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.want, rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	handler := corsMiddleware([]string{"*"})(okHandler())

	req := httptest.NewRequest("OPTIONS", "/api/contexts", nil)
	req.Header.Set("Origin", "https://grandprime.com.br")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Equal(t, "GET, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
}
