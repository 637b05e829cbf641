package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soyeahso/concierge/internal/config"
	"github.com/soyeahso/concierge/internal/engagement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func httpServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	srv := New(cfg, testLog())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, target any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	return resp
}

func TestServerMethods(t *testing.T) {
	srv := New(config.Defaults(), testLog())
	assert.Equal(t, []string{
		"health",
		"widget.close",
		"widget.dismissTeaser",
		"widget.navigate",
		"widget.open",
		"widget.restart",
		"widget.send",
		"widget.state",
		"widget.toggle",
	}, srv.Methods())
}

func TestHealthEndpoint(t *testing.T) {
	ts := httpServer(t, config.Defaults())

	var health HealthResponse
	resp := getJSON(t, ts.URL+"/health", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health.Status)
	assert.Empty(t, health.Version)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestNotFoundEndpoint(t *testing.T) {
	ts := httpServer(t, config.Defaults())

	var body map[string]string
	resp := getJSON(t, ts.URL+"/nonexistent", &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "/nonexistent", body["path"])
}

func TestContextsEndpoint(t *testing.T) {
	ts := httpServer(t, config.Defaults())

	var got ContextsResponse
	resp := getJSON(t, ts.URL+"/api/contexts", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Len(t, got.Contexts, len(engagement.KnownContexts))
	assert.Equal(t, engagement.CopyFor(engagement.ContextNews), got.Contexts["news"])
	assert.Equal(t, engagement.DefaultCopy(), got.Default)
	assert.Equal(t, engagement.TeaserHomeText, got.Teaser.Home)
	assert.Equal(t, engagement.EscalationReplies(), got.Escalation.QuickReplies)
	assert.Equal(t, "Agendamento Recomendado", got.SchedulingCard.Title)
	assert.Equal(t, engagement.ApologyText, got.Apology)
}

func TestContextEndpoint(t *testing.T) {
	ts := httpServer(t, config.Defaults())

	tests := []struct {
		path      string
		wantTag   string
		wantKnown bool
		wantCopy  engagement.ContextCopy
	}{
		{"/api/contexts/home", "home", true, engagement.CopyFor(engagement.ContextHome)},
		{"/api/contexts/CLIENT_AREA", "client-area", true, engagement.CopyFor(engagement.ContextClientArea)},
		{"/api/contexts/careers", "careers", false, engagement.DefaultCopy()},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var got struct {
				Context string                 `json:"context"`
				Known   bool                   `json:"known"`
				Copy    engagement.ContextCopy `json:"copy"`
				Teaser  string                 `json:"teaser"`
			}
			resp := getJSON(t, ts.URL+tt.path, &got)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.wantTag, got.Context)
			assert.Equal(t, tt.wantKnown, got.Known)
			assert.Equal(t, tt.wantCopy, got.Copy)
			assert.NotEmpty(t, got.Teaser)
		})
	}
}

func TestContextsEndpoint_CORS(t *testing.T) {
	cfg := config.Defaults()
	cfg.Gateway.AllowedOrigins = []string{"https://grandprime.com.br"}
	ts := httpServer(t, cfg)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/contexts", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://grandprime.com.br")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "https://grandprime.com.br", resp.Header.Get("Access-Control-Allow-Origin"))
}
