package llm

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/soyeahso/concierge/internal/config"
	"github.com/soyeahso/concierge/internal/logging"
)

// ProviderError is returned when a completion provider fails.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP-like status code (401, 429, 500, etc.)
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Registry holds the completion clients and resolves model names to them.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]Client // provider name → client
	aliases  map[string]string // model alias → provider name
	fallback string            // default provider name
	log      *logging.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		clients: make(map[string]Client),
		aliases: make(map[string]string),
		log:     log.Sub("llm.registry"),
	}
}

// Register adds a client under the given provider name.
func (r *Registry) Register(name string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	r.log.Info().Str("provider", name).Msg("registered completion provider")
}

// Alias maps a model name/alias to a provider.
// e.g., Alias("gemini-2.5-flash", "gemini") routes that model to the gemini client.
func (r *Registry) Alias(model, provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[model] = provider
}

// SetFallback sets the default provider used when no model/provider match is found.
func (r *Registry) SetFallback(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = provider
}

// Resolve returns the Client for the given model reference.
// Resolution order: exact provider name → alias → fallback.
func (r *Registry) Resolve(model string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Direct provider name match
	if c, ok := r.clients[model]; ok {
		return c, nil
	}

	// Alias lookup
	if provider, ok := r.aliases[model]; ok {
		if c, ok := r.clients[provider]; ok {
			return c, nil
		}
	}

	// Fallback
	if r.fallback != "" {
		if c, ok := r.clients[r.fallback]; ok {
			return c, nil
		}
	}

	return nil, fmt.Errorf("no LLM provider for model %q", model)
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for n := range r.clients {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Len reports how many providers are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// NewRegistryFromConfig builds a Registry from the provider section. The
// gemini client is registered only when an API key is present; otherwise
// the registry stays empty and callers fall back to the demo responder.
func NewRegistryFromConfig(cfg config.ProviderConfig, log *logging.Logger) *Registry {
	reg := NewRegistry(log)

	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	switch name {
	case "gemini":
		if cfg.APIKey == "" {
			reg.log.Warn().Msg("no API key configured, gemini provider disabled")
			return reg
		}
		client := NewGeminiClient(cfg.APIKey, cfg.Model,
			WithEndpoint(cfg.Endpoint),
			WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		)
		reg.Register("gemini", client)
		reg.SetFallback("gemini")
		if cfg.Model != "" {
			reg.Alias(cfg.Model, "gemini")
		}
	case "demo", "":
	default:
		reg.log.Warn().Str("provider", name).Msg("unknown provider, none registered")
	}
	return reg
}
