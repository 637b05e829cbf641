// Package responder implements engagement.Responder on top of a completion
// provider, with a canned demo fallback when none is configured.
package responder

import (
	"github.com/soyeahso/concierge/internal/config"
	"github.com/soyeahso/concierge/internal/engagement"
	"github.com/soyeahso/concierge/internal/llm"
	"github.com/soyeahso/concierge/internal/logging"
)

// New picks the responder for cfg: the LLM responder when the registry
// resolves a client for the configured model, the demo responder
// otherwise.
func New(reg *llm.Registry, cfg config.Config, log *logging.Logger) engagement.Responder {
	log = log.Sub("responder")

	client, err := reg.Resolve(cfg.Provider.Model)
	if err != nil {
		log.Warn().Msg("no completion provider configured, using demo responder")
		return NewDemo(cfg.Responder.DemoDelay, nil)
	}

	log.Info().
		Str("provider", client.Name()).
		Str("model", cfg.Provider.Model).
		Msg("responder ready")
	return NewLLM(client, LLMOptions{
		Model:          cfg.Provider.Model,
		SystemPrompt:   cfg.Provider.SystemPrompt,
		Temperature:    cfg.Provider.Temperature,
		MaxTokens:      cfg.Provider.MaxTokens,
		EmptyReplyText: cfg.Responder.EmptyReplyText,
	}, log)
}
