package cli

import (
	"fmt"
	"io"

	"github.com/soyeahso/concierge/internal/config"
	"github.com/soyeahso/concierge/internal/engagement"
	"github.com/soyeahso/concierge/internal/leads"
	"github.com/soyeahso/concierge/internal/llm"
	"github.com/soyeahso/concierge/internal/logging"
	"github.com/soyeahso/concierge/internal/responder"
	"github.com/soyeahso/concierge/internal/store"
)

// loadConfig reads the config file and rejects it when validation reports
// any issue.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}

	issues := config.Validate(&cfg)
	if len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return cfg, nil
}

// newResponder resolves the provider from cfg, falling back to the demo
// responder when no key is available.
func newResponder(cfg config.Config, log *logging.Logger) engagement.Responder {
	registry := llm.NewRegistryFromConfig(cfg.Provider, log)
	return responder.New(registry, cfg, log)
}

// leadsDBPath returns the configured lead database or the default under
// the data directory.
func leadsDBPath(cfg config.Config) string {
	if cfg.Leads.Path != "" {
		return cfg.Leads.Path
	}
	return paths.LeadsDB()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openLeadStore opens the store selected by leads.store. A nil store
// means capture is disabled. The closer is never nil.
func openLeadStore(cfg config.Config, log *logging.Logger) (leads.Store, io.Closer, error) {
	switch cfg.Leads.Store {
	case "none":
		log.Info().Msg("lead capture disabled")
		return nil, nopCloser{}, nil
	case "memory":
		log.Info().Msg("using in-memory lead store")
		return store.NewMemoryLeadStore(), nopCloser{}, nil
	default:
		path := leadsDBPath(cfg)
		db, err := store.Open(path, log)
		if err != nil {
			return nil, nil, fmt.Errorf("opening lead database: %w", err)
		}
		log.Info().Str("path", path).Msg("using SQLite lead store")
		return store.NewSQLiteLeadStore(db), db, nil
	}
}

// newNotifier returns the Slack notifier when a webhook is configured.
func newNotifier(cfg config.Config) leads.Notifier {
	if cfg.Leads.SlackWebhookURL == "" {
		return nil
	}
	return leads.NewSlackNotifier(cfg.Leads.SlackWebhookURL, nil)
}
