package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/soyeahso/concierge/internal/config"
	"github.com/soyeahso/concierge/internal/llm"
	"github.com/soyeahso/concierge/internal/logging"
	"github.com/soyeahso/concierge/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Concierge status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			build := version.Get()
			fmt.Fprintf(out, "Concierge %s (commit %s, %s)\n\n", build.Version, build.ShortCommit(), build.Platform)

			// Show paths
			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:    %s\n", paths.Logs)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(out, "Config:  not found (using defaults)")
				} else {
					fmt.Fprintf(out, "Config:  error loading: %v\n", err)
				}
				return nil
			}

			writeStatus(out, cfg, log)
			return nil
		},
	}

	return cmd
}

// writeStatus prints the configuration summary. Lead counts are only read
// from existing stores; status never creates a database.
func writeStatus(out io.Writer, cfg config.Config, log *logging.Logger) {
	origins := "(none)"
	if len(cfg.Gateway.AllowedOrigins) > 0 {
		origins = strings.Join(cfg.Gateway.AllowedOrigins, ",")
	}
	fmt.Fprintf(out, "Gateway: port=%d bind=%s auth=%s tls=%v origins=%s\n",
		cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode, cfg.Gateway.TLS.Enabled, origins)

	registry := llm.NewRegistryFromConfig(cfg.Provider, log)
	if providers := registry.List(); len(providers) > 0 {
		fmt.Fprintf(out, "LLM:     %s model=%s\n", strings.Join(providers, ", "), cfg.Provider.Model)
	} else {
		fmt.Fprintln(out, "LLM:     (no API key, demo replies)")
	}

	e := cfg.Engagement
	fmt.Fprintf(out, "Widget:  teaser=%s inactivity=%s chips<%d history=%d failure=%s\n",
		e.TeaserDelay, e.InactivityDelay, e.QuickReplyTurnLimit, e.HistoryTurns, e.FailurePolicy)

	leadsLine := fmt.Sprintf("store=%s retention=%dd prune=%s", cfg.Leads.Store, cfg.Leads.RetentionDays, cfg.Leads.PruneSchedule)
	if cfg.Leads.SlackWebhookURL != "" {
		leadsLine += " slack=on"
	}
	if cfg.Leads.Store == "sqlite" {
		path := leadsDBPath(cfg)
		if _, err := os.Stat(path); err == nil {
			if n, err := countLeads(cfg, log); err == nil {
				leadsLine += fmt.Sprintf(" count=%d", n)
			}
		}
	}
	fmt.Fprintf(out, "Leads:   %s\n", leadsLine)

	// Validation
	issues := config.Validate(&cfg)
	if len(issues) > 0 {
		fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
		for _, issue := range issues {
			fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
		}
	}
}

func countLeads(cfg config.Config, log *logging.Logger) (int, error) {
	s, closer, err := openLeadStore(cfg, log)
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	return s.Count(context.Background())
}
