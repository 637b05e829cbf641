package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/soyeahso/concierge/internal/domain"
	"github.com/soyeahso/concierge/internal/engagement"
	"github.com/soyeahso/concierge/internal/leads"
	"github.com/soyeahso/concierge/internal/store"
	"github.com/spf13/cobra"
)

func newLeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Inspect captured scheduling requests",
	}

	cmd.AddCommand(newLeadsListCmd())
	cmd.AddCommand(newLeadsSearchCmd())
	cmd.AddCommand(newLeadsPruneCmd())
	cmd.AddCommand(newLeadsCountCmd())

	return cmd
}

// withLeadStore opens the configured store for the duration of fn.
func withLeadStore(fn func(ctx context.Context, s leads.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, closer, err := openLeadStore(cfg, log)
	if err != nil {
		return err
	}
	defer closer.Close()
	if s == nil {
		return fmt.Errorf("lead capture is disabled (leads.store = %q)", cfg.Leads.Store)
	}
	return fn(context.Background(), s)
}

func newLeadsListCmd() *cobra.Command {
	var (
		limit  int
		page   string
		since  time.Duration
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := store.ListOptions{Limit: limit}
			if page != "" {
				opts.Context = string(engagement.ParseContext(page))
			}
			if since > 0 {
				opts.Since = time.Now().Add(-since)
			}
			return withLeadStore(func(ctx context.Context, s leads.Store) error {
				list, err := s.List(ctx, opts)
				if err != nil {
					return err
				}
				return printLeads(cmd.OutOrStdout(), list, asJSON)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of leads")
	cmd.Flags().StringVar(&page, "context", "", "only leads captured on this page context")
	cmd.Flags().DurationVar(&since, "since", 0, "only leads newer than this (e.g. 72h)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print leads as JSON")

	return cmd
}

func newLeadsSearchCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over lead messages and replies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withLeadStore(func(ctx context.Context, s leads.Store) error {
				list, err := s.Search(ctx, query, limit)
				if err != nil {
					return err
				}
				return printLeads(cmd.OutOrStdout(), list, asJSON)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of leads")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print leads as JSON")

	return cmd
}

func newLeadsPruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete leads older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if days == 0 {
				days = cfg.Leads.RetentionDays
			}
			return withLeadStore(func(ctx context.Context, s leads.Store) error {
				pruner, err := leads.NewPruner(s, leads.PruneConfig{
					Retention: leads.RetentionDays(days),
					Schedule:  cfg.Leads.PruneSchedule,
				}, log)
				if err != nil {
					return err
				}
				n, err := pruner.RunOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d lead(s) older than %d day(s)\n", n, days)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "retention in days (default leads.retentionDays)")

	return cmd
}

func newLeadsCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLeadStore(func(ctx context.Context, s leads.Store) error {
				n, err := s.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

var leadHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var leadCellStyle = lipgloss.NewStyle().Padding(0, 1)

// printLeads renders leads as a table, or as JSON when asked.
func printLeads(w io.Writer, list []domain.Lead, asJSON bool) error {
	if asJSON {
		if list == nil {
			list = []domain.Lead{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No leads.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CAPTURED", "SESSION", "REQUEST").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return leadHeaderStyle
			}
			return leadCellStyle
		})
	for _, l := range list {
		t.Row(
			l.CreatedAt.Local().Format("2006-01-02 15:04"),
			shortID(l.SessionID),
			l.Summary(),
		)
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
