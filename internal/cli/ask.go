package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/soyeahso/concierge/internal/engagement"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var (
		page   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send a single message to the consultant and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return engagement.ErrEmptyMessage
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if cfg.Provider.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Provider.Timeout)
				defer cancel()
			}

			reply, err := newResponder(cfg, log).Respond(ctx, engagement.Query{
				Text:    text,
				Context: engagement.ParseContext(page),
			})
			if err != nil {
				return fmt.Errorf("asking provider: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reply)
			}
			printReply(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&page, "context", string(engagement.ContextHome), "page context the visitor is on")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reply as JSON")

	return cmd
}

// printReply writes the reply text and, when the sentinel fired, the
// scheduling card.
func printReply(w io.Writer, reply engagement.Reply) {
	if reply.Text != "" {
		fmt.Fprintln(w, reply.Text)
	}
	if reply.ScheduleRequested {
		card := engagement.SchedulingCard()
		fmt.Fprintln(w)
		fmt.Fprintf(w, "== %s ==\n%s\n  [%s]  [%s]\n",
			card.Title, card.Body, card.PrimaryAction, card.SecondaryAction)
	}
}
