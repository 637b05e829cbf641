package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/soyeahso/concierge/internal/gateway"
	"github.com/soyeahso/concierge/internal/hooks"
	"github.com/soyeahso/concierge/internal/leads"
	"github.com/soyeahso/concierge/internal/logging"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"gateway"},
		Short:   "Start the widget gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			svcLog, logFile, err := logging.Open(logging.Options{
				Level: level,
				Style: cfg.Logging.ConsoleStyle,
				File:  cfg.Logging.File,
			})
			if err != nil {
				return err
			}
			defer logFile.Close()

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hookMgr := hooks.NewManager(svcLog)

			leadStore, closer, err := openLeadStore(cfg, svcLog)
			if err != nil {
				return err
			}
			defer closer.Close()

			if leadStore != nil {
				recorder := leads.NewRecorder(leadStore, newNotifier(cfg), svcLog)
				recorder.Attach(hookMgr)
				defer recorder.Wait()
				defer recorder.Detach(hookMgr)

				pruner, err := leads.NewPruner(leadStore, leads.PruneConfig{
					Retention: leads.RetentionDays(cfg.Leads.RetentionDays),
					Schedule:  cfg.Leads.PruneSchedule,
				}, svcLog)
				if err != nil {
					return err
				}
				go func() {
					if err := pruner.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
						svcLog.Error().Err(err).Msg("pruner stopped")
					}
				}()
			}

			srv := gateway.New(cfg, svcLog,
				gateway.WithHooks(hookMgr),
				gateway.WithResponder(newResponder(cfg, svcLog)),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")

	return cmd
}
