package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/robfig/cron/v3"
	"github.com/soyeahso/concierge/internal/logging"
)

// PruneConfig controls lead retention.
type PruneConfig struct {
	Retention time.Duration
	Schedule  string // standard cron expression or descriptor such as @daily
	Clock     clock.Clock
}

// Pruner deletes leads older than the retention window on a cron schedule.
type Pruner struct {
	store     Store
	retention time.Duration
	clock     clock.Clock
	cron      *cron.Cron
	log       *logging.Logger
}

// NewPruner validates the schedule and registers the prune job.
func NewPruner(s Store, cfg PruneConfig, log *logging.Logger) (*Pruner, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	p := &Pruner{
		store:     s,
		retention: cfg.Retention,
		clock:     cfg.Clock,
		cron:      cron.New(),
		log:       log.Sub("leads.pruner"),
	}

	if _, err := p.cron.AddFunc(cfg.Schedule, func() {
		if _, err := p.RunOnce(context.Background()); err != nil {
			p.log.Error().Err(err).Msg("scheduled prune failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("leads: invalid prune schedule %q: %w", cfg.Schedule, err)
	}
	return p, nil
}

// RunOnce deletes leads older than the retention window. A zero retention
// keeps everything.
func (p *Pruner) RunOnce(ctx context.Context) (int64, error) {
	if p.retention <= 0 {
		return 0, nil
	}
	cutoff := p.clock.Now().Add(-p.retention)
	n, err := p.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	p.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("leads pruned")
	return n, nil
}

// Start runs the cron scheduler. Blocks until ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) error {
	p.cron.Start()
	p.log.Info().Msg("pruner started")

	<-ctx.Done()
	<-p.cron.Stop().Done()
	p.log.Info().Msg("pruner stopped")
	return ctx.Err()
}

// RetentionDays converts a day count into a retention window.
func RetentionDays(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
