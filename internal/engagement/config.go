package engagement

import "github.com/soyeahso/concierge/internal/config"

// PolicyFromConfig builds a Policy from the engagement config section.
// Zero values keep the production defaults.
func PolicyFromConfig(cfg config.EngagementConfig) Policy {
	p := DefaultPolicy()
	if cfg.TeaserDelay > 0 {
		p.TeaserDelay = cfg.TeaserDelay
	}
	if cfg.InactivityDelay > 0 {
		p.InactivityDelay = cfg.InactivityDelay
	}
	if cfg.QuickReplyTurnLimit > 0 {
		p.QuickReplyTurnLimit = cfg.QuickReplyTurnLimit
	}
	if cfg.HistoryTurns > 0 {
		p.HistoryTurns = cfg.HistoryTurns
	}
	if cfg.FailurePolicy == string(FailureApology) {
		p.Failure = FailureApology
	}
	return p
}
