package engagement

import (
	"slices"
	"time"
)

// Sender identifies who authored a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// SchedulingCardText is the reserved turn text that renders as the
// meeting-booking card instead of a speech bubble.
const SchedulingCardText = "SCHEDULING_CARD"

// Turn is one entry of the transcript. Turns are never modified after
// they are appended.
type Turn struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// IsSchedulingCard reports whether the turn is the booking card.
func (t Turn) IsSchedulingCard() bool {
	return t.Sender == SenderBot && t.Text == SchedulingCardText
}

// FailurePolicy decides what the visitor sees when the provider call fails.
type FailurePolicy string

const (
	// FailureSilent only clears the waiting flag.
	FailureSilent FailurePolicy = "silent"
	// FailureApology also appends ApologyText as a bot turn.
	FailureApology FailurePolicy = "apology"
)

// Policy holds the tunables of the reducer.
type Policy struct {
	TeaserDelay         time.Duration
	InactivityDelay     time.Duration
	QuickReplyTurnLimit int
	HistoryTurns        int
	Failure             FailurePolicy
}

// DefaultPolicy returns the production timings: teaser after 4s,
// escalation after 15s, chips hidden from the fifth turn on, two turns of
// history per provider call.
func DefaultPolicy() Policy {
	return Policy{
		TeaserDelay:         4 * time.Second,
		InactivityDelay:     15 * time.Second,
		QuickReplyTurnLimit: 5,
		HistoryTurns:        2,
		Failure:             FailureSilent,
	}
}

// Phase is the coarse widget state derived from State.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseTeaser  Phase = "teaser"
	PhaseOpen    Phase = "open"
	PhaseWaiting Phase = "waiting"
)

// State is the whole engagement state of one widget mount.
type State struct {
	Context           ContextTag
	IsOpen            bool
	TeaserVisible     bool
	HasInteracted     bool
	ProactiveFired    bool
	PendingHookText   string
	QuickReplies      []string
	IsWaitingForReply bool
	Transcript        []Turn

	// NextTurnSeq numbers turns for ID generation.
	NextTurnSeq uint64
	// PendingRequest is the id of the outstanding provider call, 0 if none.
	PendingRequest uint64
	// LastRequest is the last request id handed out.
	LastRequest uint64
	// TimerGeneration invalidates timer callbacks that raced a cancel.
	TimerGeneration uint64
}

// HasPendingHook reports whether an escalation hook waits to be shown on
// the next open.
func (s State) HasPendingHook() bool {
	return s.PendingHookText != ""
}

// Phase derives the coarse widget state.
func (s State) Phase() Phase {
	switch {
	case s.IsOpen && s.IsWaitingForReply:
		return PhaseWaiting
	case s.IsOpen:
		return PhaseOpen
	case s.TeaserVisible:
		return PhaseTeaser
	default:
		return PhaseIdle
	}
}

// TeaserShown reports whether the teaser bubble is on screen.
func (s State) TeaserShown() bool {
	return s.TeaserVisible && !s.IsOpen
}

// VisibleQuickReplies returns the chips a renderer should display: none
// while waiting or once the transcript reaches limit turns.
func (s State) VisibleQuickReplies(limit int) []string {
	if s.IsWaitingForReply || len(s.Transcript) >= limit {
		return nil
	}
	return slices.Clone(s.QuickReplies)
}

// LastTurn returns the most recent turn, if any.
func (s State) LastTurn() (Turn, bool) {
	if len(s.Transcript) == 0 {
		return Turn{}, false
	}
	return s.Transcript[len(s.Transcript)-1], true
}

// Snapshot is the render-ready view of a State.
type Snapshot struct {
	ID             string     `json:"id,omitempty"`
	Seq            uint64     `json:"seq"`
	Context        ContextTag `json:"context"`
	Phase          Phase      `json:"phase"`
	IsOpen         bool       `json:"isOpen"`
	TeaserShown    bool       `json:"teaserShown"`
	TeaserText     string     `json:"teaserText,omitempty"`
	HasInteracted  bool       `json:"hasInteracted"`
	ProactiveFired bool       `json:"proactiveFired"`
	PendingHook    string     `json:"pendingHook,omitempty"`
	QuickReplies   []string   `json:"quickReplies"`
	Waiting        bool       `json:"waiting"`
	Transcript     []Turn     `json:"transcript"`
}

// Snapshot renders the state under the given policy.
func (s State) Snapshot(p Policy) Snapshot {
	snap := Snapshot{
		Context:        s.Context,
		Phase:          s.Phase(),
		IsOpen:         s.IsOpen,
		TeaserShown:    s.TeaserShown(),
		HasInteracted:  s.HasInteracted,
		ProactiveFired: s.ProactiveFired,
		PendingHook:    s.PendingHookText,
		QuickReplies:   s.VisibleQuickReplies(p.QuickReplyTurnLimit),
		Waiting:        s.IsWaitingForReply,
		Transcript:     slices.Clone(s.Transcript),
	}
	if snap.TeaserShown {
		snap.TeaserText = TeaserText(s.Context, s.PendingHookText)
	}
	if snap.QuickReplies == nil {
		snap.QuickReplies = []string{}
	}
	if snap.Transcript == nil {
		snap.Transcript = []Turn{}
	}
	return snap
}
