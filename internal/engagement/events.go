package engagement

import "time"

// Event is an input to Reduce.
type Event interface{ isEvent() }

// TimerKind names one of the two engagement timers.
type TimerKind string

const (
	TimerTeaser     TimerKind = "teaser"
	TimerInactivity TimerKind = "inactivity"
)

// ContextChanged is sent on mount and on every page navigation.
type ContextChanged struct {
	Context ContextTag
	At      time.Time
}

// TimerFired is delivered by the host when a StartTimer elapses.
type TimerFired struct {
	Timer      TimerKind
	Generation uint64
	At         time.Time
}

// Opened is the launcher being clicked while closed, or the teaser tapped.
type Opened struct{ At time.Time }

// Closed is the widget being collapsed.
type Closed struct{}

// TeaserDismissed is the close button on the teaser bubble.
type TeaserDismissed struct{}

// Submitted carries typed input or a tapped suggestion chip.
type Submitted struct {
	Text string
	At   time.Time
}

// ReplyReceived resolves the provider call RequestID.
type ReplyReceived struct {
	RequestID uint64
	Reply     Reply
	At        time.Time
}

// ReplyFailed reports a failed provider call.
type ReplyFailed struct {
	RequestID uint64
	Err       error
	At        time.Time
}

// Restarted clears the conversation.
type Restarted struct{ At time.Time }

func (ContextChanged) isEvent()  {}
func (TimerFired) isEvent()      {}
func (Opened) isEvent()          {}
func (Closed) isEvent()          {}
func (TeaserDismissed) isEvent() {}
func (Submitted) isEvent()       {}
func (ReplyReceived) isEvent()   {}
func (ReplyFailed) isEvent()     {}
func (Restarted) isEvent()       {}

// Effect is an instruction Reduce hands back to the host.
type Effect interface{ isEffect() }

// StartTimer arms Timer, replacing any armed timer of the same kind. The
// host echoes Generation back in TimerFired.
type StartTimer struct {
	Timer      TimerKind
	After      time.Duration
	Generation uint64
}

// CancelTimer disarms Timer if armed.
type CancelTimer struct {
	Timer TimerKind
}

// RequestReply starts a provider call.
type RequestReply struct {
	RequestID uint64
	Query     Query
}

// AbandonRequest tells the host the call RequestID is no longer wanted.
type AbandonRequest struct {
	RequestID uint64
}

// LogFailure asks the host to record a failed provider call.
type LogFailure struct {
	RequestID uint64
	Err       error
}

// Notify announces a domain event to hook subscribers.
type Notify struct {
	Event string
	Data  map[string]any
}

func (StartTimer) isEffect()     {}
func (CancelTimer) isEffect()    {}
func (RequestReply) isEffect()   {}
func (AbandonRequest) isEffect() {}
func (LogFailure) isEffect()     {}
func (Notify) isEffect()         {}
