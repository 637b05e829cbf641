package engagement

import (
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/concierge/internal/hooks"
)

// Reduce applies ev to s and returns the next state together with the
// effects the host must run. It never mutates s and performs no I/O.
func Reduce(p Policy, s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case ContextChanged:
		return onContextChanged(p, s, e)
	case TimerFired:
		return onTimerFired(s, e)
	case Opened:
		return onOpened(s, e.At), nil
	case Closed:
		s.IsOpen = false
		s.TeaserVisible = false
		return s, nil
	case TeaserDismissed:
		s.TeaserVisible = false
		return s, nil
	case Submitted:
		return onSubmitted(p, s, e)
	case ReplyReceived:
		return onReplyReceived(s, e)
	case ReplyFailed:
		return onReplyFailed(p, s, e)
	case Restarted:
		return onRestarted(p, s, e)
	default:
		return s, nil
	}
}

func onContextChanged(p Policy, s State, e ContextChanged) (State, []Effect) {
	s.Context = e.Context
	s.ProactiveFired = false
	s.PendingHookText = ""
	s.TeaserVisible = false
	if !s.IsWaitingForReply {
		s.QuickReplies = QuickRepliesFor(e.Context)
	}

	effects := []Effect{
		CancelTimer{Timer: TimerTeaser},
		CancelTimer{Timer: TimerInactivity},
		Notify{Event: hooks.EventContextChanged, Data: map[string]any{"context": string(e.Context)}},
	}
	if !s.HasInteracted {
		var timers []Effect
		s, timers = armTimers(p, s)
		effects = append(effects, timers...)
	}
	return s, effects
}

// armTimers bumps the timer generation so callbacks from earlier timers
// are ignored, then schedules both timers.
func armTimers(p Policy, s State) (State, []Effect) {
	s.TimerGeneration++
	return s, []Effect{
		StartTimer{Timer: TimerTeaser, After: p.TeaserDelay, Generation: s.TimerGeneration},
		StartTimer{Timer: TimerInactivity, After: p.InactivityDelay, Generation: s.TimerGeneration},
	}
}

func onTimerFired(s State, e TimerFired) (State, []Effect) {
	if e.Generation != s.TimerGeneration || s.HasInteracted {
		return s, nil
	}

	switch e.Timer {
	case TimerTeaser:
		if s.IsOpen || s.TeaserVisible {
			return s, nil
		}
		s.TeaserVisible = true
		return s, []Effect{Notify{Event: hooks.EventTeaserShown, Data: map[string]any{
			"context": string(s.Context),
			"text":    TeaserText(s.Context, s.PendingHookText),
		}}}

	case TimerInactivity:
		if s.ProactiveFired {
			return s, nil
		}
		s.ProactiveFired = true
		s.QuickReplies = EscalationReplies()
		if s.IsOpen {
			s = appendTurn(s, EscalationOpenText, SenderBot, e.At)
		} else {
			s.PendingHookText = EscalationHookText
			s.TeaserVisible = true
		}
		return s, []Effect{Notify{Event: hooks.EventProactiveFired, Data: map[string]any{
			"context": string(s.Context),
			"open":    s.IsOpen,
		}}}
	}
	return s, nil
}

func onOpened(s State, at time.Time) State {
	s.IsOpen = true
	s.TeaserVisible = false

	if len(s.Transcript) == 0 {
		text := s.PendingHookText
		if text == "" {
			text = OpeningFor(s.Context)
		}
		return appendTurn(s, text, SenderBot, at)
	}

	if s.HasPendingHook() {
		if last, _ := s.LastTurn(); last.Text != s.PendingHookText {
			s = appendTurn(s, s.PendingHookText, SenderBot, at)
		}
	}
	return s
}

func onSubmitted(p Policy, s State, e Submitted) (State, []Effect) {
	trimmed := strings.TrimSpace(e.Text)
	if trimmed == "" || !s.IsOpen || s.IsWaitingForReply {
		return s, nil
	}

	history := recentHistory(s.Transcript, p.HistoryTurns)

	s.HasInteracted = true
	s = appendTurn(s, e.Text, SenderUser, e.At)
	s.QuickReplies = nil
	s.IsWaitingForReply = true
	s.LastRequest++
	s.PendingRequest = s.LastRequest

	return s, []Effect{
		CancelTimer{Timer: TimerTeaser},
		CancelTimer{Timer: TimerInactivity},
		RequestReply{
			RequestID: s.PendingRequest,
			Query:     Query{Text: e.Text, Context: s.Context, History: history},
		},
		Notify{Event: hooks.EventMessageReceived, Data: map[string]any{
			"requestId": s.PendingRequest,
			"context":   string(s.Context),
			"text":      e.Text,
		}},
	}
}

func onReplyReceived(s State, e ReplyReceived) (State, []Effect) {
	if e.RequestID == 0 || e.RequestID != s.PendingRequest {
		return s, nil
	}
	s.PendingRequest = 0
	s.IsWaitingForReply = false

	s = appendTurn(s, e.Reply.Text, SenderBot, e.At)
	effects := []Effect{Notify{Event: hooks.EventReplySent, Data: map[string]any{
		"requestId": e.RequestID,
		"context":   string(s.Context),
		"text":      e.Reply.Text,
	}}}

	if e.Reply.ScheduleRequested {
		s = appendTurn(s, SchedulingCardText, SenderBot, e.At)
		effects = append(effects, Notify{Event: hooks.EventScheduleRequested, Data: map[string]any{
			"requestId": e.RequestID,
			"context":   string(s.Context),
			"message":   lastUserText(s.Transcript),
			"reply":     e.Reply.Text,
		}})
	}
	return s, effects
}

func onReplyFailed(p Policy, s State, e ReplyFailed) (State, []Effect) {
	if e.RequestID == 0 || e.RequestID != s.PendingRequest {
		return s, nil
	}
	s.PendingRequest = 0
	s.IsWaitingForReply = false

	if p.Failure == FailureApology {
		s = appendTurn(s, ApologyText, SenderBot, e.At)
	}
	errText := ""
	if e.Err != nil {
		errText = e.Err.Error()
	}
	return s, []Effect{
		LogFailure{RequestID: e.RequestID, Err: e.Err},
		Notify{Event: hooks.EventReplyFailed, Data: map[string]any{
			"requestId": e.RequestID,
			"context":   string(s.Context),
			"error":     errText,
			"policy":    string(p.Failure),
		}},
	}
}

func onRestarted(p Policy, s State, e Restarted) (State, []Effect) {
	var effects []Effect
	if s.PendingRequest != 0 {
		effects = append(effects, AbandonRequest{RequestID: s.PendingRequest})
	}

	s.Transcript = nil
	s.HasInteracted = false
	s.IsWaitingForReply = false
	s.PendingRequest = 0
	s.QuickReplies = QuickRepliesFor(s.Context)
	s = onOpened(s, e.At)

	effects = append(effects,
		CancelTimer{Timer: TimerTeaser},
		CancelTimer{Timer: TimerInactivity},
	)
	var timers []Effect
	s, timers = armTimers(p, s)
	effects = append(effects, timers...)
	effects = append(effects, Notify{Event: hooks.EventSessionReset, Data: map[string]any{
		"context": string(s.Context),
	}})
	return s, effects
}

// appendTurn returns s with a new turn added. The transcript slice is
// always reallocated so earlier states keep their own backing array.
func appendTurn(s State, text string, sender Sender, at time.Time) State {
	s.NextTurnSeq++
	transcript := make([]Turn, len(s.Transcript), len(s.Transcript)+1)
	copy(transcript, s.Transcript)
	s.Transcript = append(transcript, Turn{
		ID:        fmt.Sprintf("t-%d", s.NextTurnSeq),
		Text:      text,
		Sender:    sender,
		Timestamp: at,
	})
	return s
}

func recentHistory(transcript []Turn, n int) []string {
	if n <= 0 {
		return []string{}
	}
	start := max(len(transcript)-n, 0)
	history := make([]string, 0, len(transcript)-start)
	for _, t := range transcript[start:] {
		history = append(history, string(t.Sender)+": "+t.Text)
	}
	return history
}

func lastUserText(transcript []Turn) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Sender == SenderUser {
			return transcript[i].Text
		}
	}
	return ""
}
