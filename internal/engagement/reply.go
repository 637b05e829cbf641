package engagement

import (
	"context"
	"strings"
)

// ScheduleSentinel is the marker the provider appends when the lead is
// ready to book a meeting.
const ScheduleSentinel = "[AGENDAR_REUNIAO]"

// Query is what the controller asks the response provider.
type Query struct {
	Text    string     `json:"text"`
	Context ContextTag `json:"context"`
	// History holds the most recent turns before Text, oldest first,
	// each formatted "sender: text".
	History []string `json:"history"`
}

// Reply is the provider answer with the sentinel already extracted.
type Reply struct {
	Text              string `json:"text"`
	ScheduleRequested bool   `json:"scheduleRequested"`
}

// Responder produces bot replies. Implementations must honour ctx
// cancellation and must not retry.
type Responder interface {
	Respond(ctx context.Context, q Query) (Reply, error)
}

// ResponderFunc adapts a plain function to Responder.
type ResponderFunc func(ctx context.Context, q Query) (Reply, error)

func (f ResponderFunc) Respond(ctx context.Context, q Query) (Reply, error) {
	return f(ctx, q)
}

// ParseReply strips every occurrence of the scheduling sentinel from raw
// provider text and trims the result.
func ParseReply(raw string) Reply {
	if !strings.Contains(raw, ScheduleSentinel) {
		return Reply{Text: strings.TrimSpace(raw)}
	}
	return Reply{
		Text:              strings.TrimSpace(strings.ReplaceAll(raw, ScheduleSentinel, "")),
		ScheduleRequested: true,
	}
}
