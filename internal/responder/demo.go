package responder

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/soyeahso/concierge/internal/engagement"
)

// DefaultDemoDelay simulates provider latency in demo mode.
const DefaultDemoDelay = 1500 * time.Millisecond

// DemoText is the canned reply used when no provider is configured.
func DemoText(c engagement.ContextTag) string {
	return "Olá! O Assistente Grand Prime está em modo de demonstração. " +
		"Em produção, eu usaria o Gemini para qualificar seu perfil e agendar uma consultoria " +
		"baseada na página que você está visitando (" + string(c) + ")."
}

// DemoResponder answers every message with DemoText after a fixed delay.
type DemoResponder struct {
	delay time.Duration
	clock clock.Clock
}

// NewDemo creates a demo responder. A nil clock uses the wall clock.
func NewDemo(delay time.Duration, clk clock.Clock) *DemoResponder {
	if clk == nil {
		clk = clock.New()
	}
	return &DemoResponder{delay: delay, clock: clk}
}

// Respond waits out the delay unless ctx ends first.
func (d *DemoResponder) Respond(ctx context.Context, q engagement.Query) (engagement.Reply, error) {
	if d.delay > 0 {
		t := d.clock.Timer(d.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return engagement.Reply{}, ctx.Err()
		case <-t.C:
		}
	}
	return engagement.ParseReply(DemoText(q.Context)), nil
}
