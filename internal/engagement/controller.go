package engagement

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/soyeahso/concierge/internal/hooks"
	"github.com/soyeahso/concierge/internal/logging"
)

var (
	ErrBusy         = errors.New("engagement: still waiting for a reply")
	ErrEmptyMessage = errors.New("engagement: empty message")
	ErrNotOpen      = errors.New("engagement: widget is not open")
	ErrClosed       = errors.New("engagement: controller closed")
)

// Controller owns the engagement state of one widget mount. It feeds
// events through Reduce under a mutex and runs the resulting effects:
// timers, provider calls, hook notifications and change observers.
type Controller struct {
	id           string
	policy       Policy
	responder    Responder
	clock        clock.Clock
	hooks        *hooks.Manager
	replyTimeout time.Duration
	log          *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	seq       uint64
	timers    map[TimerKind]*clock.Timer
	calls     map[uint64]context.CancelFunc
	observers []func(Snapshot)
	closed    bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPolicy overrides the default timings and failure policy.
func WithPolicy(p Policy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithClock injects the clock used for timers and turn timestamps.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

// WithHooks sets the hook manager that receives engagement events.
func WithHooks(hm *hooks.Manager) Option {
	return func(c *Controller) { c.hooks = hm }
}

// WithReplyTimeout bounds each provider call. Zero means no bound.
func WithReplyTimeout(d time.Duration) Option {
	return func(c *Controller) { c.replyTimeout = d }
}

// WithID fixes the controller id instead of generating one.
func WithID(id string) Option {
	return func(c *Controller) { c.id = id }
}

// NewController creates an unmounted controller. Call Mount to enter the
// first page context.
func NewController(responder Responder, log *logging.Logger, opts ...Option) *Controller {
	c := &Controller{
		id:        uuid.New().String(),
		policy:    DefaultPolicy(),
		responder: responder,
		clock:     clock.New(),
		timers:    make(map[TimerKind]*clock.Timer),
		calls:     make(map[uint64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.log = log.Sub("engagement").With("session", c.id)
	return c
}

// ID returns the controller id, also used as the hook session id.
func (c *Controller) ID() string { return c.id }

// OnChange registers fn to receive a snapshot after every event. fn runs
// outside the controller lock and must not block for long.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Mount enters the initial page context.
func (c *Controller) Mount(tag ContextTag) {
	c.emit(Notify{Event: hooks.EventSessionStart, Data: map[string]any{"context": string(tag)}})
	c.Navigate(tag)
}

// Navigate reports a page-context change.
func (c *Controller) Navigate(tag ContextTag) {
	c.dispatch(ContextChanged{Context: tag, At: c.clock.Now()}, nil)
}

// Open expands the widget.
func (c *Controller) Open() {
	c.dispatch(Opened{At: c.clock.Now()}, nil)
}

// Collapse closes the widget, keeping the transcript.
func (c *Controller) Collapse() {
	c.dispatch(Closed{}, nil)
}

// Toggle opens a closed widget and collapses an open one.
func (c *Controller) Toggle() {
	if c.Snapshot().IsOpen {
		c.Collapse()
		return
	}
	c.Open()
}

// DismissTeaser hides the teaser bubble.
func (c *Controller) DismissTeaser() {
	c.dispatch(TeaserDismissed{}, nil)
}

// Submit sends typed text or a tapped suggestion while the widget is open.
// The reply arrives asynchronously through OnChange.
func (c *Controller) Submit(text string) error {
	return c.dispatch(Submitted{Text: text, At: c.clock.Now()}, func(s State) error {
		if strings.TrimSpace(text) == "" {
			return ErrEmptyMessage
		}
		if !s.IsOpen {
			return ErrNotOpen
		}
		if s.IsWaitingForReply {
			return ErrBusy
		}
		return nil
	})
}

// Restart clears the conversation and seeds a fresh opening.
func (c *Controller) Restart() {
	c.dispatch(Restarted{At: c.clock.Now()}, nil)
}

// Snapshot returns the current render-ready state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns a copy of the raw state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Transcript = slices.Clone(s.Transcript)
	s.QuickReplies = slices.Clone(s.QuickReplies)
	return s
}

// Close unmounts the controller: timers are stopped, the outstanding
// provider call is cancelled and later events are ignored.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for kind := range c.timers {
		c.stopTimerLocked(kind)
	}
	c.cancel()
	turns := len(c.state.Transcript)
	interacted := c.state.HasInteracted
	c.mu.Unlock()

	c.emit(Notify{Event: hooks.EventSessionEnd, Data: map[string]any{
		"turns":      turns,
		"interacted": interacted,
	}})
	c.log.Debug().Int("turns", turns).Msg("controller closed")
	return nil
}

func (c *Controller) dispatch(ev Event, guard func(State) error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if guard != nil {
		if err := guard(c.state); err != nil {
			c.mu.Unlock()
			return err
		}
	}

	next, effects := Reduce(c.policy, c.state, ev)
	c.state = next
	c.seq++

	var notes []Notify
	for _, eff := range effects {
		if n, ok := eff.(Notify); ok {
			notes = append(notes, n)
			continue
		}
		c.applyLocked(eff)
	}
	snap := c.snapshotLocked()
	observers := slices.Clone(c.observers)
	c.mu.Unlock()

	c.log.Debug().
		Str("event", fmt.Sprintf("%T", ev)).
		Str("phase", string(snap.Phase)).
		Int("turns", len(snap.Transcript)).
		Msg("event applied")

	for _, fn := range observers {
		fn(snap)
	}
	c.emit(notes...)
	return nil
}

func (c *Controller) applyLocked(eff Effect) {
	switch e := eff.(type) {
	case StartTimer:
		c.stopTimerLocked(e.Timer)
		kind, gen := e.Timer, e.Generation
		c.timers[kind] = c.clock.AfterFunc(e.After, func() {
			c.dispatch(TimerFired{Timer: kind, Generation: gen, At: c.clock.Now()}, nil)
		})

	case CancelTimer:
		c.stopTimerLocked(e.Timer)

	case RequestReply:
		c.startCallLocked(e)

	case AbandonRequest:
		if cancel, ok := c.calls[e.RequestID]; ok {
			cancel()
			delete(c.calls, e.RequestID)
		}

	case LogFailure:
		c.log.Error().Err(e.Err).Uint64("requestId", e.RequestID).Msg("response provider failed")
	}
}

func (c *Controller) stopTimerLocked(kind TimerKind) {
	if t, ok := c.timers[kind]; ok {
		t.Stop()
		delete(c.timers, kind)
	}
}

func (c *Controller) startCallLocked(req RequestReply) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.replyTimeout > 0 {
		ctx, cancel = context.WithTimeout(c.ctx, c.replyTimeout)
	} else {
		ctx, cancel = context.WithCancel(c.ctx)
	}
	c.calls[req.RequestID] = cancel

	go func() {
		defer cancel()
		reply, err := c.responder.Respond(ctx, req.Query)

		c.mu.Lock()
		delete(c.calls, req.RequestID)
		c.mu.Unlock()

		if err != nil {
			c.dispatch(ReplyFailed{RequestID: req.RequestID, Err: err, At: c.clock.Now()}, nil)
			return
		}
		c.dispatch(ReplyReceived{RequestID: req.RequestID, Reply: reply, At: c.clock.Now()}, nil)
	}()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := c.state.Snapshot(c.policy)
	snap.ID = c.id
	snap.Seq = c.seq
	return snap
}

func (c *Controller) emit(notes ...Notify) {
	if c.hooks == nil {
		return
	}
	for _, n := range notes {
		c.hooks.Emit(context.Background(), n.Event, c.id, n.Data)
	}
}
