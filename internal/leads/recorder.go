package leads

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/soyeahso/concierge/internal/hooks"
	"github.com/soyeahso/concierge/internal/logging"
)

const notifyTimeout = 10 * time.Second

// Recorder saves a lead for every schedule_requested event and hands it
// to the notifier in the background.
type Recorder struct {
	store    Store
	notifier Notifier
	log      *logging.Logger
	wg       sync.WaitGroup
}

// NewRecorder creates a recorder. notifier may be nil.
func NewRecorder(s Store, notifier Notifier, log *logging.Logger) *Recorder {
	return &Recorder{
		store:    s,
		notifier: notifier,
		log:      log.Sub("leads"),
	}
}

// Attach subscribes the recorder to the hook manager.
func (r *Recorder) Attach(hm *hooks.Manager) {
	hm.On(hooks.EventScheduleRequested, "leads.recorder", r.handle)
}

// Detach removes the subscription.
func (r *Recorder) Detach(hm *hooks.Manager) {
	hm.Off(hooks.EventScheduleRequested, "leads.recorder")
}

func (r *Recorder) handle(ctx context.Context, p hooks.Payload) error {
	lead, err := r.store.Save(ctx, FromPayload(p))
	if err != nil {
		return fmt.Errorf("recording lead: %w", err)
	}

	r.log.Info().
		Str("lead", lead.ID).
		Str("session", lead.SessionID).
		Str("context", lead.Context).
		Msg("lead captured")

	if r.notifier == nil {
		return nil
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := r.notifier.Notify(ctx, lead); err != nil {
			r.log.Warn().Err(err).Str("lead", lead.ID).Msg("lead notification failed")
		}
	}()
	return nil
}

// Wait blocks until pending notifications finish.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
