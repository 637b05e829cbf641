package leads

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/soyeahso/concierge/internal/domain"
	"github.com/soyeahso/concierge/internal/hooks"
	"github.com/soyeahso/concierge/internal/logging"
	"github.com/soyeahso/concierge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

type recordingNotifier struct {
	mu    sync.Mutex
	leads []domain.Lead
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, l domain.Lead) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leads = append(n.leads, l)
	return n.err
}

func (n *recordingNotifier) got() []domain.Lead {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Lead(nil), n.leads...)
}

type failingStore struct{ *store.MemoryLeadStore }

func (failingStore) Save(context.Context, domain.Lead) (domain.Lead, error) {
	return domain.Lead{}, errors.New("disk full")
}

func schedulePayload() map[string]any {
	return map[string]any{
		"requestId": uint64(2),
		"context":   "services",
		"message":   "Quero trocar de contador",
		"reply":     "Posso ajudar com a migração.",
	}
}

// --- FromPayload ---

func TestFromPayload(t *testing.T) {
	at := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	l := FromPayload(hooks.Payload{
		Event:   hooks.EventScheduleRequested,
		Session: "sess-9",
		At:      at,
		Data:    schedulePayload(),
	})

	assert.Equal(t, "sess-9", l.SessionID)
	assert.Equal(t, uint64(2), l.RequestID)
	assert.Equal(t, "services", l.Context)
	assert.Equal(t, "Quero trocar de contador", l.Message)
	assert.Equal(t, "Posso ajudar com a migração.", l.Reply)
	assert.Equal(t, at, l.CreatedAt)
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		in   any
		want uint64
	}{
		{uint64(5), 5},
		{int(3), 3},
		{int64(4), 4},
		{float64(6), 6},
		{-1, 0},
		{"7", 0},
		{nil, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, requestID(tt.in), "%#v", tt.in)
	}
}

// --- Recorder ---

func TestRecorder_SavesAndNotifies(t *testing.T) {
	hm := hooks.NewManager(silentLog())
	s := store.NewMemoryLeadStore()
	n := &recordingNotifier{}
	r := NewRecorder(s, n, silentLog())
	r.Attach(hm)
	assert.Equal(t, 1, hm.Count(hooks.EventScheduleRequested))

	hm.Emit(context.Background(), hooks.EventScheduleRequested, "sess-1", schedulePayload())
	r.Wait()

	saved, err := s.List(context.Background(), store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "sess-1", saved[0].SessionID)

	notified := n.got()
	require.Len(t, notified, 1)
	assert.Equal(t, saved[0].ID, notified[0].ID)
}

func TestRecorder_WithoutNotifier(t *testing.T) {
	hm := hooks.NewManager(silentLog())
	s := store.NewMemoryLeadStore()
	NewRecorder(s, nil, silentLog()).Attach(hm)

	hm.Emit(context.Background(), hooks.EventScheduleRequested, "sess-1", schedulePayload())

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecorder_SaveFailureSkipsNotify(t *testing.T) {
	hm := hooks.NewManager(silentLog())
	n := &recordingNotifier{}
	r := NewRecorder(failingStore{store.NewMemoryLeadStore()}, n, silentLog())
	r.Attach(hm)

	err := r.handle(context.Background(), hooks.Payload{Session: "s", Data: schedulePayload()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	r.Wait()
	assert.Empty(t, n.got())
}

func TestRecorder_NotifyFailureIsLogged(t *testing.T) {
	hm := hooks.NewManager(silentLog())
	s := store.NewMemoryLeadStore()
	n := &recordingNotifier{err: errors.New("webhook down")}
	r := NewRecorder(s, n, silentLog())
	r.Attach(hm)

	hm.Emit(context.Background(), hooks.EventScheduleRequested, "sess-1", schedulePayload())
	r.Wait()

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, n.got(), 1)
}

func TestRecorder_Detach(t *testing.T) {
	hm := hooks.NewManager(silentLog())
	s := store.NewMemoryLeadStore()
	r := NewRecorder(s, nil, silentLog())
	r.Attach(hm)
	r.Detach(hm)

	hm.Emit(context.Background(), hooks.EventScheduleRequested, "sess-1", schedulePayload())
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

// --- SlackNotifier ---

func TestSlackNotifier(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	l := domain.Lead{
		ID:        "lead-1",
		SessionID: "sess-1",
		Context:   "home",
		Message:   "Quero abrir minha empresa",
		Reply:     "Vamos agendar.",
		CreatedAt: time.Unix(1780000000, 0),
	}
	require.NoError(t, NewSlackNotifier(srv.URL, srv.Client()).Notify(context.Background(), l))

	assert.Contains(t, body["text"], "página home")
	attachments := body["attachments"].([]any)
	require.Len(t, attachments, 1)
	att := attachments[0].(map[string]any)
	assert.Equal(t, l.Summary(), att["fallback"])
	fields := att["fields"].([]any)
	assert.Equal(t, "Quero abrir minha empresa", fields[0].(map[string]any)["value"])
}

func TestSlackNotifier_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no_service"))
	}))
	defer srv.Close()

	err := NewSlackNotifier(srv.URL, nil).Notify(context.Background(), domain.Lead{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slack webhook")
}

// --- Pruner ---

func TestPruner_RunOnce(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	s := store.NewMemoryLeadStore()
	ctx := context.Background()
	for i, age := range []int{1, 10, 40, 100} {
		_, err := s.Save(ctx, domain.Lead{
			SessionID: "s",
			RequestID: uint64(i + 1),
			CreatedAt: mock.Now().AddDate(0, 0, -age),
		})
		require.NoError(t, err)
	}

	p, err := NewPruner(s, PruneConfig{Retention: RetentionDays(30), Schedule: "@daily", Clock: mock}, silentLog())
	require.NoError(t, err)

	n, err := p.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, left)
}

func TestPruner_ZeroRetentionKeepsAll(t *testing.T) {
	s := store.NewMemoryLeadStore()
	_, err := s.Save(context.Background(), domain.Lead{SessionID: "s", CreatedAt: time.Now().AddDate(-5, 0, 0)})
	require.NoError(t, err)

	p, err := NewPruner(s, PruneConfig{Schedule: "@daily"}, silentLog())
	require.NoError(t, err)
	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPruner_InvalidSchedule(t *testing.T) {
	_, err := NewPruner(store.NewMemoryLeadStore(), PruneConfig{Schedule: "sometimes"}, silentLog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid prune schedule")
}

func TestPruner_StartStops(t *testing.T) {
	p, err := NewPruner(store.NewMemoryLeadStore(), PruneConfig{Schedule: "@every 1h"}, silentLog())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("pruner did not stop")
	}
}
