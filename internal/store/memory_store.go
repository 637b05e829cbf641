package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/soyeahso/concierge/internal/domain"
)

// MemoryLeadStore keeps leads in process memory. It backs the "memory"
// leads store and tests.
type MemoryLeadStore struct {
	mu    sync.RWMutex
	leads []domain.Lead
}

// NewMemoryLeadStore creates an empty in-memory lead store.
func NewMemoryLeadStore() *MemoryLeadStore {
	return &MemoryLeadStore{}
}

type requestKey struct {
	session string
	request uint64
}

// Save appends a lead unless the same session and request is already stored.
func (m *MemoryLeadStore) Save(_ context.Context, l domain.Lead) (domain.Lead, error) {
	l = prepareLead(l)

	m.mu.Lock()
	defer m.mu.Unlock()
	key := requestKey{l.SessionID, l.RequestID}
	for _, existing := range m.leads {
		if (requestKey{existing.SessionID, existing.RequestID}) == key {
			return l, nil
		}
	}
	m.leads = append(m.leads, l)
	return l, nil
}

// Get returns a lead by id.
func (m *MemoryLeadStore) Get(_ context.Context, id string) (domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.leads {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Lead{}, ErrNotFound
}

// List returns leads newest first.
func (m *MemoryLeadStore) List(_ context.Context, opts ListOptions) ([]domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Lead
	for i := len(m.leads) - 1; i >= 0; i-- {
		l := m.leads[i]
		if opts.Context != "" && l.Context != opts.Context {
			continue
		}
		if !opts.Since.IsZero() && l.CreatedAt.Before(opts.Since) {
			continue
		}
		out = append(out, l)
	}
	slices.SortStableFunc(out, func(a, b domain.Lead) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > opts.limit() {
		out = out[:opts.limit()]
	}
	return out, nil
}

// Search matches the query case-insensitively against message and reply.
func (m *MemoryLeadStore) Search(_ context.Context, query string, limit int) ([]domain.Lead, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Lead
	for i := len(m.leads) - 1; i >= 0 && len(out) < limit; i-- {
		l := m.leads[i]
		if strings.Contains(strings.ToLower(l.Message), query) ||
			strings.Contains(strings.ToLower(l.Reply), query) {
			out = append(out, l)
		}
	}
	return out, nil
}

// DeleteBefore removes leads created before cutoff.
func (m *MemoryLeadStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.leads)
	m.leads = slices.DeleteFunc(m.leads, func(l domain.Lead) bool {
		return l.CreatedAt.Before(cutoff)
	})
	return int64(before - len(m.leads)), nil
}

// Count returns the number of stored leads.
func (m *MemoryLeadStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.leads), nil
}
