// Package leads captures scheduling requests raised by engagement
// controllers, stores them and alerts the team.
package leads

import (
	"context"
	"time"

	"github.com/soyeahso/concierge/internal/domain"
	"github.com/soyeahso/concierge/internal/hooks"
	"github.com/soyeahso/concierge/internal/store"
)

// Store persists leads. Both store.SQLiteLeadStore and
// store.MemoryLeadStore satisfy it.
type Store interface {
	Save(ctx context.Context, l domain.Lead) (domain.Lead, error)
	List(ctx context.Context, opts store.ListOptions) ([]domain.Lead, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Lead, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
}

// Notifier announces a freshly captured lead.
type Notifier interface {
	Notify(ctx context.Context, l domain.Lead) error
}

// FromPayload builds a lead from a schedule_requested hook payload.
func FromPayload(p hooks.Payload) domain.Lead {
	return domain.Lead{
		SessionID: p.Session,
		RequestID: requestID(p.Data["requestId"]),
		Context:   p.String("context"),
		Message:   p.String("message"),
		Reply:     p.String("reply"),
		CreatedAt: p.At,
	}
}

func requestID(v any) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int:
		if n > 0 {
			return uint64(n)
		}
	case int64:
		if n > 0 {
			return uint64(n)
		}
	case float64:
		if n > 0 {
			return uint64(n)
		}
	}
	return 0
}
