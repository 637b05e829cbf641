// Package domain holds the records shared between the engagement layer and
// storage.
package domain

import (
	"strings"
	"time"
)

// Lead is a visitor conversation that ended in a scheduling request.
type Lead struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	RequestID uint64    `json:"requestId"`
	Context   string    `json:"context"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary returns a one-line description used in listings and
// notifications.
func (l Lead) Summary() string {
	msg := strings.Join(strings.Fields(l.Message), " ")
	if r := []rune(msg); len(r) > 80 {
		msg = string(r[:77]) + "..."
	}
	ctx := l.Context
	if ctx == "" {
		ctx = "-"
	}
	return "[" + ctx + "] " + msg
}
