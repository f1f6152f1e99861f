// Package session persists conversation state across requests. A Store maps
// opaque session identifiers to conversation history with idle expiry. Expiry
// is enforced lazily at read time; there is no background sweep, so an expired
// entry that is never read again lingers as acceptable residual memory.
package session

import (
	"context"
	"time"

	"github.com/docentsh/docent/core/providers"
)

// DefaultMaxAge is the idle duration after which a session expires.
const DefaultMaxAge = 24 * time.Hour

// Session is one persisted conversation identity. Exactly one of History or
// ResumeHandle is the authoritative continuation mechanism, depending on the
// active model-calling strategy.
type Session struct {
	ID           string               `json:"id"`
	CreatedAt    time.Time            `json:"created_at"`
	LastActiveAt time.Time            `json:"last_active_at"`
	MessageCount int                  `json:"message_count"`
	History      []providers.Message  `json:"history,omitempty"`
	ResumeHandle string               `json:"resume_handle,omitempty"`
}

// Touch appends messages and refreshes activity bookkeeping.
func (s *Session) Touch(messages ...providers.Message) {
	s.History = append(s.History, messages...)
	s.MessageCount += len(messages)
	s.LastActiveAt = time.Now()
}

// Store maps session identifiers to sessions. Get returns (nil, nil) for an
// absent or expired identifier; reading an expired entry deletes it. Set is an
// unconditional upsert that refreshes LastActiveAt.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Set(ctx context.Context, id string, s *Session) error
	Delete(ctx context.Context, id string) error
}

// NewSession creates a fresh session with the given identifier.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}
