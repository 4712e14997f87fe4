package session

import (
	"context"
	"time"
)

// Session binds an opaque client-held token to a backend conversation id.
// It is created on first contact and never mutated; expiry triggers
// recreation on the next message.
type Session struct {
	Token            string    `json:"token"`
	BackendSessionID string    `json:"backend_session_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// Repository stores token→session bindings with a bounded lifetime.
type Repository interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token string) (*Session, bool)
	Delete(ctx context.Context, token string) error
}
