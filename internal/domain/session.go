package domain

import (
	"context"
	"time"
)

// Session is one signed-in browser session. The transcript it owns lives in
// process memory only; losing the session loses the chat history.
type Session struct {
	Token     string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore is the port for session state, including the per-session
// chat transcript.
type SessionStore interface {
	Create(ctx context.Context, username, token string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error

	AppendEntry(ctx context.Context, token string, entry ChatEntry) error
	Transcript(ctx context.Context, token string) ([]ChatEntry, error)
	ClearTranscript(ctx context.Context, token string) error
}
