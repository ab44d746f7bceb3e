// Package memory implements in-memory adapters: a user repository for
// development and testing, and the session store that holds per-session
// chat transcripts. Session state is process-local on purpose; restarting
// the server loses every transcript but no credentials.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"mathtutor/internal/domain"
)

// Ensure interfaces are met.
var _ domain.UserRepository = (*UserRepo)(nil)
var _ domain.SessionStore = (*SessionStore)(nil)

// UserRepo implements an in-memory credential store.
type UserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

// NewUserRepo creates an empty in-memory user repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]*domain.User)}
}

// Exists reports whether the username has a row.
func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok, nil
}

// GetByUsername retrieves a user, or nil if absent.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// Create inserts a new user, rejecting duplicates like the primary key would.
func (r *UserRepo) Create(ctx context.Context, username string, passwordHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; ok {
		return errors.New("user already exists")
	}
	r.users[username] = &domain.User{Username: username, PasswordHash: passwordHash}
	return nil
}

type sessionState struct {
	session    domain.Session
	transcript []domain.ChatEntry
}

// SessionStore holds live sessions and their transcripts.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*sessionState)}
}

// Create registers a new session under the given token.
func (s *SessionStore) Create(ctx context.Context, username, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = &sessionState{
		session: domain.Session{
			Token:     token,
			Username:  username,
			CreatedAt: time.Now().UTC(),
			ExpiresAt: expiresAt,
		},
	}
	return nil
}

// GetByToken retrieves a session, lazily removing it if expired. Returns
// nil when no live session holds the token.
func (s *SessionStore) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	if time.Now().After(st.session.ExpiresAt) {
		delete(s.sessions, token)
		return nil, nil
	}
	cp := st.session
	return &cp, nil
}

// Delete destroys a session and its transcript.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// DeleteExpired destroys all expired sessions.
func (s *SessionStore) DeleteExpired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, v := range s.sessions {
		if now.After(v.session.ExpiresAt) {
			delete(s.sessions, k)
		}
	}
	return nil
}

// AppendEntry adds one entry to the end of the session's transcript.
func (s *SessionStore) AppendEntry(ctx context.Context, token string, entry domain.ChatEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[token]
	if !ok {
		return errors.New("session not found")
	}
	st.transcript = append(st.transcript, entry)
	return nil
}

// Transcript returns a copy of the session's chat history in order.
func (s *SessionStore) Transcript(ctx context.Context, token string) ([]domain.ChatEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[token]
	if !ok {
		return nil, errors.New("session not found")
	}
	out := make([]domain.ChatEntry, len(st.transcript))
	copy(out, st.transcript)
	return out, nil
}

// ClearTranscript empties the session's transcript.
func (s *SessionStore) ClearTranscript(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[token]
	if !ok {
		return errors.New("session not found")
	}
	st.transcript = nil
	return nil
}
