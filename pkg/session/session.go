// Package session provides storage for interactive layout sessions.
//
// A session is created for every layout query and holds the collapse state
// of that layout. Toggling a node loads the session, applies the toggle and
// stores it back; nothing is shared between sessions.
//
// Implementations exist for different backends:
//   - memory: in-process storage for tests and a single API instance
//   - redis: Redis-backed storage for multi-instance deployments
//   - file: JSON files for the CLI
//
// # Usage
//
//	state := layout.Compose(g, layout.Options{})
//	sess := session.New(state, session.DefaultTTL)
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err := store.Get(ctx, id)
//	if errors.Is(err, session.ErrNotFound) {
//	    // unknown or expired
//	}
//	state := sess.State()
//	state.Toggle("API-1")
//	sess.Save(state)
//	err = store.Set(ctx, sess)
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/superrelativity/relgraph/pkg/layout"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is the default session lifetime.
const DefaultTTL = 24 * time.Hour

// Session stores the collapse state of one layout.
type Session struct {
	ID        string          `json:"id"`
	Snapshot  layout.Snapshot `json:"state"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// New creates a session holding state, with a random UUID.
func New(state *layout.State, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Snapshot:  state.Snapshot(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// State restores the collapse state held by the session.
func (s *Session) State() *layout.State {
	return layout.Restore(s.Snapshot)
}

// Save replaces the held state.
func (s *Session) Save(state *layout.State) {
	s.Snapshot = state.Snapshot()
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session until its ExpiresAt.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions (may be a no-op for Redis).
	Cleanup(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
