package sessions

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no session matches the lookup.
var ErrNotFound = errors.New("session not found")

// ErrDuplicateRefreshToken is returned when persisting a session whose
// refresh-token value already belongs to a live session.
var ErrDuplicateRefreshToken = errors.New("duplicate refresh token")

// Repo manages server-side storage of refresh-token sessions.
//
// Implementations must enforce refresh-token uniqueness across live sessions
// and must make Rotate atomic: two concurrent rotations of the same session
// cannot both commit.
type Repo interface {
	// GetByRefreshToken returns the session holding the given refresh-token
	// value, or ErrNotFound.
	GetByRefreshToken(ctx context.Context, refreshToken string) (*Session, error)

	// Upsert persists the session, assigning an ID when empty.
	Upsert(ctx context.Context, session *Session) error

	// Delete removes a session by ID. Deleting an absent session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// DeleteAllForUser removes every session owned by the user (logout everywhere).
	DeleteAllForUser(ctx context.Context, userID string) error

	// Rotate deletes old and persists next in a single atomic step. It returns
	// ErrNotFound when old has already been rotated or revoked by a concurrent
	// request.
	Rotate(ctx context.Context, old *Session, next *Session) error

	// DeleteExpired removes sessions whose expiry is at or before now and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
