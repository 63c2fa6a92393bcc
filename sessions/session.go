package sessions

import (
	"time"
)

// Session represents one issued refresh-token grant. A row is created on
// every successful login or refresh and deleted when it expires, is rotated,
// or is revoked. The refresh-token value is unique across live sessions.
type Session struct {
	ID           string    // Unique session identifier (UUID)
	UserID       string    // User this session belongs to
	RefreshToken string    // Signed refresh token issued to the client
	ExpiresAt    time.Time // CreatedAt + refresh token TTL, never mutated in place
	CreatedAt    time.Time // When the session was created
}

// Expired reports whether the session has lapsed at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
