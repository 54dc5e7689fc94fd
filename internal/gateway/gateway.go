// Package gateway defines the contract of the hosted backend the storefront
// runs against: session lifecycle plus filterable table storage. Row-level
// authorization is enforced remotely by (user_id = current session); clients
// never send credentials beyond the session token.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoRows is returned by single-row lookups that match nothing. It is
	// an expected branch for check-then-insert flows, not a failure.
	ErrNoRows = errors.New("gateway: no rows")

	// ErrAuthRequired is returned when an operation needs an active session.
	ErrAuthRequired = errors.New("gateway: authentication required")

	ErrInvalidCredentials = errors.New("gateway: invalid credentials")

	// ErrConflict is returned when an insert violates a uniqueness
	// constraint on the remote table.
	ErrConflict = errors.New("gateway: conflict")
)

// Error carries the remote error payload for failures that do not map to a
// sentinel.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("gateway: %s (status %d)", e.Message, e.Status)
}

// User is the authenticated identity attached to a session.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Session holds the token state for the current user.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Event classifies a session-change notification.
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Auth is the session lifecycle surface of the gateway.
type Auth interface {
	// CurrentSession returns the persisted session, or nil when there is
	// none. A nil session with a nil error is the signed-out state.
	CurrentSession(ctx context.Context) (*Session, error)

	// OnSessionChange registers fn for session lifecycle events. The
	// returned function unsubscribes; it is safe to call more than once.
	OnSessionChange(fn func(event Event, session *Session)) (unsubscribe func())

	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (*Session, error)
	SignOut(ctx context.Context) error

	// RefreshSession exchanges the refresh token for a fresh access token.
	RefreshSession(ctx context.Context) (*Session, error)
}

// Tables is the CRUD-with-filter surface of the gateway. Row payloads and
// destinations travel as JSON-taggable values.
type Tables interface {
	// Select reads all rows matching q into dest (a pointer to a slice).
	Select(ctx context.Context, table string, q Query, dest interface{}) error

	// SelectSingle reads exactly one row into dest, returning ErrNoRows
	// when nothing matches.
	SelectSingle(ctx context.Context, table string, q Query, dest interface{}) error

	// Count returns the number of rows matching f.
	Count(ctx context.Context, table string, f Filter) (int64, error)

	Insert(ctx context.Context, table string, row interface{}) error

	// Upsert inserts row, merging into the existing row on conflict over
	// conflictKeys.
	Upsert(ctx context.Context, table string, row interface{}, conflictKeys ...string) error

	Update(ctx context.Context, table string, patch interface{}, f Filter) error

	// Delete removes all rows matching f. Matching zero rows is not an
	// error.
	Delete(ctx context.Context, table string, f Filter) error
}

// Gateway is the full remote data gateway surface.
type Gateway interface {
	Auth
	Tables
}
