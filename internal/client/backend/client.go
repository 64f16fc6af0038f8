// Package backend defines the opaque interface of the hosted backend the
// Framez client depends on (managed auth, Postgres-backed table API, object
// storage), and its REST implementation.
package backend

import (
	"context"
	"io"
	"time"
)

// Identity is the backend-issued user record. The client holds a read-only
// reference; identities are created on sign-up and never mutated locally.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session carries the token pair and the authenticated identity.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         Identity  `json:"user"`
}

// Expired reports whether the access token is past (or within skew of) its
// expiry and must be refreshed before use.
func (s *Session) Expired(skew time.Duration) bool {
	return !s.ExpiresAt.IsZero() && time.Now().Add(skew).After(s.ExpiresAt)
}

// AuthEvent identifies a state change pushed by the backend auth layer.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventUserUpdated    AuthEvent = "USER_UPDATED"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// Handler receives pushed auth events. Events are delivered one at a time
// from a single dispatch goroutine; session is nil for EventSignedOut.
type Handler func(event AuthEvent, session *Session)

// Subscription is a cancellable registration for auth events. Unsubscribe is
// idempotent; no event is delivered after it returns.
type Subscription interface {
	Unsubscribe()
}

// SignUpRequest is the payload for account creation. Data is attached to the
// identity as user metadata; RedirectTo is the email-confirmation target.
type SignUpRequest struct {
	Email      string
	Password   string
	Data       map[string]any
	RedirectTo string
}

// ResendRequest re-triggers a confirmation email of the given type.
type ResendRequest struct {
	Type       string
	Email      string
	RedirectTo string
}

// Client is the operation surface of the remote backend.
//
// Auth calls never mutate client-side session state directly observable by
// callers; state changes surface through OnAuthStateChange handlers so there
// is a single source of truth for session state.
type Client interface {
	// GetSession returns the current session, refreshing a stored token pair
	// when necessary, or (nil, nil) when no session exists.
	GetSession(ctx context.Context) (*Session, error)

	// OnAuthStateChange registers h for pushed auth events.
	OnAuthStateChange(h Handler) Subscription

	SignUp(ctx context.Context, req SignUpRequest) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	Resend(ctx context.Context, req ResendRequest) error

	// Select runs a read query and decodes the response into dest
	// (a struct pointer for single-row queries, a slice pointer otherwise).
	Select(ctx context.Context, q Query, dest any) error

	// Insert adds a row to table. When dest is non-nil the created row is
	// decoded into it.
	Insert(ctx context.Context, table string, row any, dest any) error

	// Upload stores an object and GetPublicURL returns its public address.
	Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) error
	GetPublicURL(bucket, path string) string
}
