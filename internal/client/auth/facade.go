// Package auth validates and forwards sign-up/sign-in/sign-out/resend
// requests to the backend, translating backend error strings into the
// client's error categories.
//
// The façade never mutates session state: the session manager observes the
// resulting auth events separately, keeping a single source of truth.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/framezapp/framez/internal/client/backend"
	"github.com/framezapp/framez/internal/client/models"
	"github.com/framezapp/framez/internal/common"
	"github.com/framezapp/framez/internal/logging"
)

// resendEvery matches the backend's own confirmation-email limit, refused
// locally so the user gets immediate feedback instead of a remote 429.
const resendEvery = 60

// SignUpResult reports the outcome of account creation. A successful sign-up
// still requires email confirmation: the caller must not assume the user is
// authenticated.
type SignUpResult struct {
	RequiresEmailConfirmation bool
}

// Service is the auth operations façade.
type Service struct {
	client      backend.Client
	redirectURL string
	log         logging.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewService(client backend.Client, redirectURL string, log logging.Logger) *Service {
	return &Service{
		client:      client,
		redirectURL: redirectURL,
		log:         log,
		limiters:    make(map[string]*rate.Limiter),
	}
}

// SignUp creates an account. The username is normalized (trimmed, inner
// whitespace collapsed to underscores, lowercased) before sending, and the
// email-confirmation redirect target is registered with the request.
//
// An already-registered email maps to common.ErrAlreadyRegistered, which is
// distinguishable from generic failures via errors.Is.
func (s *Service) SignUp(ctx context.Context, email, password, username, fullName string) (SignUpResult, error) {
	req := backend.SignUpRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
		Data: map[string]any{
			"username":  models.NormalizeUsername(username),
			"full_name": strings.TrimSpace(fullName),
		},
		RedirectTo: s.redirectURL,
	}

	if _, err := s.client.SignUp(ctx, req); err != nil {
		return SignUpResult{}, categorize(err, "sign up")
	}
	return SignUpResult{RequiresEmailConfirmation: true}, nil
}

// SignIn authenticates with an email/password pair. Rejections map to
// common.ErrInvalidCredentials or common.ErrEmailNotConfirmed; anything else
// is a generic failure. On success there is no payload; the session manager
// observes the resulting SIGNED_IN event.
func (s *Service) SignIn(ctx context.Context, email, password string) error {
	if _, err := s.client.SignInWithPassword(ctx, strings.TrimSpace(email), password); err != nil {
		return categorize(err, "sign in")
	}
	return nil
}

// SignOut requests a backend sign-out. Errors are logged, not surfaced:
// local state still reaches the anonymous state via the auth event, or via
// the session manager's bounded-timeout clear.
func (s *Service) SignOut(ctx context.Context) {
	if err := s.client.SignOut(ctx); err != nil {
		s.log.Warn(ctx, "backend sign-out failed", "error", err)
	}
}

// ResendConfirmationEmail re-triggers the sign-up confirmation flow with the
// same redirect target. Repeat requests for the same email inside the resend
// window are refused locally with common.ErrRateLimited.
func (s *Service) ResendConfirmationEmail(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !s.limiter(email).Allow() {
		return fmt.Errorf("%w: confirmation email already sent, wait before retrying", common.ErrRateLimited)
	}

	err := s.client.Resend(ctx, backend.ResendRequest{
		Type:       "signup",
		Email:      email,
		RedirectTo: s.redirectURL,
	})
	if err != nil {
		return categorize(err, "resend confirmation")
	}
	return nil
}

func (s *Service) limiter(email string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[email]
	if !ok {
		l = rate.NewLimiter(rate.Limit(1.0/resendEvery), 1)
		s.limiters[email] = l
	}
	return l
}

// categorize maps a backend error onto the shared taxonomy. Errors already
// classified pass through; otherwise the raw message text decides, falling
// back to a generic wrapped error.
func categorize(err error, op string) error {
	for _, sentinel := range []error{
		common.ErrInvalidCredentials,
		common.ErrEmailNotConfirmed,
		common.ErrAlreadyRegistered,
		common.ErrRateLimited,
		common.ErrUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "Invalid login credentials"):
		return fmt.Errorf("%w: %s", common.ErrInvalidCredentials, msg)
	case strings.Contains(msg, "Email not confirmed"):
		return fmt.Errorf("%w: %s", common.ErrEmailNotConfirmed, msg)
	case strings.Contains(msg, "already registered"):
		return fmt.Errorf("%w: %s", common.ErrAlreadyRegistered, msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}
