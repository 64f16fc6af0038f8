package auth

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framezapp/framez/internal/client/backend"
	"github.com/framezapp/framez/internal/common"
	"github.com/framezapp/framez/internal/logging"
)

const redirect = "http://127.0.0.1:4280/auth/callback"

// fakeClient captures the last auth call and returns configured errors.
type fakeClient struct {
	SignUpErr  error
	SignInErr  error
	SignOutErr error
	ResendErr  error

	LastSignUp  backend.SignUpRequest
	LastEmail   string
	LastResend  backend.ResendRequest
	ResendCalls int
}

func (f *fakeClient) SignUp(ctx context.Context, req backend.SignUpRequest) (*backend.Session, error) {
	f.LastSignUp = req
	return nil, f.SignUpErr
}

func (f *fakeClient) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	f.LastEmail = email
	return nil, f.SignInErr
}

func (f *fakeClient) SignOut(ctx context.Context) error { return f.SignOutErr }

func (f *fakeClient) Resend(ctx context.Context, req backend.ResendRequest) error {
	f.ResendCalls++
	f.LastResend = req
	return f.ResendErr
}

func (f *fakeClient) GetSession(ctx context.Context) (*backend.Session, error)    { return nil, nil }
func (f *fakeClient) OnAuthStateChange(h backend.Handler) backend.Subscription    { return nil }
func (f *fakeClient) Select(ctx context.Context, q backend.Query, dest any) error { return nil }
func (f *fakeClient) Insert(ctx context.Context, table string, row, dest any) error {
	return nil
}
func (f *fakeClient) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) error {
	return nil
}
func (f *fakeClient) GetPublicURL(bucket, path string) string { return "" }

func newService(fc *fakeClient) *Service {
	return NewService(fc, redirect, logging.NewNoopLogger())
}

func TestSignUp_NormalizesUsernameAndRegistersRedirect(t *testing.T) {
	fc := &fakeClient{}
	s := newService(fc)

	res, err := s.SignUp(context.Background(), " alice@example.com ", "pw", "  Alice   Smith ", " Alice Smith ")
	require.NoError(t, err)
	require.True(t, res.RequiresEmailConfirmation)

	require.Equal(t, "alice@example.com", fc.LastSignUp.Email)
	require.Equal(t, "alice_smith", fc.LastSignUp.Data["username"])
	require.Equal(t, "Alice Smith", fc.LastSignUp.Data["full_name"])
	require.Equal(t, redirect, fc.LastSignUp.RedirectTo)
}

func TestSignUp_AlreadyRegisteredIsDistinguishable(t *testing.T) {
	fc := &fakeClient{SignUpErr: errors.New("User already registered")}
	s := newService(fc)

	_, err := s.SignUp(context.Background(), "alice@example.com", "pw", "alice", "")
	require.ErrorIs(t, err, common.ErrAlreadyRegistered)
	require.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestSignIn_ErrorCategories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"wrong password", errors.New("Invalid login credentials"), common.ErrInvalidCredentials},
		{"unconfirmed email", errors.New("Email not confirmed"), common.ErrEmailNotConfirmed},
		{"already classified", common.ErrUnavailable, common.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeClient{SignInErr: tt.err}
			err := newService(fc).SignIn(context.Background(), "alice@example.com", "pw")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignIn_UnknownErrorWrappedGenerically(t *testing.T) {
	cause := errors.New("connection reset")
	fc := &fakeClient{SignInErr: cause}

	err := newService(fc).SignIn(context.Background(), "alice@example.com", "pw")
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, common.ErrInvalidCredentials)
	require.Contains(t, err.Error(), "sign in")
}

func TestSignIn_SuccessHasNoPayload(t *testing.T) {
	fc := &fakeClient{}
	err := newService(fc).SignIn(context.Background(), " alice@example.com ", "pw")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", fc.LastEmail)
}

func TestSignOut_SwallowsBackendError(t *testing.T) {
	fc := &fakeClient{SignOutErr: errors.New("token revoked")}
	// Must not panic and has no error to return.
	newService(fc).SignOut(context.Background())
}

func TestResend_SendsSignupTypeWithRedirect(t *testing.T) {
	fc := &fakeClient{}
	s := newService(fc)

	err := s.ResendConfirmationEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "signup", fc.LastResend.Type)
	require.Equal(t, "alice@example.com", fc.LastResend.Email)
	require.Equal(t, redirect, fc.LastResend.RedirectTo)
}

func TestResend_SecondImmediateCallRefusedLocally(t *testing.T) {
	fc := &fakeClient{}
	s := newService(fc)

	require.NoError(t, s.ResendConfirmationEmail(context.Background(), "alice@example.com"))
	err := s.ResendConfirmationEmail(context.Background(), "alice@example.com")
	require.ErrorIs(t, err, common.ErrRateLimited)
	require.Equal(t, 1, fc.ResendCalls, "the refused request must not reach the backend")
}

func TestResend_LimiterIsPerEmail(t *testing.T) {
	fc := &fakeClient{}
	s := newService(fc)

	require.NoError(t, s.ResendConfirmationEmail(context.Background(), "alice@example.com"))
	require.NoError(t, s.ResendConfirmationEmail(context.Background(), "bob@example.com"))
	require.Equal(t, 2, fc.ResendCalls)
}
