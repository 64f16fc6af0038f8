package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// identityFromToken reads the subject and email claims out of an access
// token. The signature is not verified: the signing key belongs to the
// backend, and the token was just received over the authenticated channel.
func identityFromToken(accessToken string) (Identity, error) {
	var claims jwt.MapClaims

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return Identity{}, fmt.Errorf("parse access token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, errors.New("access token has no subject")
	}

	email, _ := claims["email"].(string)
	return Identity{ID: sub, Email: email}, nil
}

// storedTokens is the on-disk persistence format. Only the token pair is
// stored; the identity is re-derived from the access token claims on load.
type storedTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenStore persists the session token pair in a JSON file so a signed-in
// user stays signed in across process restarts.
type TokenStore struct {
	path string
}

// NewTokenStore stores tokens at path. An empty path disables persistence.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// DefaultTokenPath places the token file under the user config directory.
func DefaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "framez", "session.json")
}

// Load returns the stored session, or (nil, nil) when nothing is stored.
func (t *TokenStore) Load() (*Session, error) {
	if t.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}

	var st storedTokens
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	if st.AccessToken == "" {
		return nil, nil
	}

	user, err := identityFromToken(st.AccessToken)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  st.AccessToken,
		RefreshToken: st.RefreshToken,
		ExpiresAt:    st.ExpiresAt,
		User:         user,
	}, nil
}

// Save writes the session token pair, creating parent directories as needed.
// The file is user-only readable.
func (t *TokenStore) Save(s *Session) error {
	if t.path == "" {
		return nil
	}
	st := storedTokens{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(t.path, data, 0o600)
}

// Clear removes the stored token pair.
func (t *TokenStore) Clear() error {
	if t.path == "" {
		return nil
	}
	if err := os.Remove(t.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
