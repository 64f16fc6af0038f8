// Package profile ensures every authenticated identity has exactly one
// profile row, creating it lazily on first sign-in.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/framezapp/framez/internal/client/backend"
	"github.com/framezapp/framez/internal/client/models"
	"github.com/framezapp/framez/internal/common"
	"github.com/framezapp/framez/internal/logging"
)

const profilesTable = "profiles"

// Bootstrapper looks up and lazily creates profile rows.
type Bootstrapper struct {
	client backend.Client
	log    logging.Logger
}

func NewBootstrapper(client backend.Client, log logging.Logger) *Bootstrapper {
	return &Bootstrapper{client: client, log: log}
}

// EnsureProfile returns the profile for identity, creating it if missing.
//
// The default username is the local part of the identity's email. Creation is
// idempotent: the backend enforces a uniqueness constraint on the profile id,
// and a duplicate-insert failure means a concurrent caller won the race, so
// the existing row is fetched and returned instead of an error. An existing
// profile is never overwritten.
func (b *Bootstrapper) EnsureProfile(ctx context.Context, identity backend.Identity) (*models.Profile, error) {
	p, err := b.fetch(ctx, identity.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("profile lookup: %w", err)
	}

	row := models.Profile{
		ID:        identity.ID,
		Username:  models.UsernameFromEmail(identity.Email),
		CreatedAt: time.Now().UTC(),
	}

	var created models.Profile
	if err := b.client.Insert(ctx, profilesTable, row, &created); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			// Lost the bootstrap race; the row exists now.
			b.log.Debug(ctx, "profile already created concurrently", "user", identity.ID)
			return b.fetch(ctx, identity.ID)
		}
		return nil, fmt.Errorf("profile insert: %w", err)
	}

	b.log.Info(ctx, "profile created", "user", identity.ID, "username", created.Username)
	return &created, nil
}

func (b *Bootstrapper) fetch(ctx context.Context, id string) (*models.Profile, error) {
	q := backend.NewQuery(profilesTable).Eq("id", id).Single()

	var p models.Profile
	if err := b.client.Select(ctx, q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
