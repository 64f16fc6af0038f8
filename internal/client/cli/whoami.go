package cli

import (
	"context"
	"fmt"

	"github.com/framezapp/framez/internal/client/session"
)

// WhoAmI prints the current session snapshot: identity, profile, readiness.
func (a *App) WhoAmI(ctx context.Context) error {
	snap := a.session.Snapshot()

	fmt.Println("status:", string(snap.Status))
	if snap.Identity != nil {
		fmt.Println("email: ", snap.Identity.Email)
		fmt.Println("id:    ", snap.Identity.ID)
	}
	switch {
	case snap.ProfilePending:
		fmt.Println("profile: loading...")
	case snap.Profile != nil:
		fmt.Println("username:", snap.Profile.Username)
		if snap.Profile.FullName != "" {
			fmt.Println("name:    ", snap.Profile.FullName)
		}
	case snap.Status == session.StatusAuthenticated:
		// Bootstrap failed earlier; the session stays usable without it.
		fmt.Println("profile: unavailable")
	}
	return nil
}
