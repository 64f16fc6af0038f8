package cli

import (
	"context"
	"fmt"
	"time"
)

// Profile re-fetches the signed-in user's profile and prints it. The refresh
// runs through the session machine, so a result arrives as a state snapshot.
func (a *App) Profile(ctx context.Context) error {
	snap := a.session.Snapshot()
	if snap.Identity == nil {
		fmt.Println("Log in to see your profile.")
		return nil
	}

	ch, cancel := a.session.Watch()
	defer cancel()
	a.session.RefreshProfile(ctx)

	deadline := time.After(a.config.ProfileTimeout)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return nil
			}
			if s.ProfilePending {
				continue
			}
			snap = s
		case <-deadline:
			fmt.Println("Profile refresh timed out, showing the last known profile.")
		case <-ctx.Done():
			return ctx.Err()
		}
		break
	}

	if snap.Profile == nil {
		fmt.Println("Profile is not available right now. Try again later.")
		return nil
	}
	fmt.Println("username:", snap.Profile.Username)
	if snap.Profile.FullName != "" {
		fmt.Println("name:    ", snap.Profile.FullName)
	}
	if snap.Profile.AvatarURL != "" {
		fmt.Println("avatar:  ", snap.Profile.AvatarURL)
	}
	if !snap.Profile.CreatedAt.IsZero() {
		fmt.Println("joined:  ", snap.Profile.CreatedAt.Local().Format("2006-01-02"))
	}
	return nil
}
