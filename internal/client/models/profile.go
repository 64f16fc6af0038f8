// Package models defines the application-level records exchanged with the
// backend table API.
package models

import (
	"strings"
	"time"
)

// Profile is the application-level user metadata row. Exactly one profile
// exists per authenticated identity; Profile.ID equals the identity id.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UsernameFromEmail derives a default username from the local part of an
// email address (everything before the '@').
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// NormalizeUsername trims surrounding whitespace, collapses inner whitespace
// runs to a single underscore, and lowercases the result.
func NormalizeUsername(username string) string {
	fields := strings.Fields(username)
	return strings.ToLower(strings.Join(fields, "_"))
}
