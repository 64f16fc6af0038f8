package models

import "time"

// Post is a feed entry. Posts are immutable once created; image_url may be
// empty for text-only posts.
type Post struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	// omitzero: an insert must not send a zero timestamp, the database
	// default owns created_at.
	CreatedAt time.Time `json:"created_at,omitzero"`

	// Author is the embedded profile row joined by user_id on reads.
	Author *Profile `json:"profiles,omitempty"`
}
