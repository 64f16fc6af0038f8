// Package deeplink handles externally delivered URLs: parsing
// email-confirmation callbacks and running the local redirect target the
// confirmation emails point at.
package deeplink

import "strings"

// Kind classifies a recognized deep link.
type Kind string

const (
	// KindEmailConfirmed is the callback after the user clicks the sign-up
	// confirmation link: the URL carries an access token and type=signup.
	KindEmailConfirmed Kind = "email_confirmed"
)

// Notice describes a recognized deep link. Notices are informational: no
// session transition is ever derived from a URL, only from the backend's own
// auth events.
type Notice struct {
	Kind Kind
	Raw  string
}

// Parse inspects raw for a known marker. The token may live in the query or
// in the fragment depending on the platform that delivered the link.
func Parse(raw string) (Notice, bool) {
	if strings.Contains(raw, "access_token=") && strings.Contains(raw, "type=signup") {
		return Notice{Kind: KindEmailConfirmed, Raw: raw}, true
	}
	return Notice{}, false
}
