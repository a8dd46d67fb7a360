package entities

import "time"

// Session is the authenticated identity of the current patient
type Session struct {
	Token string
	// ExpiresAt is read from the token's exp claim when the token is a JWT.
	ExpiresAt *time.Time
}

// Authenticated reports whether a token is present
func (s Session) Authenticated() bool {
	return s.Token != ""
}
