package models

import "time"

// RefreshToken is a server-side session, exchanged for a new token pair on
// refresh. Token holds the plaintext only when it was just issued or looked up.
type RefreshToken struct {
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.Expires.After(now)
}
