package domain

import "time"

// Session is a server-side login session. The id is an opaque ULID handed to
// the browser in a cookie; expiry slides forward on activity.
type Session struct {
	ID           string    `db:"id"`
	UserID       int64     `db:"user_id"`
	IPAddress    string    `db:"ip_address"`
	UserAgent    string    `db:"user_agent"`
	CreatedAt    time.Time `db:"created_at"`
	ExpiresAt    time.Time `db:"expires_at"`
	LastActivity time.Time `db:"last_activity"`
}

// ExpiredAt reports whether the session has passed its idle deadline.
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
