package domain

import "time"

// Responsible is a named individual authorized to countersign a submitted
// inventory list with a short numeric PIN. Referenced by products, never
// owned by them.
type Responsible struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	PIN       string    `db:"pin"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
