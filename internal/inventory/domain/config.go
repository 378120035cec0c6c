package domain

import "time"

// ConfigEntry is one key/value row of runtime configuration.
type ConfigEntry struct {
	Key         string    `db:"key"`
	Value       string    `db:"value"`
	Description *string   `db:"description"`
	UpdatedAt   time.Time `db:"updated_at"`
	UpdatedBy   *int64    `db:"updated_by"`
}
