package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// User is an account row. PasswordHash is an argon2id PHC string computed
// over the password combined with Salt; Salt is re-issued on every password
// change.
type User struct {
	ID            int64      `db:"id"`
	Name          string     `db:"name"`
	Email         *string    `db:"email"`
	PasswordHash  string     `db:"password_hash"`
	Salt          string     `db:"salt"`
	Admin         bool       `db:"admin"`
	Active        bool       `db:"active"`
	LoginAttempts int        `db:"login_attempts"`
	LockedUntil   *time.Time `db:"locked_until"`
	LastLogin     *time.Time `db:"last_login"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// MaxLoginAttempts failed logins in a row lock the account for
// DefaultLockoutDuration.
const (
	MaxLoginAttempts       = 5
	DefaultLockoutDuration = 15 * time.Minute
)

// LockedAt reports whether the account is locked at the given instant.
// Expired locks are treated as cleared; the caller is expected to persist
// the cleared fields (lazy unlock).
func (u *User) LockedAt(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateUsername enforces the account name policy: 3-50 characters,
// alphanumeric plus underscore and hyphen.
func ValidateUsername(name string) error {
	if len(name) < 3 || len(name) > 50 {
		return validationErr("name", "username must be between 3 and 50 characters")
	}
	if !usernameRe.MatchString(name) {
		return validationErr("name", "username may only contain letters, digits, underscore and hyphen")
	}
	return nil
}

const passwordSpecials = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// ValidatePassword enforces the strength policy: 8-128 characters and at
// least three of upper case, lower case, digit, special character.
func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 128 {
		return validationErr("password", "password must be between 8 and 128 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, c):
			hasSpecial = true
		}
	}

	classes := 0
	for _, ok := range []bool{hasUpper, hasLower, hasDigit, hasSpecial} {
		if ok {
			classes++
		}
	}
	if classes < 3 {
		return validationErr("password", "password needs at least 3 of: upper case, lower case, digit, special character")
	}
	return nil
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks the address shape. Empty emails are allowed; accounts
// without email are valid.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if !emailRe.MatchString(email) {
		return validationErr("email", "invalid email address")
	}
	return nil
}
