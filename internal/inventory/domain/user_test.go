package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"bob", "maria_silva", "user-42", "ABC"} {
		require.NoError(t, ValidateUsername(name), name)
	}

	for _, name := range []string{"", "ab", "has space", "semi;colon", "héllo"} {
		err := ValidateUsername(name)
		require.Error(t, err, name)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	}

	// Boundary lengths.
	require.NoError(t, ValidateUsername("abc"))
	require.Error(t, ValidateUsername(string(make([]byte, 51))))
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		password string
		ok       bool
	}{
		{"alllowercase", false},  // one class only
		{"Abcdef12", true},       // upper+lower+digit
		{"abcdef12!", true},      // lower+digit+special
		{"Ab1!", false},          // too short
		{"ABCDEF12", false},      // two classes
		{"P@ssw0rd", true},       // four classes
		{"12345678", false},      // one class
	}

	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if tc.ok {
			require.NoError(t, err, tc.password)
		} else {
			require.Error(t, err, tc.password)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateEmail(""))
	require.NoError(t, ValidateEmail("ana@example.com"))
	require.NoError(t, ValidateEmail("first.last+tag@sub.domain.org"))
	require.Error(t, ValidateEmail("not-an-email"))
	require.Error(t, ValidateEmail("missing@tld"))
}

func TestUserLockedAt(t *testing.T) {
	t.Parallel()

	now := time.Now()

	u := &User{}
	require.False(t, u.LockedAt(now))

	future := now.Add(10 * time.Minute)
	u.LockedUntil = &future
	require.True(t, u.LockedAt(now))

	past := now.Add(-time.Second)
	u.LockedUntil = &past
	require.False(t, u.LockedAt(now))
}
