package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBootstrapSeedsFreshDatabase(t *testing.T) {
	st, _ := newTestStore(t)
	boot := &BootstrapService{
		Store:          st,
		SessionTimeout: time.Hour,
		MaxAttempts:    5,
		Lockout:        15 * time.Minute,
	}
	ctx := context.Background()

	require.NoError(t, boot.Run(ctx))

	t.Run("default admin can log in", func(t *testing.T) {
		auth := &AuthService{Store: st}
		u, err := auth.Authenticate(ctx, seedAdminName, seedAdminPassword, "")
		require.NoError(t, err)
		require.True(t, u.Admin)
	})

	t.Run("responsible parties seeded with pins", func(t *testing.T) {
		list, err := st.Responsibles().ListResponsibles(ctx)
		require.NoError(t, err)
		require.Len(t, list, len(seedResponsibles))

		byName := map[string]string{}
		for _, r := range list {
			byName[r.Name] = r.PIN
		}
		require.Equal(t, "5584", byName["Liliane"])
		require.Equal(t, "6231", byName["Marcos"])
	})

	t.Run("config entries recorded", func(t *testing.T) {
		e, err := st.SystemConfig().GetConfig(ctx, "schema_version")
		require.NoError(t, err)
		require.Equal(t, "1", e.Value)

		e, err = st.SystemConfig().GetConfig(ctx, "session_timeout")
		require.NoError(t, err)
		require.Equal(t, "1h0m0s", e.Value)
	})

	t.Run("running twice does not duplicate seeds", func(t *testing.T) {
		require.NoError(t, boot.Run(ctx))

		admins, err := st.Users().CountAdmins(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(1), admins)

		count, err := st.Responsibles().Count(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(len(seedResponsibles)), count)
	})
}
