package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateEAN(t *testing.T) {
	t.Parallel()

	t.Run("accepted lengths", func(t *testing.T) {
		for _, ean := range []string{
			"12345678",       // EAN-8
			"123456789012",   // UPC-A
			"7891234567895",  // EAN-13
			"17891234567892", // GTIN-14
		} {
			got, err := ValidateEAN(ean)
			require.NoError(t, err, ean)
			require.Equal(t, ean, got)
		}
	})

	t.Run("normalizes before checking", func(t *testing.T) {
		got, err := ValidateEAN(" 789-1234.56789 5 ")
		require.NoError(t, err)
		require.Equal(t, "7891234567895", got)
	})

	t.Run("rejected lengths", func(t *testing.T) {
		for _, ean := range []string{"", "1234567", "123456789", "12345678901", "1234567890123456", "abc"} {
			_, err := ValidateEAN(ean)
			require.Error(t, err, ean)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		}
	})
}

func TestValidateProductName(t *testing.T) {
	t.Parallel()

	got, err := ValidateProductName("  Liquidificador 600W  ")
	require.NoError(t, err)
	require.Equal(t, "Liquidificador 600W", got)

	for _, name := range []string{"", " ", "a", " x "} {
		_, err := ValidateProductName(name)
		require.Error(t, err, name)
	}
}

func TestProductStatsFinalize(t *testing.T) {
	t.Parallel()

	t.Run("computes pending and rates", func(t *testing.T) {
		s := ProductStats{Total: 10, Sent: 4, Validated: 2, TotalQuantity: 33}
		s.Finalize()
		require.Equal(t, int64(6), s.Pending)
		require.InDelta(t, 40.0, s.SendRate, 0.001)
		require.InDelta(t, 50.0, s.ValidationRate, 0.001)
	})

	t.Run("guards zero denominators", func(t *testing.T) {
		s := ProductStats{}
		s.Finalize()
		require.Zero(t, s.SendRate)
		require.Zero(t, s.ValidationRate)

		s = ProductStats{Total: 3}
		s.Finalize()
		require.Equal(t, int64(3), s.Pending)
		require.Zero(t, s.ValidationRate) // nothing sent yet
	})
}
