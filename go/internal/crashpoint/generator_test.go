package crashpoint

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRandomGeneratorBounds(t *testing.T) {
	g := NewRandomGenerator()

	for i := 0; i < 5000; i++ {
		value, err := g.Generate()
		require.NoError(t, err)

		require.True(t, value.GreaterThanOrEqual(floor), "value %s below floor", value)
		require.True(t, value.LessThanOrEqual(ceiling), "value %s above ceiling", value)
		require.True(t, value.Equal(value.Truncate(2)), "value %s has more than two decimals", value)
	}
}

func TestRandomGeneratorCoversRange(t *testing.T) {
	g := NewRandomGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 20000; i++ {
		value, err := g.Generate()
		require.NoError(t, err)
		seen[value.String()] = true
	}

	// 20000 uniform draws over 900 buckets miss a given bucket with
	// probability (899/900)^20000, effectively never.
	require.Greater(t, len(seen), 850)
	require.True(t, seen["1.01"] || seen["1.02"] || seen["1.03"])
}

func TestFixedGenerator(t *testing.T) {
	want := decimal.RequireFromString("2.50")
	g := NewFixedGenerator(want)

	for i := 0; i < 3; i++ {
		value, err := g.Generate()
		require.NoError(t, err)
		require.True(t, value.Equal(want))
	}
}
