package idgen

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSonyflakeMonotonic(t *testing.T) {
	gen, err := NewSonyflakeGenerator(7)
	require.NoError(t, err)

	var prev uint64
	for i := 0; i < 500; i++ {
		id, err := gen.NextID()
		require.NoError(t, err)

		n, err := strconv.ParseUint(id, 10, 64)
		require.NoError(t, err)
		require.Greater(t, n, prev)
		prev = n
	}
}

func TestDefaultGenerator(t *testing.T) {
	a, err := NextID()
	require.NoError(t, err)
	b, err := NextID()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
