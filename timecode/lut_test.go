package timecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPositionLUTRoundTrip(t *testing.T) {
	lut := newPositionLUT()
	lut.init(4)

	states := []bits128{
		newBits128(0, 1),
		newBits128(0, 8),
		newBits128(0, 4),
		newBits128(0, 2),
	}

	for i, s := range states {
		require.True(t, lut.push(s), "push %d", i)
	}

	for i, s := range states {
		require.Equal(t, i, lut.lookup(s))
	}

	require.Equal(t, Unknown, lut.lookup(newBits128(0, 99)))
}

func TestPositionLUTRejectsRepeat(t *testing.T) {
	lut := newPositionLUT()
	lut.init(4)

	require.True(t, lut.push(newBits128(0, 1)))
	require.False(t, lut.push(newBits128(0, 1)), "pushing a repeated state must fail")
}

func TestPositionLUTClear(t *testing.T) {
	lut := newPositionLUT()
	lut.init(2)
	lut.push(newBits128(0, 1))

	lut.clear()

	require.Equal(t, Unknown, lut.lookup(newBits128(0, 1)))
}

// The key space is up to 128 bits; a state differing only in the
// high 64 bits from a key already present must not collide with it.
func TestPositionLUTDoesNotTruncateHighBits(t *testing.T) {
	lut := newPositionLUT()
	lut.init(2)

	low := newBits128(0, 42)
	high := newBits128(1, 42)

	require.True(t, lut.push(low))
	require.True(t, lut.push(high))
	require.Equal(t, 0, lut.lookup(low))
	require.Equal(t, 1, lut.lookup(high))
}
