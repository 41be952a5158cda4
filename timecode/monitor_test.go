package timecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// S6: after MONITOR_DECAY_EVERY samples with one pixel set to 0xFF
// and no further plots at that coordinate, the pixel equals
// 0xFF * 7 / 8 = 0xDF.
func TestMonitorDecay(t *testing.T) {
	mon := newMonitor(16)

	const refLevel int32 = 1 << 16
	mon.plot(0, 0, refLevel) // lands at (size/2, size/2)

	center := mon.size/2*mon.size + mon.size/2
	require.EqualValues(t, 0xff, mon.pixels[center])

	// Plot elsewhere, off that pixel, for the remaining ticks up to
	// the decay boundary.
	for i := 1; i < monitorDecayEvery; i++ {
		mon.plot(int32(mon.size)*refLevel*8, int32(mon.size)*refLevel*8, refLevel) // clipped out of range
	}

	require.EqualValues(t, 0xdf, mon.pixels[center])
}

func TestMonitorPlotOutOfRangeIsClipped(t *testing.T) {
	mon := newMonitor(8)
	const refLevel int32 = 1 << 16

	before := make([]byte, len(mon.pixels))
	copy(before, mon.pixels)

	mon.plot(int32(mon.size)*refLevel*100, 0, refLevel)

	require.Equal(t, before, mon.pixels)
}

func TestNilMonitorPlotIsNoOp(t *testing.T) {
	var mon *Monitor
	require.NotPanics(t, func() {
		mon.plot(0, 0, 1<<16)
	})
}
