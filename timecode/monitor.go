package timecode

/*-------------------------------------------------------------
 *
 * Purpose:	Decaying X-Y raster of post-calibrated input (C7),
 *		AKA the 'scope'.
 *
 * Reference:	original_source/timecoder.c: timecoder_monitor_init,
 *		timecoder_monitor_clear, update_monitor.
 *
 *--------------------------------------------------------------*/

// monitorDecayEvery is the sample interval at which every non-zero
// pixel is attenuated, per spec.md §4.7.
const monitorDecayEvery = 512

// Monitor is a square grayscale raster, row-major, values in
// [0, 255]. A nil *Monitor is a valid, inert "no monitor attached"
// state: plot becomes a no-op.
type Monitor struct {
	pixels  []byte
	size    int
	counter int
}

func newMonitor(size int) *Monitor {
	return &Monitor{
		pixels: make([]byte, size*size),
		size:   size,
	}
}

// Bytes returns the raw raster buffer, length size*size, row-major.
func (m *Monitor) Bytes() []byte {
	return m.pixels
}

// Size returns the raster's edge length.
func (m *Monitor) Size() int {
	return m.size
}

// plot records one (x, y) sample, scaled by the current reference
// level, decaying the whole raster every monitorDecayEvery samples.
func (m *Monitor) plot(x, y int32, refLevel int32) {
	if m == nil {
		return
	}

	m.counter++
	if m.counter%monitorDecayEvery == 0 {
		for i, v := range m.pixels {
			if v != 0 {
				m.pixels[i] = byte(int(v) * 7 / 8)
			}
		}
	}

	Assert(refLevel > 0, "update_monitor: ref_level must be positive, got %d", refLevel)

	size := int64(m.size)
	px := m.size/2 + int((int64(x)*size/int64(refLevel))/8)
	py := m.size/2 + int((int64(y)*size/int64(refLevel))/8)

	if px < 0 || px >= m.size || py < 0 || py >= m.size {
		return
	}

	m.pixels[py*m.size+px] = 0xff
}
