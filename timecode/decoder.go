package timecode

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
)

/*-------------------------------------------------------------
 *
 * Purpose:	Decoder facade (C8): owns a definition reference, the
 *		per-decoder channel/bitstream/pitch/monitor state, and
 *		the public submit/query API.
 *
 * Reference:	original_source/timecoder.c: timecoder_init,
 *		process_sample, process_bitstream, timecoder_submit,
 *		timecoder_get_position, timecoder_clear,
 *		timecoder_monitor_init, timecoder_monitor_clear,
 *		timecoder_cycle_definition.
 *
 *--------------------------------------------------------------*/

const (
	// refPeaksAvg is the exponential window, in accepted bits, over
	// which refLevel tracks the carrier's peak magnitude.
	refPeaksAvg = 48

	// validBits is the number of consecutive agreeing bits required
	// before a position is reported as known.
	validBits = 24

	// rumbleRC is the zero-crossing baseline's time constant, in
	// seconds: slow enough to reject subsonic turntable rumble.
	rumbleRC = 0.001

	// defaultThreshold is the line-level crossing hysteresis.
	defaultThreshold int32 = 128 << 16

	// offsetModulationAlpha is the EMA coefficient for the
	// OFFSET_MODULATION pre-filter (see offsetFilter below).
	offsetModulationAlpha = 0.3

	// offsetModulationMonitorGain scales the pre-filtered derivative
	// before it reaches the monitor, so the scope raster stays
	// legibly sized relative to a non-offset-modulated signal.
	offsetModulationMonitorGain = 1.25
)

// envelopeBuffer is the fixed-capacity ring described in spec.md §9:
// "a small fixed-capacity ring (10 entries) used only under
// OFFSET_MODULATION". Its consumer (an envelope-offset refinement to
// the bit-decision rule) was never finished upstream (§9 open
// question 1); this keeps the buffer filled and inspectable without
// inventing new decision semantics.
type envelopeBuffer struct {
	data [10]int32
	next int
}

func (e *envelopeBuffer) push(v int32) {
	e.data[e.next] = v
	e.next = (e.next + 1) % len(e.data)
}

// Snapshot returns a copy of the ring's current contents, oldest
// first is not guaranteed; order is the underlying storage order.
func (e *envelopeBuffer) Snapshot() [10]int32 {
	return e.data
}

// offsetFilter is the OFFSET_MODULATION pre-filter: a discrete
// derivative of an EMA-smoothed signal. original_source/timecoder.c's
// process_sample calls undocumented ema()/discrete_derivative()
// helpers on this path whose own definitions were not part of the
// filtered original_source; this is a fresh, from-first-principles
// realization of "derivative of an EMA" rather than a byte-for-byte
// port (see DESIGN.md).
type offsetFilter struct {
	ema         float64
	prev        float64
	initialized bool
}

func (f *offsetFilter) step(x int32) int32 {
	v := float64(x)
	if !f.initialized {
		f.ema = v
		f.prev = v
		f.initialized = true
	}
	f.prev = f.ema
	f.ema += offsetModulationAlpha * (v - f.ema)
	return int32(f.ema - f.prev)
}

// Decoder is the per-stream decoding state (C8). Exclusively owned by
// its caller; not safe for concurrent use without external
// synchronization (spec.md §5).
type Decoder struct {
	def   *Definition
	speed float64
	dt    float64

	zeroAlpha float64
	threshold int32

	forwards  bool
	primary   channel
	secondary channel

	primaryOffset   offsetFilter
	secondaryOffset offsetFilter

	pitch PitchEstimator

	refLevel int32

	bitstream bits128
	timecode  bits128

	validCounter   int
	timecodeTicker int

	mon *Monitor

	cbuf envelopeBuffer
}

// Init builds a decoder bound to def, which must already have a
// built lookup table (a precondition violation otherwise: per
// spec.md §7 this is a caller bug, not a recoverable error). speed is
// the nominal playback speed multiplier; sampleRate is in Hz; phono
// lowers the crossing threshold by 5 bits (~-30dB) to suit a
// phono-level rather than line-level input.
func Init(def *Definition, speed float64, sampleRate uint, phono bool) *Decoder {
	Assert(def.Built(), "timecoder_init: definition %q has no built lookup table", def.Name)
	Assert(sampleRate > 0, "timecoder_init: sample_rate must be positive")

	d := &Decoder{
		def:      def,
		speed:    speed,
		dt:       1.0 / float64(sampleRate),
		forwards: true,
		refLevel: math.MaxInt32,
	}

	d.zeroAlpha = d.dt / (rumbleRC + d.dt)
	d.threshold = defaultThreshold
	if phono {
		d.threshold >>= 5
	}

	d.primary.init()
	d.secondary.init()

	pitch := NewEMAPitch()
	pitch.Init(d.dt)
	d.pitch = pitch

	log.Info("decoder initialized",
		"def", def.Name, "speed", speed, "sample_rate", sampleRate, "phono", phono)

	return d
}

// Definition returns the decoder's current timecode definition.
func (d *Decoder) Definition() *Definition {
	return d.def
}

// Speed returns the nominal playback speed multiplier the decoder was
// configured with.
func (d *Decoder) Speed() float64 {
	return d.speed
}

// Pitch returns the current smoothed instantaneous velocity from the
// pitch estimator (C5): the second of the two observables the core
// exists to recover, per spec.md §2.
func (d *Decoder) Pitch() float64 {
	return d.pitch.Pitch()
}

// Envelope returns a snapshot of the OFFSET_MODULATION envelope
// buffer. Only meaningful when def.Flags.has(FlagOffsetModulation).
func (d *Decoder) Envelope() [10]int32 {
	return d.cbuf.Snapshot()
}

// MonitorInit attaches a size x size diagnostic raster. Precondition:
// no monitor is currently attached.
func (d *Decoder) MonitorInit(size int) error {
	Assert(d.mon == nil, "timecoder_monitor_init: monitor already present")
	if size <= 0 {
		return fmt.Errorf("timecode: invalid monitor size %d", size)
	}
	d.mon = newMonitor(size)
	return nil
}

// MonitorClear releases the attached monitor. Precondition: a
// monitor is currently attached.
func (d *Decoder) MonitorClear() {
	Assert(d.mon != nil, "timecoder_monitor_clear: no monitor present")
	d.mon = nil
}

// Monitor returns the attached monitor, or nil if none is attached.
func (d *Decoder) Monitor() *Monitor {
	return d.mon
}

// Clear releases decoder resources. Precondition: no monitor is
// currently attached (the caller must MonitorClear first).
func (d *Decoder) Clear() {
	Assert(d.mon == nil, "timecoder_clear: monitor must be released before clearing decoder")
}

// CycleDefinition advances to the next built definition in the
// catalog, wrapping around, and resets confidence state (spec.md
// §4.3).
func (d *Decoder) CycleDefinition() {
	d.def = nextBuiltDefinition(d.def)
	d.validCounter = 0
	d.timecodeTicker = 0
	log.Info("cycled timecode definition", "name", d.def.Name)
}

// Submit consumes interleaved stereo 16-bit PCM frames, in order.
// Synchronous and non-blocking: no I/O or suspension occurs here.
func (d *Decoder) Submit(pcm []int16) {
	Assert(len(pcm)%2 == 0, "timecoder_submit: pcm length must be even (interleaved stereo), got %d", len(pcm))

	swapPrimary := d.def.Flags.has(FlagPrimarySwap)

	for i := 0; i < len(pcm); i += 2 {
		left := int32(pcm[i]) << 16
		right := int32(pcm[i+1]) << 16

		var primary, secondary int32
		if swapPrimary {
			primary, secondary = left, right
		} else {
			primary, secondary = right, left
		}

		d.processSample(primary, secondary)
	}
}

// processSample is process_sample: channel assignment having already
// happened in Submit, this runs the optional OFFSET_MODULATION
// pre-filter, zero-crossing detection on both channels, direction
// inference and bit extraction, and the monitor plot.
func (d *Decoder) processSample(primaryRaw, secondaryRaw int32) {
	primary, secondary := primaryRaw, secondaryRaw
	monPrimary, monSecondary := primaryRaw, secondaryRaw

	if d.def.Flags.has(FlagOffsetModulation) {
		dp := d.primaryOffset.step(primaryRaw)
		ds := d.secondaryOffset.step(secondaryRaw)
		primary, secondary = dp, ds
		monPrimary = int32(offsetModulationMonitorGain * float64(dp))
		monSecondary = int32(offsetModulationMonitorGain * float64(ds))
	}

	detectZeroCrossing(&d.primary, primary, d.zeroAlpha, d.threshold)
	detectZeroCrossing(&d.secondary, secondary, d.zeroAlpha, d.threshold)

	d.inferDirectionAndBit(primaryRaw)

	d.mon.plot(monPrimary, monSecondary, d.refLevel)
}

// inferDirectionAndBit is spec.md §4.6: direction inference from
// quadrature phase, a displacement observation to the pitch
// estimator, and (when the secondary channel just crossed at the
// expected primary polarity) a call into processBitstream.
//
// primaryRaw is the unfiltered primary sample: per
// original_source/timecoder.c:634, the magnitude fed to
// processBitstream is always taken from the raw signal, even under
// OFFSET_MODULATION, where primary_deriv (the filtered value) is used
// only for zero-crossing detection, never for the magnitude.
func (d *Decoder) inferDirectionAndBit(primaryRaw int32) {
	switch {
	case d.primary.swapped:
		prevForwards := d.forwards
		d.forwards = d.primary.positive != d.secondary.positive
		if d.def.Flags.has(FlagPhaseSwap) {
			d.forwards = !d.forwards
		}
		if d.forwards != prevForwards {
			d.validCounter = 0
		}
	case d.secondary.swapped:
		prevForwards := d.forwards
		d.forwards = d.primary.positive == d.secondary.positive
		if d.def.Flags.has(FlagPhaseSwap) {
			d.forwards = !d.forwards
		}
		if d.forwards != prevForwards {
			d.validCounter = 0
		}
	default:
		d.pitch.Observe(0)
		d.timecodeTicker++
		return
	}

	dx := 1.0 / (float64(d.def.Resolution) * 4)
	if !d.forwards {
		dx = -dx
	}
	d.pitch.Observe(dx)

	expectedPositive := !d.def.Flags.has(FlagPolarityInvert)
	if d.secondary.swapped && d.primary.positive == expectedPositive {
		m := absInt32(primaryRaw/2 - d.primary.zero/2)
		d.processBitstream(m)
	}

	d.timecodeTicker++
}

// processBitstream is spec.md §4.5: bit extraction against the
// running reference level, orientation-aware register update,
// confidence tracking, and reference-level tracking. m is a
// non-negative magnitude.
func (d *Decoder) processBitstream(m int32) {
	var b bits_t
	if m > d.refLevel {
		b = 1
	}

	if d.def.Flags.has(FlagOffsetModulation) {
		d.cbuf.push(m)
	}

	if d.forwards {
		d.timecode = fwd(d.timecode, d.def)
		d.bitstream = d.bitstream.shiftRight1()
		if b != 0 {
			d.bitstream = d.bitstream.or(bitAt(d.def.Bits - 1))
		}
	} else {
		d.timecode = rev(d.timecode, d.def)
		d.bitstream = d.bitstream.shiftLeft1().and(maskN(d.def.Bits))
		if b != 0 {
			d.bitstream = d.bitstream.or(bitAt(0))
		}
	}

	if d.timecode == d.bitstream {
		d.validCounter++
	} else {
		d.timecode = d.bitstream
		d.validCounter = 0
	}

	d.timecodeTicker = 0
	d.refLevel = d.refLevel - d.refLevel/refPeaksAvg + m/refPeaksAvg
}

// GetPosition returns the decoder's current position ordinal, or
// Unknown if valid_counter has not yet exceeded validBits or the
// current bitstream register is not in the definition's orbit. when
// is the elapsed time, in seconds, since the last accepted bit; it is
// only meaningful when the returned position is not Unknown.
func (d *Decoder) GetPosition() (position int, when float64) {
	if d.validCounter <= validBits {
		return Unknown, 0
	}

	pos := d.def.lut.lookup(d.bitstream)
	if pos == Unknown {
		return Unknown, 0
	}

	return pos, float64(d.timecodeTicker) * d.dt
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
