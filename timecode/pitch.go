package timecode

/*-------------------------------------------------------------
 *
 * Purpose:	Pitch estimator collaborator (C5).
 *
 * Description:	Per spec.md §6/§9, the pitch estimator is a small
 *		opaque capability owned by each decoder: it accepts
 *		per-sample displacement observations and exposes an
 *		instantaneous velocity read-out, but its internal
 *		filter choice is the estimator's concern, not the
 *		core's. Expressed here as an interface so a caller
 *		needing different numerics (e.g. to match an original
 *		implementation byte-for-byte) can supply their own.
 *
 *		original_source/timecoder.c calls pitch_init(dt) once
 *		and pitch_dt_observation(dx) every sample; that
 *		filter's own source was not part of the retrieved
 *		original_source, so EMAPitch below is a fresh design
 *		rather than a port (see DESIGN.md).
 *
 *--------------------------------------------------------------*/

// PitchEstimator accumulates per-sample displacement observations
// (in units of elapsed playback-time per sample, per spec.md §4.6)
// into a smoothed instantaneous velocity.
type PitchEstimator interface {
	Init(dt float64)
	Observe(dx float64)
	Pitch() float64
}

// pitchRC is the EMA time constant for the default pitch estimator.
// Ten times slower than the zero-crossing rumble filter's RC (see
// rumbleRC in decoder.go): slow enough to damp the per-bit-cell jitter
// inherent in a quadrature-crossing velocity observation, fast
// enough to track a scratch within a few milliseconds.
const pitchRC = 0.01

// EMAPitch is the default PitchEstimator: an exponential moving
// average of the per-sample instantaneous velocity dx/dt, using the
// same alpha = dt/(RC+dt) idiom as the channel zero-crossing filter.
type EMAPitch struct {
	dt    float64
	alpha float64
	value float64
}

func NewEMAPitch() *EMAPitch {
	return &EMAPitch{}
}

func (p *EMAPitch) Init(dt float64) {
	p.dt = dt
	p.alpha = dt / (pitchRC + dt)
	p.value = 0
}

func (p *EMAPitch) Observe(dx float64) {
	instantaneous := dx / p.dt
	p.value += p.alpha * (instantaneous - p.value)
}

func (p *EMAPitch) Pitch() float64 {
	return p.value
}
