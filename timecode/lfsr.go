package timecode

/*-------------------------------------------------------------
 *
 * Purpose:	Linear Feedback Shift Register primitives (C1).
 *
 * Reference:	original_source/timecoder.c: lfsr(), fwd(), rev().
 *
 *--------------------------------------------------------------*/

// parity returns the XOR (population count mod 2) of code AND taps.
func parity(code, taps bits128) bits_t {
	taken := code.and(taps)
	return bits_t(taken.popcount() & 0x1)
}

type bits_t = uint8

// fwd steps the LFSR forward. New bits enter at the MSB; the
// register shifts toward the LSB.
func fwd(current bits128, def *Definition) bits128 {
	l := parity(current, def.taps.or(bitAt(0)))
	next := current.shiftRight1()
	if l != 0 {
		next = next.or(bitAt(def.Bits - 1))
	}
	return next
}

// rev steps the LFSR backward. rev(fwd(x, def), def) == x for every
// state in the orbit; this is asserted while building the lookup
// table for each definition.
func rev(current bits128, def *Definition) bits128 {
	tapsShifted := def.taps.shiftRight1()
	highBit := bitAt(def.Bits - 1)

	l := parity(current, tapsShifted.or(highBit))
	next := current.shiftLeft1().and(maskN(def.Bits))
	if l != 0 {
		next = next.or(bitAt(0))
	}
	return next
}
