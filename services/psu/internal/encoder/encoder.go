// Package encoder decodes the rotary encoder's 2-bit line state into
// detent events.
//
// Only the two 4-step progressions below are recognised (oldest first);
// the idle/detent code is 3 (both lines pulled up):
//
//	clockwise         2 0 1 3
//	counterclockwise  1 0 2 3
//
// Contact bounce shows up as repeated identical samples, which never
// advance the history.
package encoder

import "benchpsu-go/types"

const (
	idle     = 3
	histSize = 4
)

var (
	seqCW  = [histSize]uint8{2, 0, 1, 3}
	seqCCW = [histSize]uint8{1, 0, 2, 3}
)

// Decoder keeps the last four distinct codes. hist[0] is the oldest.
type Decoder struct {
	hist [histSize]uint8
}

func New() *Decoder {
	d := &Decoder{}
	d.Reset()
	return d
}

// Reset fills the history with the idle sentinel.
func (d *Decoder) Reset() {
	for i := range d.hist {
		d.hist[i] = idle
	}
}

// Sample feeds one raw sample and returns the detent it completes, if any.
func (d *Decoder) Sample(raw uint8) types.Direction {
	code := raw & 0x03
	if code == d.hist[histSize-1] {
		return types.DirNone
	}
	copy(d.hist[:], d.hist[1:])
	d.hist[histSize-1] = code

	switch d.hist {
	case seqCW:
		d.Reset()
		return types.DirClockwise
	case seqCCW:
		d.Reset()
		return types.DirCounterClockwise
	}
	return types.DirNone
}
