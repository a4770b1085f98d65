// Package buttons classifies the two switch lines and reports settled press edges.
package buttons

// Code is a 2-bit pressed mask.
type Code uint8

const (
	OutputControl Code = 1 << 0
	EncoderShaft  Code = 1 << 1

	lineMask = uint8(OutputControl | EncoderShaft)
)

// Has reports whether all bits of c2 are set in c.
func (c Code) Has(c2 Code) bool { return c&c2 == c2 }

// Classify maps raw switch line levels to a pressed mask. Lines are
// active-low unless activeHigh is set. No temporal filtering happens here.
func Classify(raw uint8, activeHigh bool) Code {
	if !activeHigh {
		raw = ^raw
	}
	return Code(raw & lineMask)
}

// Debouncer reports state changes of the classified switch code. The
// caller waits the settle delay once per reported change before sampling
// again, so contact bounce around an edge is never seen and a held
// button yields exactly one click.
type Debouncer struct {
	activeHigh bool
	last       Code
}

func NewDebouncer(activeHigh bool) *Debouncer {
	return &Debouncer{activeHigh: activeHigh}
}

// Sample classifies raw and compares it with the last accepted code.
// pressed holds the bits that went from released to pressed; changed is
// true on any edge, press or release.
func (d *Debouncer) Sample(raw uint8) (pressed Code, changed bool) {
	cur := Classify(raw, d.activeHigh)
	if cur == d.last {
		return 0, false
	}
	pressed = cur &^ d.last
	d.last = cur
	return pressed, true
}

// Held returns the last accepted code.
func (d *Debouncer) Held() Code { return d.last }
