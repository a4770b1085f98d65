package types

// ------------------------
// Power state record (8-byte feature report)
// ------------------------

// PowerStateSize is the fixed wire size of PowerState.
const PowerStateSize = 8

// PowerState is the record exchanged with the host.
// Voltage and Current are dimensionless 16-bit codes.
type PowerState struct {
	Output   bool    `json:"output"`
	Voltage  uint16  `json:"voltage"`
	Current  uint16  `json:"current"`
	Reserved [3]byte `json:"reserved"` // passthrough, never interpreted
}

// MarshalTo writes the little-endian wire layout into dst and returns
// the number of bytes written (0 if dst is shorter than PowerStateSize).
//
//	[0] output (0/1)  [1..2] voltage  [3..4] current  [5..7] reserved
func (s PowerState) MarshalTo(dst []byte) int {
	if len(dst) < PowerStateSize {
		return 0
	}
	dst[0] = 0
	if s.Output {
		dst[0] = 1
	}
	dst[1] = byte(s.Voltage)
	dst[2] = byte(s.Voltage >> 8)
	dst[3] = byte(s.Current)
	dst[4] = byte(s.Current >> 8)
	copy(dst[5:8], s.Reserved[:])
	return PowerStateSize
}

// Bytes returns the wire form as a fixed array.
func (s PowerState) Bytes() (b [PowerStateSize]byte) {
	s.MarshalTo(b[:])
	return b
}

// UnmarshalPowerState parses the wire layout. Any nonzero output byte
// means enabled. ok is false if src is shorter than PowerStateSize.
func UnmarshalPowerState(src []byte) (s PowerState, ok bool) {
	if len(src) < PowerStateSize {
		return PowerState{}, false
	}
	s.Output = src[0] != 0
	s.Voltage = uint16(src[1]) | uint16(src[2])<<8
	s.Current = uint16(src[3]) | uint16(src[4])<<8
	copy(s.Reserved[:], src[5:8])
	return s, true
}

// ------------------------
// Enums
// ------------------------

// Parameter selects which setpoint the encoder adjusts.
type Parameter uint8

const (
	ParamVoltage Parameter = iota
	ParamCurrent
)

func (p Parameter) String() string {
	if p == ParamCurrent {
		return "current"
	}
	return "voltage"
}

// Other returns the opposite parameter.
func (p Parameter) Other() Parameter {
	if p == ParamVoltage {
		return ParamCurrent
	}
	return ParamVoltage
}

// AdjustMode is the step granularity derived from recent encoder activity.
type AdjustMode uint8

const (
	AdjustSlow AdjustMode = iota
	AdjustFast
)

func (m AdjustMode) String() string {
	if m == AdjustFast {
		return "fast"
	}
	return "slow"
}

// ConnMode is the top-level authority switch.
type ConnMode uint8

const (
	Disconnected ConnMode = iota // local controls authoritative
	Connected                    // host authoritative
)

func (c ConnMode) String() string {
	if c == Connected {
		return "connected"
	}
	return "disconnected"
}

// Direction is a decoded encoder detent.
type Direction uint8

const (
	DirNone Direction = iota
	DirClockwise
	DirCounterClockwise
)

func (d Direction) String() string {
	switch d {
	case DirClockwise:
		return "cw"
	case DirCounterClockwise:
		return "ccw"
	default:
		return "none"
	}
}
