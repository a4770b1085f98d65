// services/psu/internal/halcore/types.go
package halcore

import "time"

// Capabilities consumed by the control core. None of them report errors:
// hardware writes are fire-and-forget.

// Inputs samples the local controls.
type Inputs interface {
	// EncoderCode returns the raw 2-bit quadrature line state (A=bit0, B=bit1).
	EncoderCode() uint8
	// SwitchLines returns raw switch line levels: bit0 output-control,
	// bit1 encoder-shaft. Levels are as wired (pull-ups: 1 = released).
	SwitchLines() uint8
}

// ADC returns a 16-bit sample for a channel.
type ADC interface {
	Read(channel uint8) uint16
}

// AnalogOutputs commits the voltage/current pair to the output stage.
type AnalogOutputs interface {
	Commit(voltage, current uint16)
}

// Relay drives the output enable.
type Relay interface {
	SetOutput(enabled bool)
}

// Link reports physical host-link presence.
type Link interface {
	Present() bool
}

// Display is a character display.
type Display interface {
	Render(line, column uint8, text string)
}

// Beeper gives audible feedback.
type Beeper interface {
	Beep()
}

// Timer is a free-running overflow flag. Expired reports and clears it.
type Timer interface {
	Expired() bool
}

// Clock provides blocking delays.
type Clock interface {
	Sleep(d time.Duration)
	NowMs() int64
}

// ---------------- Host transport ----------------

// Setup is the 8-byte control request header.
type Setup struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
}

// SetupSize is the wire size of Setup.
const SetupSize = 8

// Request type fields.
const (
	RequestDirIn     = 0x80
	RequestTypeMask  = 0x60
	RequestTypeClass = 0x20
)

// ParseSetup decodes a little-endian setup packet.
func ParseSetup(b []byte) (Setup, bool) {
	if len(b) < SetupSize {
		return Setup{}, false
	}
	return Setup{
		RequestType: b[0],
		Request:     b[1],
		Value:       uint16(b[2]) | uint16(b[3])<<8,
		Index:       uint16(b[4]) | uint16(b[5])<<8,
		Length:      uint16(b[6]) | uint16(b[7])<<8,
	}, true
}

// MarshalTo writes the packet into dst and returns SetupSize, or 0 if short.
func (s Setup) MarshalTo(dst []byte) int {
	if len(dst) < SetupSize {
		return 0
	}
	dst[0] = s.RequestType
	dst[1] = s.Request
	dst[2], dst[3] = byte(s.Value), byte(s.Value>>8)
	dst[4], dst[5] = byte(s.Index), byte(s.Index>>8)
	dst[6], dst[7] = byte(s.Length), byte(s.Length>>8)
	return SetupSize
}

// IsClass reports a class-specific request.
func (s Setup) IsClass() bool { return s.RequestType&RequestTypeMask == RequestTypeClass }

// ControlHandler services control transfers. It may be called from
// interrupt context (device) or another goroutine (host).
type ControlHandler interface {
	// Setup handles a request header. reply is the IN data stage (nil if
	// none); dataOut reports that an OUT data stage follows.
	Setup(s Setup) (reply []byte, dataOut bool)
	// DataOut delivers one OUT chunk and reports completion.
	DataOut(chunk []byte) (done bool)
}

// Transport is the host link.
type Transport interface {
	// Detach forces the link into the disconnected condition.
	Detach()
	// Attach reconnects and enables asynchronous delivery to h.
	Attach(h ControlHandler)
	// Poll services pending transfers from the foreground loop.
	Poll()
}

// SerialPort is the byte-stream link used when control transfers are
// carried over a UART.
type SerialPort interface {
	Write(p []byte) (int, error)
	Buffered() int
	Read(p []byte) (int, error)
}
