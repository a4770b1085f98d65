// Package transfer implements the chunked 8-byte feature-report exchange
// with the host. Writes are assembled in a staging buffer and applied to
// the store only once all 8 bytes have arrived; reads always come from the
// store, never from the staging buffer.
package transfer

import (
	"sync"

	"benchpsu-go/services/psu/internal/halcore"
	"benchpsu-go/types"
	"benchpsu-go/x/logx"
)

// HID class requests.
const (
	ReqGetReport = 0x01
	ReqSetReport = 0x09
)

// ReportDescriptor declares one vendor-defined 8-byte feature report.
var ReportDescriptor = [22]byte{
	0x06, 0x00, 0xff, // usage page (vendor 0xFF00)
	0x09, 0x01, // usage (vendor 1)
	0xa1, 0x01, // collection (application)
	0x15, 0x00, //   logical min 0
	0x26, 0xff, 0x00, //   logical max 255
	0x75, 0x08, //   report size 8
	0x95, 0x08, //   report count 8
	0x09, 0x00, //   usage (undefined)
	0xb2, 0x02, 0x01, //   feature (data, var, abs, buf)
	0xc0, // end collection
}

// Store is the authoritative record.
type Store interface {
	Snapshot() types.PowerState
	ApplyRemote(types.PowerState)
}

// Protocol is safe for concurrent use by the transport and the foreground loop.
type Protocol struct {
	store Store

	mu        sync.Mutex
	open      bool
	remaining int
	cursor    int
	stage     [types.PowerStateSize]byte
	reply     [types.PowerStateSize]byte
}

func New(store Store) *Protocol { return &Protocol{store: store} }

// Read serializes the current record into dst and returns the byte count.
func (p *Protocol) Read(dst []byte) int {
	return p.store.Snapshot().MarshalTo(dst)
}

// BeginWrite opens a fresh session, dropping any partial one.
func (p *Protocol) BeginWrite() {
	p.mu.Lock()
	if p.open && p.cursor > 0 {
		logx.Debug(logx.ComponentTransfer, "partial write superseded", "received", p.cursor)
	}
	p.open = true
	p.remaining = types.PowerStateSize
	p.cursor = 0
	p.mu.Unlock()
}

// WriteChunk accepts the next OUT chunk. It returns true once the record
// is complete (or when no session is open).
func (p *Protocol) WriteChunk(data []byte) bool {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return true
	}
	n := len(data)
	if n > p.remaining {
		logx.Debug(logx.ComponentTransfer, "write overrun truncated", "dropped", n-p.remaining)
		n = p.remaining
	}
	copy(p.stage[p.cursor:], data[:n])
	p.cursor += n
	p.remaining -= n
	if p.remaining > 0 {
		p.mu.Unlock()
		return false
	}
	s, _ := types.UnmarshalPowerState(p.stage[:])
	p.open = false
	p.cursor = 0
	p.mu.Unlock()

	p.store.ApplyRemote(s)
	return true
}

// Setup dispatches class requests. The returned reply aliases an internal
// buffer that is valid until the next Setup call.
func (p *Protocol) Setup(s halcore.Setup) (reply []byte, dataOut bool) {
	if !s.IsClass() {
		return nil, false
	}
	switch s.Request {
	case ReqGetReport:
		p.mu.Lock()
		n := p.Read(p.reply[:])
		out := p.reply[:n]
		p.mu.Unlock()
		return out, false
	case ReqSetReport:
		p.BeginWrite()
		return nil, true
	}
	return nil, false
}

// DataOut forwards an OUT chunk to WriteChunk.
func (p *Protocol) DataOut(chunk []byte) bool { return p.WriteChunk(chunk) }

var _ halcore.ControlHandler = (*Protocol)(nil)
