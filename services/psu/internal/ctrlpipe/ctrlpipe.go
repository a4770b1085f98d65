// Package ctrlpipe carries control transfers over a byte stream.
//
// Framing, host to device: an 8-byte setup packet, followed for OUT
// requests by exactly wLength data bytes. IN replies are written back
// raw, truncated to wLength. Data stage bytes are delivered to the
// handler in chunks of at most MaxChunk as they arrive.
package ctrlpipe

import (
	"sync"

	"benchpsu-go/services/psu/internal/halcore"
	"benchpsu-go/x/logx"
	"benchpsu-go/x/mathx"
)

// MaxChunk matches a low-speed control endpoint packet.
const MaxChunk = 8

type state uint8

const (
	stHeader state = iota
	stData
)

// Pipe is the stream decoder. Feed may be called with arbitrary splits.
type Pipe struct {
	mu  sync.Mutex
	h   halcore.ControlHandler
	out writer

	st        state
	hdr       [halcore.SetupSize]byte
	hdrN      int
	remaining int
	done      bool
}

type writer interface {
	Write(p []byte) (int, error)
}

// New returns a pipe delivering to h and writing replies to out.
func New(h halcore.ControlHandler, out writer) *Pipe {
	return &Pipe{h: h, out: out}
}

// Reset drops any partially received request.
func (p *Pipe) Reset() {
	p.mu.Lock()
	p.st, p.hdrN, p.remaining, p.done = stHeader, 0, 0, false
	p.mu.Unlock()
}

// Feed consumes stream bytes.
func (p *Pipe) Feed(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(b) > 0 {
		switch p.st {
		case stHeader:
			n := copy(p.hdr[p.hdrN:], b)
			p.hdrN += n
			b = b[n:]
			if p.hdrN == halcore.SetupSize {
				p.hdrN = 0
				p.dispatch()
			}
		case stData:
			k := mathx.Min(mathx.Min(len(b), p.remaining), MaxChunk)
			if !p.done {
				p.done = p.h.DataOut(b[:k])
			} else {
				logx.Debug(logx.ComponentTransfer, "data stage surplus discarded", "bytes", k)
			}
			p.remaining -= k
			b = b[k:]
			if p.remaining == 0 {
				p.st = stHeader
			}
		}
	}
}

func (p *Pipe) dispatch() {
	s, _ := halcore.ParseSetup(p.hdr[:])
	reply, dataOut := p.h.Setup(s)
	if reply != nil && p.out != nil {
		n := mathx.Min(len(reply), int(s.Length))
		if _, err := p.out.Write(reply[:n]); err != nil {
			logx.Warn(logx.ComponentTransfer, "reply write failed", "err", err)
		}
	}
	// OUT requests always carry wLength data bytes; a declined one is
	// skipped so the next setup packet stays aligned.
	if s.RequestType&halcore.RequestDirIn == 0 && s.Length > 0 {
		p.st = stData
		p.remaining = int(s.Length)
		p.done = !dataOut
	}
}

// Transport adapts a serial port to halcore.Transport. Poll drains the
// receive buffer into the pipe; input that arrives while detached is
// discarded.
type Transport struct {
	port halcore.SerialPort
	buf  [32]byte

	mu   sync.Mutex
	pipe *Pipe
}

func NewTransport(port halcore.SerialPort) *Transport {
	return &Transport{port: port}
}

func (t *Transport) Detach() {
	t.mu.Lock()
	t.pipe = nil
	t.mu.Unlock()
	t.drain(nil)
}

func (t *Transport) Attach(h halcore.ControlHandler) {
	t.mu.Lock()
	t.pipe = New(h, t.port)
	t.mu.Unlock()
}

func (t *Transport) Poll() {
	t.mu.Lock()
	p := t.pipe
	t.mu.Unlock()
	t.drain(p)
}

func (t *Transport) drain(p *Pipe) {
	for t.port.Buffered() > 0 {
		n, err := t.port.Read(t.buf[:])
		if n <= 0 || err != nil {
			return
		}
		if p != nil {
			p.Feed(t.buf[:n])
		}
	}
}

var _ halcore.Transport = (*Transport)(nil)
