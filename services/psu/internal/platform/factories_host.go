// services/psu/internal/platform/factories_host.go
//go:build !rp2040

package platform

import (
	"sync"
	"sync/atomic"
	"time"

	"benchpsu-go/services/psu/internal/halcore"
	"benchpsu-go/types"
	"benchpsu-go/x/timex"
)

// ----------------------------- Inputs ----------------------------------------

// SimInputs replays queued quadrature codes and holds switch line levels.
// Lines are active-low like the real board: 1 = released.
type SimInputs struct {
	mu    sync.Mutex
	codes []uint8
	last  uint8
	lines uint8
}

func NewSimInputs() *SimInputs { return &SimInputs{last: 3, lines: 0x03} }

var (
	cwCodes  = [4]uint8{2, 0, 1, 3}
	ccwCodes = [4]uint8{1, 0, 2, 3}
)

// Turn queues n detents in dir.
func (s *SimInputs) Turn(dir types.Direction, n int) {
	seq := cwCodes
	if dir == types.DirCounterClockwise {
		seq = ccwCodes
	}
	s.mu.Lock()
	for i := 0; i < n; i++ {
		s.codes = append(s.codes, seq[:]...)
	}
	s.mu.Unlock()
}

// QueueCodes queues raw codes, for bounce and malformed sequences.
func (s *SimInputs) QueueCodes(codes ...uint8) {
	s.mu.Lock()
	s.codes = append(s.codes, codes...)
	s.mu.Unlock()
}

// Pending returns the number of queued codes not yet sampled.
func (s *SimInputs) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}

func (s *SimInputs) EncoderCode() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) > 0 {
		s.last = s.codes[0]
		s.codes = s.codes[1:]
	}
	return s.last
}

// Press pulls the lines in mask low; Release lets them float high.
func (s *SimInputs) Press(mask uint8) {
	s.mu.Lock()
	s.lines &^= mask
	s.mu.Unlock()
}

func (s *SimInputs) Release(mask uint8) {
	s.mu.Lock()
	s.lines |= mask
	s.mu.Unlock()
}

func (s *SimInputs) SwitchLines() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// ----------------------------- Analog ----------------------------------------

// SimADC returns settable per-channel samples.
type SimADC struct {
	ch [8]atomic.Uint32
}

func (a *SimADC) Set(ch uint8, v uint16) { a.ch[ch&7].Store(uint32(v)) }

func (a *SimADC) Read(ch uint8) uint16 { return uint16(a.ch[ch&7].Load()) }

// DACRecorder records every committed pair.
type DACRecorder struct {
	mu      sync.Mutex
	commits [][2]uint16
}

func (d *DACRecorder) Commit(v, c uint16) {
	d.mu.Lock()
	d.commits = append(d.commits, [2]uint16{v, c})
	d.mu.Unlock()
}

// Last returns the most recent pair and whether any commit happened.
func (d *DACRecorder) Last() ([2]uint16, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.commits) == 0 {
		return [2]uint16{}, false
	}
	return d.commits[len(d.commits)-1], true
}

func (d *DACRecorder) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.commits)
}

// RelayRecorder tracks the output enable line.
type RelayRecorder struct {
	on      atomic.Bool
	changes atomic.Int32
}

func (r *RelayRecorder) SetOutput(on bool) {
	r.on.Store(on)
	r.changes.Add(1)
}

func (r *RelayRecorder) On() bool     { return r.on.Load() }
func (r *RelayRecorder) Writes() int { return int(r.changes.Load()) }

// ----------------------------- Link / UI -------------------------------------

type SimLink struct{ up atomic.Bool }

func (l *SimLink) Set(up bool)   { l.up.Store(up) }
func (l *SimLink) Present() bool { return l.up.Load() }

// TextDisplay is a 16x2 character buffer.
type TextDisplay struct {
	mu    sync.Mutex
	lines [2][16]byte
	draws int
}

func NewTextDisplay() *TextDisplay {
	d := &TextDisplay{}
	for i := range d.lines {
		for j := range d.lines[i] {
			d.lines[i][j] = ' '
		}
	}
	return d
}

func (d *TextDisplay) Render(line, col uint8, text string) {
	if line > 1 {
		return
	}
	d.mu.Lock()
	for i := 0; i < len(text) && int(col)+i < 16; i++ {
		d.lines[line][int(col)+i] = text[i]
	}
	d.draws++
	d.mu.Unlock()
}

func (d *TextDisplay) Line(i int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.lines[i&1][:])
}

func (d *TextDisplay) Draws() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draws
}

type BeepCounter struct{ n atomic.Int32 }

func (b *BeepCounter) Beep()      { b.n.Add(1) }
func (b *BeepCounter) Count() int { return int(b.n.Load()) }

// ----------------------------- Time ------------------------------------------

// ManualTimer overflows only when fired.
type ManualTimer struct{ pending atomic.Bool }

func (t *ManualTimer) Fire()         { t.pending.Store(true) }
func (t *ManualTimer) Expired() bool { return t.pending.Swap(false) }

// FakeClock advances on Sleep instead of blocking.
type FakeClock struct {
	mu     sync.Mutex
	now    int64
	sleeps []time.Duration

	// OnSleep, when set, runs after each Sleep without the clock lock held.
	OnSleep func(d time.Duration)
}

func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now += d.Milliseconds()
	c.sleeps = append(c.sleeps, d)
	fn := c.OnSleep
	c.mu.Unlock()
	if fn != nil {
		fn(d)
	}
}

func (c *FakeClock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d.Milliseconds()
	c.mu.Unlock()
}

func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// ----------------------------- Transport -------------------------------------

// LinkEvent is a Detach or Attach observed by HostTransport.
type LinkEvent struct {
	Name string // "detach" | "attach"
	AtMs int64
}

// HostTransport plays the host side of the control pipe in memory. Host
// calls run on the caller's goroutine, asynchronously to the device loop.
type HostTransport struct {
	clock halcore.Clock
	// Chunk is the OUT data stage packet size. Zero means 8.
	Chunk int

	mu     sync.Mutex
	h      halcore.ControlHandler
	events []LinkEvent
	polls  atomic.Int64
}

func NewHostTransport(clock halcore.Clock) *HostTransport {
	return &HostTransport{clock: clock}
}

func (t *HostTransport) Detach() {
	t.mu.Lock()
	t.h = nil
	t.events = append(t.events, LinkEvent{"detach", t.clock.NowMs()})
	t.mu.Unlock()
}

func (t *HostTransport) Attach(h halcore.ControlHandler) {
	t.mu.Lock()
	t.h = h
	t.events = append(t.events, LinkEvent{"attach", t.clock.NowMs()})
	t.mu.Unlock()
}

func (t *HostTransport) Poll() { t.polls.Add(1) }

func (t *HostTransport) Polls() int64 { return t.polls.Load() }

func (t *HostTransport) Events() []LinkEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]LinkEvent(nil), t.events...)
}

// Attached reports whether a handler is installed.
func (t *HostTransport) Attached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.h != nil
}

func (t *HostTransport) handler() halcore.ControlHandler {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.h
}

// SetReport sends data as a SET_REPORT with its data stage split into
// Chunk-sized packets. It returns false when detached.
func (t *HostTransport) SetReport(data []byte) bool {
	h := t.handler()
	if h == nil {
		return false
	}
	_, out := h.Setup(halcore.Setup{
		RequestType: halcore.RequestTypeClass | 0x01,
		Request:     0x09,
		Value:       0x0300,
		Length:      uint16(len(data)),
	})
	if !out {
		return false
	}
	n := t.Chunk
	if n <= 0 {
		n = 8
	}
	for len(data) > 0 {
		k := n
		if k > len(data) {
			k = len(data)
		}
		if h.DataOut(data[:k]) {
			return true
		}
		data = data[k:]
	}
	return true
}

// GetReport issues a GET_REPORT and returns a copy of the reply.
func (t *HostTransport) GetReport(length uint16) ([]byte, bool) {
	h := t.handler()
	if h == nil {
		return nil, false
	}
	reply, _ := h.Setup(halcore.Setup{
		RequestType: halcore.RequestDirIn | halcore.RequestTypeClass | 0x01,
		Request:     0x01,
		Value:       0x0300,
		Length:      length,
	})
	if int(length) < len(reply) {
		reply = reply[:length]
	}
	return append([]byte(nil), reply...), true
}

// ----------------------------- Board -----------------------------------------

// Sim is a fully simulated board with its parts exposed for tests.
type Sim struct {
	Inputs    *SimInputs
	ADC       *SimADC
	DAC       *DACRecorder
	Relay     *RelayRecorder
	Link      *SimLink
	Display   *TextDisplay
	Beeper    *BeepCounter
	Timer     *ManualTimer
	Clock     *FakeClock
	Transport *HostTransport
}

// NewSim returns a simulated board driven by a manual timer and fake clock.
func NewSim() *Sim {
	clk := &FakeClock{}
	return &Sim{
		Inputs:    NewSimInputs(),
		ADC:       &SimADC{},
		DAC:       &DACRecorder{},
		Relay:     &RelayRecorder{},
		Link:      &SimLink{},
		Display:   NewTextDisplay(),
		Beeper:    &BeepCounter{},
		Timer:     &ManualTimer{},
		Clock:     clk,
		Transport: NewHostTransport(clk),
	}
}

func (s *Sim) Board() Board {
	return Board{
		Inputs:    s.Inputs,
		ADC:       s.ADC,
		DAC:       s.DAC,
		Relay:     s.Relay,
		Link:      s.Link,
		Display:   s.Display,
		Beeper:    s.Beeper,
		Timer:     s.Timer,
		Clock:     s.Clock,
		Transport: s.Transport,
	}
}

// Open builds an in-memory board on the wall clock. The plan is validated
// so wiring mistakes surface on the host too.
func Open(plan Plan, tick time.Duration) (Board, error) {
	if err := plan.Validate(); err != nil {
		return Board{}, err
	}
	return NewRealtimeSim(tick).Board(), nil
}

// NewRealtimeSim is NewSim on the wall clock with a periodic timer.
// The embedded FakeClock and ManualTimer are not part of its Board.
func NewRealtimeSim(tick time.Duration) *RealtimeSim {
	s := NewSim()
	s.Transport = NewHostTransport(timex.System{})
	return &RealtimeSim{Sim: s, timer: NewIntervalTimer(timex.System{}, tick)}
}

// RealtimeSim runs the simulated parts against real time.
type RealtimeSim struct {
	*Sim
	timer *IntervalTimer
}

func (r *RealtimeSim) Board() Board {
	b := r.Sim.Board()
	b.Clock = timex.System{}
	b.Timer = r.timer
	return b
}
