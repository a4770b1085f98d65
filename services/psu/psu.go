// Package psu is the bench power supply controller: local encoder and
// switch handling while disconnected, host-driven setpoints while
// connected, and the display and telemetry that go with both.
package psu

import (
	"context"
	"runtime"
	"sync/atomic"

	"benchpsu-go/bus"
	"benchpsu-go/services/psu/internal/buttons"
	"benchpsu-go/services/psu/internal/encoder"
	"benchpsu-go/services/psu/internal/platform"
	"benchpsu-go/services/psu/internal/setpoint"
	"benchpsu-go/services/psu/internal/tick"
	"benchpsu-go/services/psu/internal/transfer"
	"benchpsu-go/types"
	"benchpsu-go/x/logx"
	"benchpsu-go/x/timex"
)

// DefaultConfig returns the reference firmware constants.
func DefaultConfig() types.PSUConfig { return types.DefaultPSUConfig() }

// Device owns all controller state. Only Run (or Step) touches the
// foreground fields; transport handlers reach the record through the
// setpoint controller and the transfer protocol, which lock internally.
type Device struct {
	cfg   types.PSUConfig
	board platform.Board
	pub   publisher

	ctrl  *setpoint.Controller
	proto *transfer.Protocol
	dec   *encoder.Decoder
	deb   *buttons.Debouncer
	sched *tick.Scheduler

	vMeas atomic.Uint32
	iMeas atomic.Uint32

	booted  bool
	state   types.ConnMode
	entered bool
	lines   [2][lineWidth]byte
}

// New wires a device to a board. conn may be nil.
func New(cfg types.PSUConfig, b platform.Board, conn *bus.Connection) (*Device, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	d := &Device{
		cfg:   cfg,
		board: b,
		pub:   publisher{conn: conn, now: b.Clock.NowMs},
		dec:   encoder.New(),
		deb:   buttons.NewDebouncer(cfg.SwitchesActiveHigh),
	}
	d.ctrl = setpoint.New(setpoint.Steps{Voltage: cfg.VoltageStep, Current: cfg.CurrentStep},
		cfg.InitialOutput, b.DAC, b.Relay)
	d.proto = transfer.New(hostStore{d})
	d.sched = tick.NewScheduler(b.Timer, cfg.FastThreshold, tick.Hooks{
		Refresh: d.refresh,
		SetMode: d.ctrl.SetMode,
		Link:    b.Link.Present,
	})
	return d, nil
}

// Run drives the state machine until ctx is cancelled.
func (d *Device) Run(ctx context.Context) {
	for ctx.Err() == nil {
		d.Step()
		runtime.Gosched()
	}
	if d.state == types.Connected {
		d.board.Transport.Detach()
	}
	logx.Info(logx.ComponentPSU, "stopped")
}

// Step runs one loop iteration of the current state, performing the
// state's entry actions first when it was just entered.
func (d *Device) Step() {
	if !d.booted {
		d.booted = true
		d.ctrl.Init()
		logx.Info(logx.ComponentPSU, "boot", "output", d.cfg.InitialOutput)
	}
	switch d.state {
	case types.Disconnected:
		if !d.entered {
			d.enterLocal()
		}
		if d.localStep() {
			d.transition(types.Connected)
		}
	case types.Connected:
		if !d.entered {
			d.enterConnected()
		}
		if !d.connectedStep() {
			d.board.Transport.Detach()
			d.transition(types.Disconnected)
		}
	}
}

// State returns the current connection state.
func (d *Device) State() types.ConnMode { return d.state }

// Snapshot returns the committed power state record.
func (d *Device) Snapshot() types.PowerState { return d.ctrl.Snapshot() }

// Measured returns the last voltage and current samples.
func (d *Device) Measured() (v, i uint16) {
	return uint16(d.vMeas.Load()), uint16(d.iMeas.Load())
}

func (d *Device) transition(to types.ConnMode) {
	logx.Info(logx.ComponentConn, "state change", "from", d.state.String(), "to", to.String())
	d.state = to
	d.entered = false
}

// ---------------- Disconnected ----------------

func (d *Device) enterLocal() {
	d.entered = true
	d.pub.connMode(types.Disconnected)
	d.render(splashTop, splashBottom)
	d.board.Clock.Sleep(timex.Ms(d.cfg.SplashMs))
	d.dec.Reset()
}

// localStep samples the encoder, the switches and the tick timer once.
// It reports true when the link test on a tick found the host present.
func (d *Device) localStep() bool {
	if dir := d.dec.Sample(d.board.Inputs.EncoderCode()); dir != types.DirNone {
		d.ctrl.Apply(dir)
		d.sched.Window().Count()
	}

	if pressed, changed := d.deb.Sample(d.board.Inputs.SwitchLines()); changed {
		d.board.Clock.Sleep(timex.Ms(d.cfg.SettleMs))
		if pressed.Has(buttons.OutputControl) {
			on := d.ctrl.ToggleOutput()
			d.board.Beeper.Beep()
			logx.Debug(logx.ComponentPSU, "output toggled", "on", on)
			d.pub.event(EventOutput)
		}
		if pressed.Has(buttons.EncoderShaft) {
			p := d.ctrl.ToggleSelected()
			d.board.Beeper.Beep()
			logx.Debug(logx.ComponentPSU, "selected", "param", p.String())
			d.pub.event(EventSelect)
		}
	}

	ticked, link := d.sched.Poll()
	return ticked && link
}

// refresh samples both measurements, redraws the display and publishes state.
func (d *Device) refresh() {
	sc := d.cfg.Scales
	vm := d.board.ADC.Read(d.cfg.VoltageChannel)
	d.vMeas.Store(uint32(vm))
	s := d.ctrl.Snapshot()
	formatSetpoints(&d.lines[0], s, sc)

	im := d.board.ADC.Read(d.cfg.CurrentChannel)
	d.iMeas.Store(uint32(im))
	formatMeasured(&d.lines[1], s.Output, vm, im, sc)

	d.board.Display.Render(0, 0, string(d.lines[0][:]))
	d.board.Display.Render(1, 0, string(d.lines[1][:]))
	d.publishState()
}

// ---------------- Connected ----------------

// enterConnected forces the host to re-enumerate: detach, hold, attach.
func (d *Device) enterConnected() {
	d.entered = true
	d.pub.connMode(types.Connected)
	d.render(usbTop, usbBottom)
	d.board.Transport.Detach()
	d.board.Clock.Sleep(timex.Ms(d.cfg.ReannounceMs))
	d.board.Transport.Attach(d.proto)
}

// connectedStep samples voltage, services the transport, samples current
// and reports whether the link is still present.
func (d *Device) connectedStep() bool {
	d.vMeas.Store(uint32(d.board.ADC.Read(d.cfg.VoltageChannel)))
	d.board.Transport.Poll()
	d.iMeas.Store(uint32(d.board.ADC.Read(d.cfg.CurrentChannel)))
	return d.board.Link.Present()
}

// ---------------- helpers ----------------

func (d *Device) render(top, bottom string) {
	d.board.Display.Render(0, 0, top)
	d.board.Display.Render(1, 0, bottom)
}

func (d *Device) publishState() {
	if d.pub.conn == nil {
		return
	}
	s := d.ctrl.Snapshot()
	vm, im := d.Measured()
	d.pub.state(types.StateValue{
		Output:          s.Output,
		VoltageSet:      s.Voltage,
		CurrentSet:      s.Current,
		VoltageMeasured: vm,
		CurrentMeasured: im,
		Selected:        d.ctrl.Selected(),
		Mode:            d.ctrl.Mode(),
	})
}

// hostStore is what the transfer protocol reads and writes. Reads report
// the live measurements in place of the setpoints when ReportMeasured is
// set; the output flag and reserved bytes always come from the record.
type hostStore struct{ d *Device }

func (h hostStore) Snapshot() types.PowerState {
	s := h.d.ctrl.Snapshot()
	if h.d.cfg.ReportMeasured {
		s.Voltage, s.Current = h.d.Measured()
	}
	return s
}

func (h hostStore) ApplyRemote(s types.PowerState) {
	h.d.ctrl.ApplyRemote(s)
	logx.Debug(logx.ComponentTransfer, "remote state applied",
		"output", s.Output, "voltage", s.Voltage, "current", s.Current)
	h.d.pub.event(EventRemote)
	h.d.publishState()
}
