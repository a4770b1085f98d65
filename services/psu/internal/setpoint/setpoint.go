// Package setpoint owns the voltage/current setpoints, the output enable,
// the selected parameter and the adjustment mode. All state is behind one
// mutex because the host transfer handlers run asynchronously to the
// foreground loop.
package setpoint

import (
	"sync"

	"benchpsu-go/services/psu/internal/halcore"
	"benchpsu-go/types"
	"benchpsu-go/x/mathx"
)

// Steps holds per-detent step sizes.
type Steps struct {
	Voltage types.StepSizes
	Current types.StepSizes
}

// DefaultSteps: voltage 16/256, current 64/256 per detent.
var DefaultSteps = Steps{
	Voltage: types.StepSizes{Slow: 16, Fast: 256},
	Current: types.StepSizes{Slow: 64, Fast: 256},
}

type Controller struct {
	mu sync.Mutex

	voltage  uint16
	current  uint16
	output   bool
	reserved [3]byte
	selected types.Parameter
	mode     types.AdjustMode

	steps Steps
	dac   halcore.AnalogOutputs
	relay halcore.Relay
}

// New returns a controller with zero setpoints, Voltage selected and Slow
// mode. Nothing is committed until Init.
func New(steps Steps, output bool, dac halcore.AnalogOutputs, relay halcore.Relay) *Controller {
	return &Controller{steps: steps, output: output, dac: dac, relay: relay}
}

// Init commits the relay state and the DAC pair.
func (c *Controller) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.relay.SetOutput(c.output)
	c.commitLocked()
}

// Increment raises the selected setpoint by the current step, saturating at 65535.
func (c *Controller) Increment() { c.adjust(true) }

// Decrement lowers the selected setpoint by the current step, saturating at 0.
func (c *Controller) Decrement() { c.adjust(false) }

// Apply maps an encoder direction onto Increment/Decrement.
func (c *Controller) Apply(dir types.Direction) {
	switch dir {
	case types.DirClockwise:
		c.Increment()
	case types.DirCounterClockwise:
		c.Decrement()
	}
}

func (c *Controller) adjust(up bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := &c.voltage
	sz := c.steps.Voltage
	if c.selected == types.ParamCurrent {
		v = &c.current
		sz = c.steps.Current
	}
	step := sz.Slow
	if c.mode == types.AdjustFast {
		step = sz.Fast
	}
	if up {
		*v = mathx.SatAdd(*v, step)
	} else {
		*v = mathx.SatSub(*v, step)
	}
	c.commitLocked()
}

// ToggleSelected swaps Voltage and Current.
func (c *Controller) ToggleSelected() types.Parameter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = c.selected.Other()
	return c.selected
}

// ToggleOutput flips the output enable and drives the relay.
func (c *Controller) ToggleOutput() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output = !c.output
	c.relay.SetOutput(c.output)
	return c.output
}

// SetMode is called from the tick window evaluation only.
func (c *Controller) SetMode(m types.AdjustMode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

// ApplyRemote overwrites the record unconditionally; the host always wins.
func (c *Controller) ApplyRemote(s types.PowerState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voltage = s.Voltage
	c.current = s.Current
	c.output = s.Output
	c.reserved = s.Reserved
	c.relay.SetOutput(c.output)
	c.commitLocked()
}

// Snapshot returns the committed record; no partial update is observable.
func (c *Controller) Snapshot() types.PowerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.PowerState{
		Output:   c.output,
		Voltage:  c.voltage,
		Current:  c.current,
		Reserved: c.reserved,
	}
}

// Selected returns the parameter the encoder currently adjusts.
func (c *Controller) Selected() types.Parameter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Mode returns the current adjustment mode.
func (c *Controller) Mode() types.AdjustMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) commitLocked() { c.dac.Commit(c.voltage, c.current) }
