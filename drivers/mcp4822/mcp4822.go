// Package mcp4822 provides a minimal TinyGo driver for the MCP4802/4812/4822
// dual-channel SPI DACs.
//
// Design notes (datasheet references):
// • 16-bit write command: A/B | - | GA | SHDN | D11..D0, MSB first.
// • CS must be strobed between the two channel writes.
// • With LDAC held high, both outputs latch together on an LDAC low pulse.
// • Codes are supplied as full-scale 16-bit values and truncated to the
//   converter resolution (12 bits for the 4822).
package mcp4822

import (
	"errors"

	"tinygo.org/x/drivers"
)

var ErrNoBus = errors.New("mcp4822: no SPI bus")

// Channel selects output A or B.
type Channel uint8

const (
	ChannelA Channel = 0
	ChannelB Channel = 1
)

const (
	bitChannelB = 0x80
	bitGain1x   = 0x20 // GA=1 selects 1x
	bitActive   = 0x10 // SHDN=1 keeps the output enabled
)

// PinOutput drives a logic line. CS and LDAC are active-low.
type PinOutput func(level bool)

type Config struct {
	CS   PinOutput // required when the bus does not drive CS itself
	LDAC PinOutput // optional; nil if LDAC is tied low
	// HighGain selects 2x gain (GA=0).
	HighGain bool
}

type Device struct {
	spi  drivers.SPI
	cs   PinOutput
	ldac PinOutput
	gain byte

	// Fixed buffer to avoid per-call heap allocations.
	w [2]byte
}

func New(spi drivers.SPI, cfg Config) *Device {
	d := &Device{spi: spi, cs: cfg.CS, ldac: cfg.LDAC, gain: bitGain1x}
	if cfg.HighGain {
		d.gain = 0
	}
	return d
}

// Configure parks CS and LDAC in their idle (high) state.
func (d *Device) Configure() error {
	if d.spi == nil {
		return ErrNoBus
	}
	d.setCS(true)
	if d.ldac != nil {
		d.ldac(true)
	}
	return nil
}

// Frame returns the two command bytes for a channel write.
func (d *Device) Frame(ch Channel, code uint16) (hi, lo byte) {
	hi = d.gain | bitActive | byte(code>>12)
	if ch == ChannelB {
		hi |= bitChannelB
	}
	lo = byte(code >> 4)
	return hi, lo
}

// Write loads one channel without latching it.
func (d *Device) Write(ch Channel, code uint16) error {
	if d.spi == nil {
		return ErrNoBus
	}
	d.w[0], d.w[1] = d.Frame(ch, code)
	d.setCS(false)
	err := d.spi.Tx(d.w[:], nil)
	d.setCS(true)
	return err
}

// Latch pulses LDAC so both channels update together.
func (d *Device) Latch() {
	if d.ldac == nil {
		return
	}
	d.ldac(false)
	d.ldac(true)
}

// SetPair writes A then B and latches both.
func (d *Device) SetPair(a, b uint16) error {
	if err := d.Write(ChannelA, a); err != nil {
		return err
	}
	if err := d.Write(ChannelB, b); err != nil {
		return err
	}
	d.Latch()
	return nil
}

func (d *Device) setCS(level bool) {
	if d.cs != nil {
		d.cs(level)
	}
}
