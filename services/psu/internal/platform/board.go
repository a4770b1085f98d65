// services/psu/internal/platform/board.go
package platform

import (
	"sync"
	"time"

	"benchpsu-go/errcode"
	"benchpsu-go/services/psu/internal/halcore"
	"benchpsu-go/x/conv"
	"benchpsu-go/x/mathx"
)

// Board is the full set of capabilities the control core runs against.
type Board struct {
	Inputs    halcore.Inputs
	ADC       halcore.ADC
	DAC       halcore.AnalogOutputs
	Relay     halcore.Relay
	Link      halcore.Link
	Display   halcore.Display
	Beeper    halcore.Beeper
	Timer     halcore.Timer
	Clock     halcore.Clock
	Transport halcore.Transport
}

// Validate reports the first missing capability.
func (b *Board) Validate() error {
	missing := ""
	switch {
	case b.Inputs == nil:
		missing = "inputs"
	case b.ADC == nil:
		missing = "adc"
	case b.DAC == nil:
		missing = "dac"
	case b.Relay == nil:
		missing = "relay"
	case b.Link == nil:
		missing = "link"
	case b.Display == nil:
		missing = "display"
	case b.Beeper == nil:
		missing = "beeper"
	case b.Timer == nil:
		missing = "timer"
	case b.Clock == nil:
		missing = "clock"
	case b.Transport == nil:
		missing = "transport"
	}
	if missing != "" {
		return errcode.New(errcode.InvalidParams, "board", "missing "+missing)
	}
	return nil
}

// ---------------- Wiring plan ----------------

type SPIPlan struct {
	ID            string // "spi0" | "spi1"
	SCK, SDO, SDI uint8
	Hz            uint32
}

type UARTPlan struct {
	ID     string // "uart0" | "uart1"
	TX, RX uint8
	Baud   uint32
}

// LCDPlan is a 4-bit parallel HD44780 hookup.
type LCDPlan struct {
	RS, E uint8
	D     [4]uint8 // D4..D7
}

// ADCPlan maps a logical measurement channel to an ADC-capable pin.
type ADCPlan struct {
	Channel uint8
	Pin     uint8
}

// Plan assigns GPIO numbers to every signal on the board.
type Plan struct {
	EncoderA, EncoderB uint8
	OutputSwitch       uint8
	EncoderSwitch      uint8
	Relay              uint8
	Buzzer             uint8
	LinkSense          uint8
	DACCS, DACLDAC     uint8

	SPI     SPIPlan
	UART    UARTPlan // control pipe
	Console UARTPlan // log output
	LCD     LCDPlan
	ADC     []ADCPlan
}

// MaxPin is the highest GPIO on the RP2040.
const MaxPin = 29

// DefaultPlan is the reference Pico wiring.
func DefaultPlan() Plan {
	return Plan{
		EncoderA:      2,
		EncoderB:      3,
		OutputSwitch:  4,
		EncoderSwitch: 5,
		Relay:         6,
		Buzzer:        7,
		LinkSense:     8,
		DACCS:         17,
		DACLDAC:       22,
		SPI:           SPIPlan{ID: "spi0", SCK: 18, SDO: 19, SDI: 16, Hz: 4_000_000},
		UART:          UARTPlan{ID: "uart0", TX: 0, RX: 1, Baud: 115200},
		Console:       UARTPlan{ID: "uart1", TX: 20, RX: 21, Baud: 115200},
		LCD:           LCDPlan{RS: 10, E: 11, D: [4]uint8{12, 13, 14, 15}},
		ADC: []ADCPlan{
			{Channel: 7, Pin: 26},
			{Channel: 6, Pin: 27},
		},
	}
}

// ADCPin returns the pin for a logical ADC channel.
func (p *Plan) ADCPin(ch uint8) (uint8, bool) {
	for _, a := range p.ADC {
		if a.Channel == ch {
			return a.Pin, true
		}
	}
	return 0, false
}

// Validate checks pin ranges and reports any pin assigned twice.
func (p *Plan) Validate() error {
	const op = "plan"
	var used [MaxPin + 1]string
	claim := func(pin uint8, who string) error {
		if pin > MaxPin {
			return errcode.New(errcode.UnknownPin, op, who+" on "+gp(pin))
		}
		if prev := used[pin]; prev != "" {
			return errcode.New(errcode.PinInUse, op, who+" and "+prev+" share "+gp(pin))
		}
		used[pin] = who
		return nil
	}

	type sig struct {
		pin uint8
		who string
	}
	sigs := []sig{
		{p.EncoderA, "encoder_a"}, {p.EncoderB, "encoder_b"},
		{p.OutputSwitch, "output_switch"}, {p.EncoderSwitch, "encoder_switch"},
		{p.Relay, "relay"}, {p.Buzzer, "buzzer"}, {p.LinkSense, "link_sense"},
		{p.DACCS, "dac_cs"}, {p.DACLDAC, "dac_ldac"},
		{p.SPI.SCK, "spi_sck"}, {p.SPI.SDO, "spi_sdo"}, {p.SPI.SDI, "spi_sdi"},
		{p.UART.TX, "uart_tx"}, {p.UART.RX, "uart_rx"},
		{p.Console.TX, "console_tx"}, {p.Console.RX, "console_rx"},
		{p.LCD.RS, "lcd_rs"}, {p.LCD.E, "lcd_e"},
		{p.LCD.D[0], "lcd_d4"}, {p.LCD.D[1], "lcd_d5"}, {p.LCD.D[2], "lcd_d6"}, {p.LCD.D[3], "lcd_d7"},
	}
	for _, s := range sigs {
		if err := claim(s.pin, s.who); err != nil {
			return err
		}
	}
	for _, a := range p.ADC {
		if a.Pin < 26 || a.Pin > 29 {
			return errcode.New(errcode.UnknownChannel, op, "adc channel "+num(a.Channel)+" on non-ADC pin")
		}
		if err := claim(a.Pin, "adc"+num(a.Channel)); err != nil {
			return err
		}
	}
	switch p.SPI.ID {
	case "spi0", "spi1":
	default:
		return errcode.New(errcode.UnknownBus, op, p.SPI.ID)
	}
	for _, u := range []UARTPlan{p.UART, p.Console} {
		switch u.ID {
		case "uart0", "uart1":
		default:
			return errcode.New(errcode.UnknownBus, op, u.ID)
		}
	}
	if p.UART.ID == p.Console.ID {
		return errcode.New(errcode.PinInUse, op, "control pipe and console share "+p.UART.ID)
	}
	return nil
}

func num(n uint8) string {
	var b [3]byte
	return string(conv.Utoa(b[:], uint64(n)))
}

func gp(pin uint8) string { return "GP" + num(pin) }

// ---------------- Timers ----------------

// IntervalTimer overflows every period, measured on clock. Missed periods
// collapse into one overflow.
type IntervalTimer struct {
	mu     sync.Mutex
	clock  halcore.Clock
	period int64
	next   int64
}

func NewIntervalTimer(clock halcore.Clock, period time.Duration) *IntervalTimer {
	p := mathx.Max(period.Milliseconds(), 1)
	return &IntervalTimer{clock: clock, period: p, next: clock.NowMs() + p}
}

func (t *IntervalTimer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.NowMs()
	if now < t.next {
		return false
	}
	t.next = now + t.period
	return true
}
