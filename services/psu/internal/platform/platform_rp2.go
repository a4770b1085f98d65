//go:build rp2040

package platform

import (
	"machine"
	"time"

	"github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers/hd44780"

	"benchpsu-go/drivers/mcp4822"
	"benchpsu-go/errcode"
	"benchpsu-go/services/psu/internal/ctrlpipe"
	"benchpsu-go/x/logx"
	"benchpsu-go/x/timex"
)

// Open configures the pins and peripherals in plan and returns the board.
// plan.UART carries the control pipe and plan.Console takes the log output.
func Open(plan Plan, tick time.Duration) (Board, error) {
	const op = "platform.open"
	if err := plan.Validate(); err != nil {
		return Board{}, err
	}

	in := rp2Inputs{
		a:     inputPin(plan.EncoderA),
		b:     inputPin(plan.EncoderB),
		swOut: inputPin(plan.OutputSwitch),
		swEnc: inputPin(plan.EncoderSwitch),
	}

	relay := rp2Relay{pin: outputPin(plan.Relay, true)} // active-low, starts off
	beeper := rp2Beeper{pin: outputPin(plan.Buzzer, true)}
	link := rp2Link{pin: machine.Pin(plan.LinkSense)}
	link.pin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})

	machine.InitADC()
	adc := &rp2ADC{}
	for _, a := range plan.ADC {
		ch := machine.ADC{Pin: machine.Pin(a.Pin)}
		ch.Configure(machine.ADCConfig{})
		adc.ch[a.Channel&7] = ch
		adc.ok[a.Channel&7] = true
	}

	spi := machine.SPI0
	if plan.SPI.ID == "spi1" {
		spi = machine.SPI1
	}
	if err := spi.Configure(machine.SPIConfig{
		Frequency: plan.SPI.Hz,
		SCK:       machine.Pin(plan.SPI.SCK),
		SDO:       machine.Pin(plan.SPI.SDO),
		SDI:       machine.Pin(plan.SPI.SDI),
		Mode:      0,
	}); err != nil {
		return Board{}, errcode.Wrap(errcode.UnknownBus, op, err)
	}
	cs := outputPin(plan.DACCS, true)
	ldac := outputPin(plan.DACLDAC, true)
	dac := mcp4822.New(spi, mcp4822.Config{CS: cs.Set, LDAC: ldac.Set})
	if err := dac.Configure(); err != nil {
		return Board{}, errcode.Wrap(errcode.Error, op, err)
	}

	lcd, err := hd44780.NewGPIO4Bit(
		[]machine.Pin{
			machine.Pin(plan.LCD.D[0]), machine.Pin(plan.LCD.D[1]),
			machine.Pin(plan.LCD.D[2]), machine.Pin(plan.LCD.D[3]),
		},
		machine.Pin(plan.LCD.E), machine.Pin(plan.LCD.RS), machine.NoPin,
	)
	if err != nil {
		return Board{}, errcode.Wrap(errcode.Error, op, err)
	}
	if err := lcd.Configure(hd44780.Config{Width: 16, Height: 2}); err != nil {
		return Board{}, errcode.Wrap(errcode.Error, op, err)
	}

	u := openUART(plan.UART)
	logx.SetOutput(openUART(plan.Console))
	logx.Info(logx.ComponentPlatform, "board up", "spi", plan.SPI.ID, "uart", plan.UART.ID)

	clk := timex.System{}
	return Board{
		Inputs:    in,
		ADC:       adc,
		DAC:       rp2DAC{d: dac},
		Relay:     relay,
		Link:      link,
		Display:   &rp2Display{lcd: lcd},
		Beeper:    beeper,
		Timer:     NewIntervalTimer(clk, tick),
		Clock:     clk,
		Transport: ctrlpipe.NewTransport(u),
	}, nil
}

func openUART(p UARTPlan) *uartx.UART {
	u := uartx.UART0
	if p.ID == "uart1" {
		u = uartx.UART1
	}
	// Defaults inside uartx apply if zero.
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: p.Baud,
		TX:       machine.Pin(p.TX),
		RX:       machine.Pin(p.RX),
	})
	return u
}

func inputPin(n uint8) machine.Pin {
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return p
}

func outputPin(n uint8, initial bool) machine.Pin {
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Set(initial)
	return p
}

// ---- capability adapters ----

type rp2Inputs struct{ a, b, swOut, swEnc machine.Pin }

func (i rp2Inputs) EncoderCode() uint8 {
	var c uint8
	if i.a.Get() {
		c |= 1
	}
	if i.b.Get() {
		c |= 2
	}
	return c
}

func (i rp2Inputs) SwitchLines() uint8 {
	var c uint8
	if i.swOut.Get() {
		c |= 1
	}
	if i.swEnc.Get() {
		c |= 2
	}
	return c
}

type rp2ADC struct {
	ch [8]machine.ADC
	ok [8]bool
}

// Read returns 0 for an unmapped channel.
func (a *rp2ADC) Read(ch uint8) uint16 {
	ch &= 7
	if !a.ok[ch] {
		return 0
	}
	return a.ch[ch].Get()
}

type rp2DAC struct{ d *mcp4822.Device }

func (d rp2DAC) Commit(v, c uint16) { _ = d.d.SetPair(v, c) }

type rp2Relay struct{ pin machine.Pin }

func (r rp2Relay) SetOutput(on bool) { r.pin.Set(!on) }

type rp2Link struct{ pin machine.Pin }

func (l rp2Link) Present() bool { return l.pin.Get() }

type rp2Beeper struct{ pin machine.Pin }

func (b rp2Beeper) Beep() {
	b.pin.Low()
	time.Sleep(100 * time.Millisecond)
	b.pin.High()
}

type rp2Display struct{ lcd hd44780.Device }

func (d *rp2Display) Render(line, col uint8, text string) {
	d.lcd.SetCursor(col, line)
	_, _ = d.lcd.Write([]byte(text))
	_ = d.lcd.Display()
}
