package psu

import (
	"testing"

	"benchpsu-go/types"
)

func TestFormatSetpoints(t *testing.T) {
	sc := types.DefaultPSUConfig().Scales
	cases := []struct {
		v, i uint16
		want string
	}{
		{0, 0, "Us:00V00 Is:0A00"},
		{65535, 65535, "Us:35V99 Is:1A99"},
		{0x8000, 0x8000, "Us:18V00 Is:1A00"},
		{160, 0, "Us:00V08 Is:0A00"},
	}
	for _, c := range cases {
		var b [lineWidth]byte
		formatSetpoints(&b, types.PowerState{Voltage: c.v, Current: c.i}, sc)
		if got := string(b[:]); got != c.want {
			t.Errorf("v=%d i=%d: %q want %q", c.v, c.i, got, c.want)
		}
	}
}

func TestFormatMeasured(t *testing.T) {
	sc := types.DefaultPSUConfig().Scales
	var b [lineWidth]byte
	formatMeasured(&b, false, 1234, 5678, sc)
	if got := string(b[:]); got != "Um:--V-- Im:-A--" {
		t.Fatalf("off: %q", got)
	}
	formatMeasured(&b, true, 65535, 65535, sc)
	if got := string(b[:]); got != "Um:89V99 Im:3A33" {
		t.Fatalf("full: %q", got)
	}
}

func TestFixedScreensAreFullWidth(t *testing.T) {
	for _, s := range []string{splashTop, splashBottom, usbTop, usbBottom, measuredOff} {
		if len(s) != lineWidth {
			t.Errorf("%q is %d wide", s, len(s))
		}
	}
}
