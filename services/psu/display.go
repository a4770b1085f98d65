package psu

import (
	"benchpsu-go/types"
	"benchpsu-go/x/conv"
	"benchpsu-go/x/mathx"
)

const lineWidth = 16

const (
	splashTop    = "       KBSM     "
	splashBottom = "   Power Supply "
	usbTop       = "      USB       "
	usbBottom    = "       Mode     "
	measuredOff  = "Um:--V-- Im:-A--"
)

// voltageField writes DDVdd (5 bytes).
func voltageField(dst []byte, scaled uint32) {
	var d [4]byte
	conv.Digits(d[:], scaled)
	dst[0], dst[1], dst[2], dst[3], dst[4] = d[0], d[1], 'V', d[2], d[3]
}

// currentField writes DAdd (4 bytes); the last digit is not shown.
func currentField(dst []byte, scaled uint32) {
	var d [4]byte
	conv.Digits(d[:], scaled)
	dst[0], dst[1], dst[2], dst[3] = d[0], 'A', d[1], d[2]
}

// formatPair renders "<vl>:DDVdd <il>:DAdd".
func formatPair(dst *[lineWidth]byte, vl, il string, v, i uint32) {
	copy(dst[0:3], vl)
	dst[2] = ':'
	voltageField(dst[3:8], v)
	dst[8] = ' '
	copy(dst[9:12], il)
	dst[11] = ':'
	currentField(dst[12:16], i)
}

// formatSetpoints renders line 0.
func formatSetpoints(dst *[lineWidth]byte, s types.PowerState, sc types.DisplayScales) {
	formatPair(dst, "Us:", "Is:",
		mathx.ScaleQ16(s.Voltage, sc.VoltageSet),
		mathx.ScaleQ16(s.Current, sc.CurrentSet))
}

// formatMeasured renders line 1, or the placeholder when the output is off.
func formatMeasured(dst *[lineWidth]byte, on bool, vm, im uint16, sc types.DisplayScales) {
	if !on {
		copy(dst[:], measuredOff)
		return
	}
	formatPair(dst, "Um:", "Im:",
		mathx.ScaleQ16(vm, sc.VoltageMeasured),
		mathx.ScaleQ16(im, sc.CurrentMeasured))
}
