package config

import (
	"strconv"

	"benchpsu-go/errcode"
)

// minReannounceMs is the shortest detach hold a host reliably notices.
const minReannounceMs = 251

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate f.
func Validate(f *File) error {
	const op = "config.validate"
	p := &f.PSU
	bad := func(msg string) error { return errcode.New(errcode.InvalidConfig, op, msg) }

	if p.VoltageStep.Slow > p.VoltageStep.Fast && p.VoltageStep.Fast != 0 {
		return bad("voltage_step: slow exceeds fast")
	}
	if p.CurrentStep.Slow > p.CurrentStep.Fast && p.CurrentStep.Fast != 0 {
		return bad("current_step: slow exceeds fast")
	}
	if p.ReannounceMs != 0 && p.ReannounceMs < minReannounceMs {
		return bad("reannounce_ms must exceed 250, got " + strconv.Itoa(int(p.ReannounceMs)))
	}
	if p.VoltageChannel > 7 || p.CurrentChannel > 7 {
		return errcode.New(errcode.UnknownChannel, op, "adc channels are 0..7")
	}
	if p.VoltageChannel == p.CurrentChannel {
		return bad("voltage_channel and current_channel must differ")
	}
	for name, s := range map[string]uint32{
		"voltage_set":      p.Scales.VoltageSet,
		"current_set":      p.Scales.CurrentSet,
		"voltage_measured": p.Scales.VoltageMeasured,
		"current_measured": p.Scales.CurrentMeasured,
	} {
		if s > 9999 {
			return bad("scales." + name + " exceeds four display digits")
		}
	}
	return nil
}
