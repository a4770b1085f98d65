package config

import "benchpsu-go/types"

// Normalize fills zero-valued tunables with their defaults.
// It must be called only after Validate.
func Normalize(f *File) {
	if f == nil {
		return
	}
	d := types.DefaultPSUConfig()
	p := &f.PSU

	fill16 := func(v *uint16, def uint16) {
		if *v == 0 {
			*v = def
		}
	}
	fill32 := func(v *uint32, def uint32) {
		if *v == 0 {
			*v = def
		}
	}
	fill16(&p.VoltageStep.Slow, d.VoltageStep.Slow)
	fill16(&p.VoltageStep.Fast, d.VoltageStep.Fast)
	fill16(&p.CurrentStep.Slow, d.CurrentStep.Slow)
	fill16(&p.CurrentStep.Fast, d.CurrentStep.Fast)
	if p.FastThreshold == 0 {
		p.FastThreshold = d.FastThreshold
	}
	fill32(&p.TickMs, d.TickMs)
	fill32(&p.SettleMs, d.SettleMs)
	fill32(&p.ReannounceMs, d.ReannounceMs)
	fill32(&p.Scales.VoltageSet, d.Scales.VoltageSet)
	fill32(&p.Scales.CurrentSet, d.Scales.CurrentSet)
	fill32(&p.Scales.VoltageMeasured, d.Scales.VoltageMeasured)
	fill32(&p.Scales.CurrentMeasured, d.Scales.CurrentMeasured)

	if f.Heartbeat.IntervalMs == 0 {
		f.Heartbeat.IntervalMs = 2000
	}
}
