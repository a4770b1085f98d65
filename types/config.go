package types

// ------------------------
// PSU configuration (published retained on config/psu)
// ------------------------

// StepSizes is the per-detent increment for one parameter.
type StepSizes struct {
	Slow uint16 `json:"slow" yaml:"slow"`
	Fast uint16 `json:"fast" yaml:"fast"`
}

// DisplayScales are the fixed-point factors used as (scale*code)>>16.
// Setpoints are shown in hundredths of volts / thousandths of amps.
type DisplayScales struct {
	VoltageSet      uint32 `json:"voltage_set" yaml:"voltage_set"`
	CurrentSet      uint32 `json:"current_set" yaml:"current_set"`
	VoltageMeasured uint32 `json:"voltage_measured" yaml:"voltage_measured"`
	CurrentMeasured uint32 `json:"current_measured" yaml:"current_measured"`
}

type PSUConfig struct {
	VoltageStep   StepSizes `json:"voltage_step" yaml:"voltage_step"`
	CurrentStep   StepSizes `json:"current_step" yaml:"current_step"`
	FastThreshold uint8     `json:"fast_threshold" yaml:"fast_threshold"` // rotations in two windows

	TickMs       uint32 `json:"tick_ms" yaml:"tick_ms"`
	SettleMs     uint32 `json:"settle_ms" yaml:"settle_ms"`
	SplashMs     uint32 `json:"splash_ms" yaml:"splash_ms"`
	ReannounceMs uint32 `json:"reannounce_ms" yaml:"reannounce_ms"` // >250

	VoltageChannel uint8 `json:"voltage_channel" yaml:"voltage_channel"`
	CurrentChannel uint8 `json:"current_channel" yaml:"current_channel"`

	InitialOutput      bool `json:"initial_output" yaml:"initial_output"`
	ReportMeasured     bool `json:"report_measured" yaml:"report_measured"`
	SwitchesActiveHigh bool `json:"switches_active_high" yaml:"switches_active_high"`

	Scales DisplayScales `json:"scales" yaml:"scales"`
}

// DefaultPSUConfig returns the reference firmware constants.
func DefaultPSUConfig() PSUConfig {
	return PSUConfig{
		VoltageStep:   StepSizes{Slow: 16, Fast: 256},
		CurrentStep:   StepSizes{Slow: 64, Fast: 256},
		FastThreshold: 5,

		TickMs:       300,
		SettleMs:     100,
		SplashMs:     2000,
		ReannounceMs: 255,

		VoltageChannel: 7,
		CurrentChannel: 6,

		InitialOutput:  true,
		ReportMeasured: true,

		Scales: DisplayScales{
			VoltageSet:      3600,
			CurrentSet:      2000,
			VoltageMeasured: 9000,
			CurrentMeasured: 3333,
		},
	}
}

// HeartbeatConfig is published retained on config/heartbeat.
type HeartbeatConfig struct {
	IntervalMs uint32 `json:"interval_ms" yaml:"interval_ms"`
}
