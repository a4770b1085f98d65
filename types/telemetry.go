package types

// ------------------------
// Bus telemetry (retained unless noted)
// ------------------------

// ConnValue is published on psu/conn.
type ConnValue struct {
	Mode ConnMode `json:"mode"`
	TSms int64    `json:"ts_ms"`
}

// StateValue is published on psu/state.
type StateValue struct {
	Output          bool       `json:"output"`
	VoltageSet      uint16     `json:"voltage_set"`
	CurrentSet      uint16     `json:"current_set"`
	VoltageMeasured uint16     `json:"voltage_measured"`
	CurrentMeasured uint16     `json:"current_measured"`
	Selected        Parameter  `json:"selected"`
	Mode            AdjustMode `json:"mode"`
	TSms            int64      `json:"ts_ms"`
}

// EventValue is published (not retained) on psu/event/<tag>.
type EventValue struct {
	Tag  string `json:"tag"` // "output", "select", "remote"
	TSms int64  `json:"ts_ms"`
}
