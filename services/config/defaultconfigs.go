package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw YAML bytes for that device
// -----------------------------------------------------------------------------

const cfgPico = `
psu:
  voltage_step: {slow: 16, fast: 256}
  current_step: {slow: 64, fast: 256}
  fast_threshold: 5
  tick_ms: 300
  settle_ms: 100
  splash_ms: 2000
  reannounce_ms: 255
  voltage_channel: 7
  current_channel: 6
  initial_output: true
  report_measured: true
heartbeat:
  interval_ms: 2000
`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
}
