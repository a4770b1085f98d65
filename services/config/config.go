package config

import (
	"context"
	"os"

	"gopkg.in/yaml.v3"

	"benchpsu-go/bus"
	"benchpsu-go/errcode"
	"benchpsu-go/types"
	"benchpsu-go/x/logx"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

var (
	TopicPSU       = bus.T(configPrefix, "psu")
	TopicHeartbeat = bus.T(configPrefix, "heartbeat")
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// File model
// -----------------------------------------------------------------------------

// File is one device configuration document.
type File struct {
	PSU       types.PSUConfig       `yaml:"psu"`
	Heartbeat types.HeartbeatConfig `yaml:"heartbeat"`
}

// Default returns a File holding the reference constants.
func Default() File {
	return File{
		PSU:       types.DefaultPSUConfig(),
		Heartbeat: types.HeartbeatConfig{IntervalMs: 2000},
	}
}

// Parse decodes YAML over the defaults, so omitted keys keep their
// default values.
func Parse(raw []byte) (File, error) {
	f := Default()
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, errcode.Wrap(errcode.InvalidConfig, "config.parse", err)
	}
	return f, nil
}

// Load reads and parses a YAML file.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, errcode.Wrap(errcode.InvalidConfig, "config.load", err)
	}
	return Parse(raw)
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// Publish validates f, normalises it and publishes each section retained.
func Publish(conn *bus.Connection, f File) error {
	if err := Validate(&f); err != nil {
		return err
	}
	Normalize(&f)
	conn.Publish(conn.NewMessage(TopicPSU, f.PSU, true))
	conn.Publish(conn.NewMessage(TopicHeartbeat, f.Heartbeat, true))
	return nil
}

// publishConfig resolves the embedded config for the device in ctx and publishes it.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errcode.New(errcode.InvalidParams, "config.publish", "missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errcode.New(errcode.InvalidConfig, "config.publish", "no embedded config for device: "+device)
	}

	f, err := Parse(raw)
	if err != nil {
		return err
	}
	return Publish(conn, f)
}

// Start publishes the embedded configuration. Errors are logged; the
// consumers fall back to their defaults.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	if err := s.publishConfig(ctx, conn); err != nil {
		logx.Error(logx.ComponentConfig, "publish failed", "err", err)
		return
	}
	logx.Info(logx.ComponentConfig, "config published")
}
