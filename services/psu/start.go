package psu

import (
	"context"
	"time"

	"benchpsu-go/bus"
	"benchpsu-go/services/psu/internal/platform"
	"benchpsu-go/types"
	"benchpsu-go/x/logx"
	"benchpsu-go/x/timex"
)

// configWait bounds how long Start waits for a retained config/psu.
const configWait = 500 * time.Millisecond

// Start picks up the retained configuration (or the defaults), opens the
// board on the default wiring and runs the device in a goroutine.
func Start(ctx context.Context, conn *bus.Connection) error {
	cfg := AwaitConfig(ctx, conn, configWait)
	b, err := platform.Open(platform.DefaultPlan(), timex.Ms(cfg.TickMs))
	if err != nil {
		logx.Error(logx.ComponentPlatform, "board open failed", "err", err)
		return err
	}
	d, err := New(cfg, b, conn)
	if err != nil {
		return err
	}
	go d.Run(ctx)
	return nil
}

// AwaitConfig returns the retained config/psu value if one arrives within
// wait, otherwise DefaultConfig.
func AwaitConfig(ctx context.Context, conn *bus.Connection, wait time.Duration) types.PSUConfig {
	if conn == nil {
		return DefaultConfig()
	}
	sub := conn.Subscribe(TopicConfig)
	defer conn.Unsubscribe(sub)

	t := time.NewTimer(wait)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return DefaultConfig()
		case <-t.C:
			logx.Info(logx.ComponentConfig, "no config published, using defaults")
			return DefaultConfig()
		case m := <-sub.Channel():
			if c, ok := m.Payload.(types.PSUConfig); ok {
				return c
			}
			logx.Warn(logx.ComponentConfig, "ignoring config payload", "topic", m.Topic.String())
		}
	}
}
