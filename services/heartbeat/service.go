package heartbeat

import (
	"context"
	"time"

	"benchpsu-go/bus"
	"benchpsu-go/types"
	"benchpsu-go/x/logx"
	"benchpsu-go/x/mathx"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicState           = bus.T("psu", "state")
)

const (
	defaultInterval = time.Second
	minIntervalMs   = 5
	maxIntervalMs   = 60_000
)

// Service periodically reports the latest retained psu/state.
type Service struct {
	// Report is called on every beat; ok is false until a state has been
	// seen. Nil logs the state.
	Report func(s types.StateValue, ok bool)
}

func (s *Service) report(v types.StateValue, ok bool) {
	if s.Report != nil {
		s.Report(v, ok)
		return
	}
	if !ok {
		logx.Info(logx.ComponentHeart, "heartbeat", "state", "none")
		return
	}
	logx.Info(logx.ComponentHeart, "heartbeat",
		"output", v.Output,
		"v_set", v.VoltageSet, "i_set", v.CurrentSet,
		"v_meas", v.VoltageMeasured, "i_meas", v.CurrentMeasured,
		"selected", v.Selected.String(), "mode", v.Mode.String())
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	stateSub := conn.Subscribe(topicState)
	defer conn.Unsubscribe(stateSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	var (
		last types.StateValue
		seen bool
	)
	// loop until context is cancelled, respond to tick, state and config changes
	for {
		select {
		case <-ctx.Done():
			logx.Info(logx.ComponentHeart, "heartbeat service stopping")
			return
		case <-tick.C:
			s.report(last, seen)
		case msg := <-stateSub.Channel():
			if v, ok := msg.Payload.(types.StateValue); ok {
				last, seen = v, true
			}
		case msg := <-cfgSub.Channel():
			if c, ok := msg.Payload.(types.HeartbeatConfig); ok && c.IntervalMs > 0 {
				ms := mathx.Clamp(c.IntervalMs, minIntervalMs, maxIntervalMs)
				tick.Reset(time.Duration(ms) * time.Millisecond)
				logx.Info(logx.ComponentHeart, "interval set", "ms", ms)
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
