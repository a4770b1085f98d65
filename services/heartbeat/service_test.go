package heartbeat

import (
	"context"
	"sync"
	"testing"
	"time"

	"benchpsu-go/bus"
	"benchpsu-go/types"
)

type beats struct {
	mu  sync.Mutex
	got []types.StateValue
	ok  []bool
}

func (b *beats) report(v types.StateValue, ok bool) {
	b.mu.Lock()
	b.got = append(b.got, v)
	b.ok = append(b.ok, ok)
	b.mu.Unlock()
}

func (b *beats) snapshot() ([]types.StateValue, []bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.StateValue(nil), b.got...), append([]bool(nil), b.ok...)
}

func TestHeartbeatReportsRetainedState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(8)
	pub := b.NewConnection("pub")
	pub.Publish(pub.NewMessage(bus.T("config", "heartbeat"), types.HeartbeatConfig{IntervalMs: 10}, true))
	pub.Publish(pub.NewMessage(bus.T("psu", "state"), types.StateValue{VoltageSet: 160, Output: true}, true))

	rec := &beats{}
	svc := &Service{Report: rec.report}
	if err := svc.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, ok := rec.snapshot()
		for i := range got {
			if ok[i] && got[i].VoltageSet == 160 && got[i].Output {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no heartbeat carried the retained state")
}

func TestHeartbeatWithoutState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(8)
	pub := b.NewConnection("pub")
	pub.Publish(pub.NewMessage(bus.T("config", "heartbeat"), types.HeartbeatConfig{IntervalMs: 5}, true))

	rec := &beats{}
	(&Service{Report: rec.report}).Start(ctx, b.NewConnection("heartbeat"))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := rec.snapshot(); len(ok) > 0 {
			if ok[0] {
				t.Fatal("reported a state that was never published")
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no heartbeat")
}
