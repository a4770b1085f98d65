package main

import (
	"context"
	"time"

	"benchpsu-go/bus"
	"benchpsu-go/services/config"
	"benchpsu-go/services/heartbeat"
	"benchpsu-go/services/psu"
)

func main() {
	// Allow the serial console to come up before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "pico")
	b := bus.NewBus(8)

	config.NewConfigService().Start(ctx, b.NewConnection("config"))
	_ = (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat"))

	if err := psu.Start(ctx, b.NewConnection("psu")); err != nil {
		println("[main] psu start failed:", err.Error())
		for {
			time.Sleep(time.Second)
		}
	}
	println("[main] psu running")
	select {}
}
