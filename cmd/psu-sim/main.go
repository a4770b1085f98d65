// cmd/psu-sim/main.go
package main

import (
	"log"
	"log/slog"
	"os"

	"benchpsu-go/x/logx"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: psu-sim <scenario.yaml>")
	}
	if os.Getenv("PSU_DEBUG") != "" {
		logx.SetLogLevel(slog.LevelDebug)
	}

	sc, f, err := LoadScenario(os.Args[1])
	if err != nil {
		log.Fatalf("scenario load failed: %v", err)
	}
	if err := Run(sc, f, os.Stdout); err != nil {
		log.Fatalf("scenario failed: %v", err)
	}
}
