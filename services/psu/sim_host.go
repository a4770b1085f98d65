//go:build !rp2040

package psu

import (
	"benchpsu-go/bus"
	"benchpsu-go/services/psu/internal/platform"
	"benchpsu-go/types"
)

// Sim is the in-memory board: every capability is a fake whose state can
// be driven and inspected.
type Sim = platform.Sim

// NewSim returns a simulated board on a fake clock and a manual tick timer.
func NewSim() *Sim { return platform.NewSim() }

// NewSimulated builds a device on sim.
func NewSimulated(cfg types.PSUConfig, sim *Sim, conn *bus.Connection) (*Device, error) {
	return New(cfg, sim.Board(), conn)
}
