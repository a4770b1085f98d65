// Package tick tracks encoder activity across timer ticks and derives the
// adjustment mode from it.
package tick

import (
	"benchpsu-go/services/psu/internal/halcore"
	"benchpsu-go/types"
	"benchpsu-go/x/mathx"
)

// DefaultThreshold: more than this many detents across two ticks selects Fast.
const DefaultThreshold = 5

// Window counts detents in the current and previous tick. Counters
// saturate at 255.
type Window struct {
	prev, cur uint8
}

// Count records one detent.
func (w *Window) Count() { w.cur = mathx.SatAdd(w.cur, 1) }

// Mode returns Fast when prev+cur exceeds threshold.
func (w *Window) Mode(threshold uint8) types.AdjustMode {
	if uint16(w.prev)+uint16(w.cur) > uint16(threshold) {
		return types.AdjustFast
	}
	return types.AdjustSlow
}

// Roll shifts the window: prev=cur, cur=0.
func (w *Window) Roll() {
	w.prev = w.cur
	w.cur = 0
}

// Counts returns (prev, cur).
func (w *Window) Counts() (uint8, uint8) { return w.prev, w.cur }

// Hooks are the per-tick actions, run in field order.
type Hooks struct {
	Refresh func()                 // measurement refresh + display redraw
	SetMode func(types.AdjustMode) // mode recompute
	Link    func() bool            // link test; true leaves the local loop
}

// Scheduler polls a Timer and runs Hooks on each overflow.
type Scheduler struct {
	timer     halcore.Timer
	threshold uint8
	win       Window
	hooks     Hooks
}

func NewScheduler(timer halcore.Timer, threshold uint8, h Hooks) *Scheduler {
	return &Scheduler{timer: timer, threshold: threshold, hooks: h}
}

// Window exposes the activity window for counting detents.
func (s *Scheduler) Window() *Window { return &s.win }

// Poll checks the timer. It reports whether a tick ran and, if so, the
// result of the link test.
func (s *Scheduler) Poll() (ticked, link bool) {
	if !s.timer.Expired() {
		return false, false
	}
	if s.hooks.Refresh != nil {
		s.hooks.Refresh()
	}
	m := s.win.Mode(s.threshold)
	if s.hooks.SetMode != nil {
		s.hooks.SetMode(m)
	}
	s.win.Roll()
	if s.hooks.Link != nil {
		link = s.hooks.Link()
	}
	return true, link
}
