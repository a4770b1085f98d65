package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"benchpsu-go/bus"
	"benchpsu-go/services/config"
	"benchpsu-go/services/psu"
	"benchpsu-go/types"
)

// Scenario is a scripted session against the simulated board.
type Scenario struct {
	Config string `yaml:"config"` // optional config file, relative to the scenario
	Steps  []Step `yaml:"steps"`
}

// Step holds one action; exactly one of the action fields is set.
type Step struct {
	Turn    string    `yaml:"turn"` // cw | ccw
	Detents int       `yaml:"detents"`
	Click   string    `yaml:"click"` // output | encoder
	Tick    int       `yaml:"tick"`
	Link    string    `yaml:"link"` // up | down
	ADC     *ADCValue `yaml:"adc"`
	HostSet *HostSet  `yaml:"host_set"`
	HostGet bool      `yaml:"host_get"`
	Chunk   int       `yaml:"chunk"` // OUT packet size for host_set
	Idle    int       `yaml:"idle"`  // extra loop iterations
}

type ADCValue struct {
	Channel uint8  `yaml:"channel"`
	Value   uint16 `yaml:"value"`
}

type HostSet struct {
	Output   bool    `yaml:"output"`
	Voltage  uint16  `yaml:"voltage"`
	Current  uint16  `yaml:"current"`
	Reserved []uint8 `yaml:"reserved"`
}

// LoadScenario reads a scenario and the config it names (defaults when none).
func LoadScenario(path string) (Scenario, config.File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, config.File{}, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return Scenario{}, config.File{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	f := config.Default()
	if sc.Config != "" {
		p := sc.Config
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		if f, err = config.Load(p); err != nil {
			return Scenario{}, config.File{}, err
		}
	}
	return sc, f, nil
}

// switch line bits on the simulated board
const (
	lineOutput  = 0x01
	lineEncoder = 0x02
)

type runner struct {
	d   *psu.Device
	sim *psu.Sim
	sub *bus.Subscription
	out io.Writer
}

// Run plays sc and writes a transcript to out.
func Run(sc Scenario, f config.File, out io.Writer) error {
	b := bus.NewBus(64)
	cfgConn := b.NewConnection("config")
	if err := config.Publish(cfgConn, f); err != nil {
		return err
	}
	watch := b.NewConnection("sim")
	r := &runner{sim: psu.NewSim(), out: out, sub: watch.Subscribe(bus.T("psu", "#"))}

	psuConn := b.NewConnection("psu")
	cfg := psu.AwaitConfig(context.Background(), psuConn, 100*time.Millisecond)
	d, err := psu.NewSimulated(cfg, r.sim, psuConn)
	if err != nil {
		return err
	}
	r.d = d
	r.step(1)

	for i, s := range sc.Steps {
		if err := r.apply(s); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		r.flush()
	}
	return nil
}

// actions counts the action fields set on s.
func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Turn != "", s.Click != "", s.Tick > 0, s.Link != "",
		s.ADC != nil, s.HostSet != nil, s.HostGet, s.Idle > 0,
	} {
		if set {
			n++
		}
	}
	return n
}

func (r *runner) apply(s Step) error {
	if n := s.actions(); n > 1 {
		return fmt.Errorf("step sets %d actions, want one", n)
	}
	switch {
	case s.Turn != "":
		dir := types.DirClockwise
		switch s.Turn {
		case "cw":
		case "ccw":
			dir = types.DirCounterClockwise
		default:
			return fmt.Errorf("turn %q", s.Turn)
		}
		n := s.Detents
		if n <= 0 {
			n = 1
		}
		r.sim.Inputs.Turn(dir, n)
		for r.sim.Inputs.Pending() > 0 {
			r.d.Step()
		}
		fmt.Fprintf(r.out, "turn %s x%d\n", s.Turn, n)
	case s.Click != "":
		mask := uint8(lineOutput)
		switch s.Click {
		case "output":
		case "encoder":
			mask = lineEncoder
		default:
			return fmt.Errorf("click %q", s.Click)
		}
		r.sim.Inputs.Press(mask)
		r.step(1)
		r.sim.Inputs.Release(mask)
		r.step(1)
		fmt.Fprintf(r.out, "click %s\n", s.Click)
	case s.Tick > 0:
		for i := 0; i < s.Tick; i++ {
			r.sim.Timer.Fire()
			r.step(1)
		}
		fmt.Fprintf(r.out, "tick x%d  [%s] [%s]\n", s.Tick, r.sim.Display.Line(0), r.sim.Display.Line(1))
	case s.Link != "":
		r.sim.Link.Set(s.Link == "up")
		r.step(2)
		fmt.Fprintf(r.out, "link %s -> %s\n", s.Link, r.d.State())
	case s.ADC != nil:
		r.sim.ADC.Set(s.ADC.Channel, s.ADC.Value)
		r.step(1)
		fmt.Fprintf(r.out, "adc ch%d = %d\n", s.ADC.Channel, s.ADC.Value)
	case s.HostSet != nil:
		st := types.PowerState{
			Output:  s.HostSet.Output,
			Voltage: s.HostSet.Voltage,
			Current: s.HostSet.Current,
		}
		copy(st.Reserved[:], s.HostSet.Reserved)
		rec := st.Bytes()
		r.sim.Transport.Chunk = s.Chunk
		ok := r.sim.Transport.SetReport(rec[:])
		fmt.Fprintf(r.out, "host set % x accepted=%v\n", rec, ok)
	case s.HostGet:
		reply, ok := r.sim.Transport.GetReport(types.PowerStateSize)
		if !ok {
			fmt.Fprintln(r.out, "host get: detached")
			break
		}
		st, _ := types.UnmarshalPowerState(reply)
		fmt.Fprintf(r.out, "host get % x output=%v voltage=%d current=%d\n", reply, st.Output, st.Voltage, st.Current)
	case s.Idle > 0:
		r.step(s.Idle)
	default:
		return fmt.Errorf("empty step")
	}
	return nil
}

func (r *runner) step(n int) {
	for i := 0; i < n; i++ {
		r.d.Step()
	}
}

// flush prints telemetry queued since the last step.
func (r *runner) flush() {
	for len(r.sub.Channel()) > 0 {
		m := <-r.sub.Channel()
		switch v := m.Payload.(type) {
		case types.ConnValue:
			fmt.Fprintf(r.out, "  %s mode=%s\n", m.Topic, v.Mode)
		case types.StateValue:
			fmt.Fprintf(r.out, "  %s out=%v vset=%d iset=%d vm=%d im=%d sel=%s mode=%s\n",
				m.Topic, v.Output, v.VoltageSet, v.CurrentSet, v.VoltageMeasured, v.CurrentMeasured, v.Selected, v.Mode)
		case types.EventValue:
			fmt.Fprintf(r.out, "  %s\n", m.Topic)
		}
	}
}
