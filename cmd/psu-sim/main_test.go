package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBasicScenario(t *testing.T) {
	sc, f, err := LoadScenario("testdata/basic.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if f.PSU.SplashMs != 0 {
		t.Fatalf("scenario config not loaded: %+v", f.PSU)
	}
	var out bytes.Buffer
	if err := Run(sc, f, &out); err != nil {
		t.Fatalf("run: %v\n%s", err, out.String())
	}
	got := out.String()
	for _, want := range []string{
		"tick x1  [Us:00V08 Is:0A00] [Um:45V00 Im:0A00]",
		"link up -> disconnected",
		"psu/conn mode=connected",
		"host set 01 34 12 78 56 01 02 03 accepted=true",
		"psu/event/remote",
		"host get 01 00 80 e8 03 01 02 03 output=true voltage=32768 current=1000",
		"link down -> disconnected",
		"host get: detached",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in transcript:\n%s", want, got)
		}
	}
}

func TestEmptyStepRejected(t *testing.T) {
	_, f, err := LoadScenario("testdata/basic.yaml")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := Run(Scenario{Steps: []Step{{}}}, f, &out); err == nil {
		t.Fatal("empty step accepted")
	}
}

func TestStepWithTwoActionsRejected(t *testing.T) {
	_, f, err := LoadScenario("testdata/basic.yaml")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	sc := Scenario{Steps: []Step{{Turn: "cw", Click: "output"}}}
	if err := Run(sc, f, &out); err == nil {
		t.Fatal("step with turn and click accepted")
	}
	if strings.Contains(out.String(), "turn cw") {
		t.Fatalf("turn ran anyway:\n%s", out.String())
	}
}

func TestConfigResolvedFromScenarioDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "cfg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "psu.yaml"), []byte("psu:\n  splash_ms: 0\n  tick_ms: 150\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(path, []byte("config: "+filepath.Join("cfg", "psu.yaml")+"\nsteps:\n  - idle: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, f, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.PSU.TickMs != 150 {
		t.Fatalf("tick_ms=%d", f.PSU.TickMs)
	}
}
