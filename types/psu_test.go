package types

import "testing"

func TestPowerStateLayout(t *testing.T) {
	s := PowerState{Output: true, Voltage: 0x1234, Current: 0xABCD, Reserved: [3]byte{7, 8, 9}}
	b := s.Bytes()
	want := [8]byte{1, 0x34, 0x12, 0xCD, 0xAB, 7, 8, 9}
	if b != want {
		t.Fatalf("layout = % x, want % x", b, want)
	}
	got, ok := UnmarshalPowerState(b[:])
	if !ok || got != s {
		t.Fatalf("decode = %+v ok=%v", got, ok)
	}
}

func TestPowerStateShortBuffers(t *testing.T) {
	var small [7]byte
	if n := (PowerState{}).MarshalTo(small[:]); n != 0 {
		t.Fatalf("MarshalTo short = %d", n)
	}
	if _, ok := UnmarshalPowerState(small[:]); ok {
		t.Fatalf("UnmarshalPowerState accepted 7 bytes")
	}
}

func TestPowerStateOutputByte(t *testing.T) {
	s, _ := UnmarshalPowerState([]byte{2, 0, 0, 0, 0, 0, 0, 0})
	if !s.Output {
		t.Fatalf("nonzero output byte should enable output")
	}
	if b := s.Bytes(); b[0] != 1 {
		t.Fatalf("output re-encoded as %d", b[0])
	}
}

func TestEnumStrings(t *testing.T) {
	if ParamVoltage.Other() != ParamCurrent || ParamCurrent.Other() != ParamVoltage {
		t.Fatalf("Other() broken")
	}
	if AdjustFast.String() != "fast" || Connected.String() != "connected" || DirCounterClockwise.String() != "ccw" {
		t.Fatalf("String() mismatch")
	}
}
