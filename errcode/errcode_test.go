package errcode

import (
	"errors"
	"testing"
)

func TestOf(t *testing.T) {
	if Of(nil) != OK {
		t.Fatalf("Of(nil) != OK")
	}
	if Of(UnknownPin) != UnknownPin {
		t.Fatalf("bare code not recovered")
	}
	e := New(PinInUse, "platform.open", "pin 4")
	if Of(e) != PinInUse {
		t.Fatalf("Of(*E) = %q", Of(e))
	}
	if Of(errors.New("boom")) != Error {
		t.Fatalf("foreign error should map to Error")
	}
}

func TestWrapUnwrap(t *testing.T) {
	if Wrap(InvalidConfig, "op", nil) != nil {
		t.Fatalf("Wrap(nil) should be nil")
	}
	cause := errors.New("yaml: bad")
	err := Wrap(InvalidConfig, "config.load", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost")
	}
	if got := err.Error(); got != "config.load: invalid_config: yaml: bad" {
		t.Fatalf("Error() = %q", got)
	}
}
