package mathx

import "golang.org/x/exp/constraints"

// MaxOf returns the largest value representable by unsigned T.
func MaxOf[T constraints.Unsigned]() T { return ^T(0) }

// SatAdd returns a+b clamped to the maximum of T. Never wraps.
func SatAdd[T constraints.Unsigned](a, b T) T {
	if a > MaxOf[T]()-b {
		return MaxOf[T]()
	}
	return a + b
}

// SatSub returns a-b clamped at zero. Never wraps.
func SatSub[T constraints.Unsigned](a, b T) T {
	if a <= b {
		return 0
	}
	return a - b
}

// ScaleQ16 returns (scale*v)>>16 using 32-bit intermediates.
// scale must stay below 65536 for the product to fit.
func ScaleQ16(v uint16, scale uint32) uint32 {
	return (uint32(v) * scale) >> 16
}
