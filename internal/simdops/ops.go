// Package simdops exposes the SIMD kernels the meter uses for both float
// widths: sample scaling when decoding PCM, channel interleaving for test and
// file signals, and sums/dot products for offline level statistics.
package simdops

import (
	"github.com/tphakala/simd/cpu"
	"github.com/tphakala/simd/f32"
	"github.com/tphakala/simd/f64"
)

// Float is the type constraint for supported floating-point types.
type Float interface {
	float32 | float64
}

// Ops holds the SIMD kernels for type F.
type Ops[F Float] struct {
	// DotProductUnsafe computes the dot product without bounds checking.
	// Both slices must have the same length.
	DotProductUnsafe func(a, b []F) F

	// Interleave2 writes dst[0]=a[0], dst[1]=b[0], dst[2]=a[1], ...
	Interleave2 func(dst, a, b []F)

	// Sum returns the sum of all elements.
	Sum func(a []F) F

	// Scale sets dst[i] = a[i] * s.
	Scale func(dst, a []F, s F)
}

var (
	ops32 = Ops[float32]{
		DotProductUnsafe: f32.DotProductUnsafe,
		Interleave2:      f32.Interleave2,
		Sum:              f32.Sum,
		Scale:            f32.Scale,
	}
	ops64 = Ops[float64]{
		DotProductUnsafe: f64.DotProductUnsafe,
		Interleave2:      f64.Interleave2,
		Sum:              f64.Sum,
		Scale:            f64.Scale,
	}
)

// For returns the Ops instance for type F.
func For[F Float]() *Ops[F] {
	var zero F
	switch any(zero).(type) {
	case float32:
		ops, ok := any(&ops32).(*Ops[F])
		if !ok {
			panic("simdops: type assertion failed for float32")
		}
		return ops
	case float64:
		ops, ok := any(&ops64).(*Ops[F])
		if !ok {
			panic("simdops: type assertion failed for float64")
		}
		return ops
	default:
		panic("simdops: unsupported float type")
	}
}

// Float32Ops returns the float32 kernels.
func Float32Ops() *Ops[float32] {
	return &ops32
}

// Float64Ops returns the float64 kernels.
func Float64Ops() *Ops[float64] {
	return &ops64
}

// Power returns the sum of squares of a.
func Power[F Float](a []F) F {
	if len(a) == 0 {
		return 0
	}
	return For[F]().DotProductUnsafe(a, a)
}

// CPUInfo describes the SIMD instruction sets detected at startup.
func CPUInfo() string {
	return cpu.Info()
}
