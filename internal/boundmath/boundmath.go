// Package boundmath provides the scalar primitives shared by the fuzzy
// control surface: clamping to the unit interval and angle unwrapping.
package boundmath

import "math"

// Clamp01 clamps n to [-1, 1]. Idempotent.
func Clamp01(n float64) float64 {
	if n <= -1 {
		return -1
	}
	if n >= 1 {
		return 1
	}
	return n
}

// UnwrapToNearest shifts a by a full turn when it lies more than pi away
// from ref, choosing the direction that reduces the difference. Applied to
// measured yaw before computing the yaw error so the error never jumps by
// 2*pi at the wrap boundary.
func UnwrapToNearest(a, ref float64) float64 {
	if math.Abs(ref-a) > math.Pi {
		if ref < a {
			a -= 2 * math.Pi
		} else {
			a += 2 * math.Pi
		}
	}
	return a
}
