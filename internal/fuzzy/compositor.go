// Package fuzzy implements the interval type-2 fuzzy inference surface used
// by the position controller.
//
// The compositor maps two unit-bounded signals (sigma1, the scaled error, and
// sigma2, the scaled error rate) to a blended control-surface value. Two
// surfaces are exposed:
//
//   - [Compositor.Phi]: a closed-form surrogate of the three-region rule base.
//     This is the surface the production loop consumes per axis.
//   - [Compositor.Phi1], [Compositor.Phi2], [Compositor.Phi3] with
//     [Compositor.Omega12] and [Compositor.Omega23]: the full three-region
//     type reduction with lower/upper firing strengths weighted by the
//     uncertainty product Alpha1*Alpha2. Kept as a public capability for
//     alternative blending strategies; the rational forms match the reference
//     controller exactly.
//
// The full reduction has denominators that vanish at particular
// (sigma1, sigma2, alpha) combinations. Those functions report ErrSingular
// instead of returning an infinity; Phi has no singular points and stays
// error-free.
package fuzzy

import (
	"errors"
	"math"
)

// ErrSingular is reported when a type-reduction denominator vanishes for the
// given inputs and uncertainty widths.
var ErrSingular = errors.New("fuzzy: type reduction singular at given inputs")

const singularEps = 1e-12

// Compositor holds the footprint-of-uncertainty widths of the two input
// fuzzy sets. Both are expected in [0, 1]. The zero value degenerates to a
// crisp (type-1) rule base. Compositor is a value type; all methods are pure.
type Compositor struct {
	Alpha1 float64
	Alpha2 float64
}

// Phi is the simplified control surface: symmetric in its arguments, zero at
// the origin, and smoothly saturating toward the corners of the unit square.
func (c Compositor) Phi(sigma1, sigma2 float64) float64 {
	return sigma1 + sigma2 - (math.Abs(sigma1)*sigma2+sigma1*math.Abs(sigma2))/2
}

// Phi1 is the positive-region rule output of the full type reduction.
func (c Compositor) Phi1(sigma1, sigma2 float64) (float64, error) {
	a := c.Alpha1 * c.Alpha2
	d1 := (sigma1+1)*(sigma2+1) + a*sigma1*sigma2 - a*sigma1*(sigma2+1) - a*sigma2*(sigma1+1)
	d2 := sigma1*sigma2 - sigma1*(sigma2+1) - sigma2*(sigma1+1) + a*(sigma1+1)*(sigma2+1)
	if math.Abs(d1) < singularEps || math.Abs(d2) < singularEps {
		return 0, ErrSingular
	}
	n1 := (a*sigma1*(sigma2+1))/2 - (a*sigma1*sigma2)/2 + (a*sigma2*(sigma1+1))/2
	n2 := (sigma1*(sigma2+1))/2 - (sigma1*sigma2)/2 + (sigma2*(sigma1+1))/2
	return n1/d1 + n2/d2, nil
}

// Phi2 is the transition-region rule output of the full type reduction.
func (c Compositor) Phi2(sigma1, sigma2 float64) (float64, error) {
	a := c.Alpha1 * c.Alpha2
	d1 := sigma1*(sigma2+1) - a*sigma1*sigma2 + a*sigma2*(sigma1-1) - a*(sigma1-1)*(sigma2+1)
	d2 := sigma2*(sigma1-1) - a*sigma1*sigma2 + a*sigma1*(sigma2+1) - a*(sigma1-1)*(sigma2+1)
	if math.Abs(d1) < singularEps || math.Abs(d2) < singularEps {
		return 0, ErrSingular
	}
	n1 := (sigma1*(sigma2+1))/2 - (a*sigma2*(sigma1-1))/2
	n2 := (sigma2*(sigma1-1))/2 - (a*sigma1*(sigma2+1))/2
	return n1/d1 - n2/d2, nil
}

// Phi3 is the negative-region rule output of the full type reduction.
func (c Compositor) Phi3(sigma1, sigma2 float64) (float64, error) {
	a := c.Alpha1 * c.Alpha2
	d1 := (sigma1-1)*(sigma2-1) + a*sigma1*sigma2 - a*sigma1*(sigma2-1) - a*sigma2*(sigma1-1)
	d2 := sigma1*sigma2 - sigma1*(sigma2-1) - sigma2*(sigma1-1) + a*(sigma1-1)*(sigma2-1)
	if math.Abs(d1) < singularEps || math.Abs(d2) < singularEps {
		return 0, ErrSingular
	}
	n1 := (a*sigma1*(sigma2-1))/2 - (a*sigma1*sigma2)/2 + (a*sigma2*(sigma1-1))/2
	n2 := (sigma1*(sigma2-1))/2 - (sigma1*sigma2)/2 + (sigma2*(sigma1-1))/2
	return -n1/d1 - n2/d2, nil
}

// Omega12 is the interpolation weight blending Phi1 toward Phi2 across the
// sigma1 = 0 boundary.
func (c Compositor) Omega12(sigma1 float64) (float64, error) {
	a := c.Alpha1 * c.Alpha2
	var num, den float64
	if sigma1 <= 0 {
		num = -a * sigma1
		den = sigma1 - a*sigma1 + 1
	} else {
		num = -sigma1
		den = sigma1 + a - a*sigma1
	}
	if math.Abs(den) < singularEps {
		return 0, ErrSingular
	}
	return num / den, nil
}

// Omega23 is the interpolation weight blending Phi2 toward Phi3 across the
// sigma1 = 0 boundary.
func (c Compositor) Omega23(sigma1 float64) (float64, error) {
	a := c.Alpha1 * c.Alpha2
	var num, den float64
	if sigma1 <= 0 {
		num = -sigma1
		den = a - sigma1 + a*sigma1
	} else {
		num = -a * sigma1
		den = a*sigma1 - sigma1 + 1
	}
	if math.Abs(den) < singularEps {
		return 0, ErrSingular
	}
	return num / den, nil
}
