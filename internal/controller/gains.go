package controller

import "strconv"

// GainSet carries the tunable coefficients of the control law. Alpha1 and
// Alpha2 are the footprint-of-uncertainty widths of the fuzzy input sets and
// are expected in [0, 1]; the k gains are unconstrained.
//
// A GainSet is always replaced wholesale, never field by field, so a control
// tick observes either the previous set or the new one in full.
type GainSet struct {
	KP     float64
	KD     float64
	KA     float64
	KB     float64
	Alpha1 float64
	Alpha2 float64
}

// DefaultGains returns the stock tuning of the controller.
func DefaultGains() GainSet {
	return GainSet{
		KP:     1.0,
		KD:     0.004,
		KA:     0.077,
		KB:     7.336,
		Alpha1: 0.5,
		Alpha2: 0.5,
	}
}

// ParseArgs builds a GainSet from up to six positional startup arguments in
// the order k_p, k_d, k_a, k_b, alpha1, alpha2. With no arguments the
// defaults apply. Otherwise every field comes from the argument list:
// non-numeric or missing positions parse to 0. The coercion is deliberate
// looseness inherited from the reference controller, not an error condition.
func ParseArgs(args []string) GainSet {
	if len(args) == 0 {
		return DefaultGains()
	}
	at := func(i int) float64 {
		if i >= len(args) {
			return 0
		}
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return 0
		}
		return v
	}
	return GainSet{
		KP:     at(0),
		KD:     at(1),
		KA:     at(2),
		KB:     at(3),
		Alpha1: at(4),
		Alpha2: at(5),
	}
}
