package sim

import (
	"math"
	"testing"

	"github.com/uavlab/it2flc/internal/controller"
)

func TestHoverIsConstant(t *testing.T) {
	h := Hover{Point: controller.Vec4{1, 2, 3, 0.5}}
	for _, tt := range []float64{0, 1, 100} {
		pose, vel := h.Sample(tt)
		if pose != h.Point {
			t.Errorf("t=%f: pose %v", tt, pose)
		}
		if vel != (controller.Vec4{}) {
			t.Errorf("t=%f: vel %v", tt, vel)
		}
	}
}

func TestStepInputSwitches(t *testing.T) {
	s := StepInput{
		From: controller.Vec4{0, 0, 1, 0},
		To:   controller.Vec4{0, 0, 3, 0},
		At:   5.0,
	}

	before, _ := s.Sample(4.99)
	after, _ := s.Sample(5.0)
	if before != s.From || after != s.To {
		t.Errorf("step: before %v, after %v", before, after)
	}
}

func TestCircleGeometry(t *testing.T) {
	c := Circle{Radius: 2.0, Omega: 0.5, Height: 1.5}

	for _, tt := range []float64{0, 0.7, 3.1, 9.4} {
		pose, vel := c.Sample(tt)

		r := math.Hypot(pose[0], pose[1])
		if math.Abs(r-c.Radius) > 1e-9 {
			t.Errorf("t=%f: radius %f", tt, r)
		}
		if pose[2] != c.Height {
			t.Errorf("t=%f: height %f", tt, pose[2])
		}

		speed := math.Hypot(vel[0], vel[1])
		if math.Abs(speed-c.Radius*c.Omega) > 1e-9 {
			t.Errorf("t=%f: speed %f, expected %f", tt, speed, c.Radius*c.Omega)
		}

		// velocity is tangent: position . velocity = 0 in the plane
		dot := pose[0]*vel[0] + pose[1]*vel[1]
		if math.Abs(dot) > 1e-9 {
			t.Errorf("t=%f: velocity not tangent, dot %f", tt, dot)
		}
	}
}
