package sim

import (
	"math"

	"github.com/uavlab/it2flc/internal/controller"
)

// Hover holds a fixed setpoint.
type Hover struct {
	Point controller.Vec4
}

func (h Hover) Sample(t float64) (controller.Vec4, controller.Vec4) {
	return h.Point, controller.Vec4{}
}

// StepInput switches from From to To at time At.
type StepInput struct {
	From controller.Vec4
	To   controller.Vec4
	At   float64
}

func (s StepInput) Sample(t float64) (controller.Vec4, controller.Vec4) {
	if t < s.At {
		return s.From, controller.Vec4{}
	}
	return s.To, controller.Vec4{}
}

// Circle orbits at constant height and angular rate, yaw tangent to the
// path.
type Circle struct {
	Radius float64
	Omega  float64
	Height float64
}

func (c Circle) Sample(t float64) (controller.Vec4, controller.Vec4) {
	a := c.Omega * t
	pose := controller.Vec4{
		c.Radius * math.Cos(a),
		c.Radius * math.Sin(a),
		c.Height,
		math.Atan2(math.Cos(a), -math.Sin(a)),
	}
	vel := controller.Vec4{
		-c.Radius * c.Omega * math.Sin(a),
		c.Radius * c.Omega * math.Cos(a),
		0,
		c.Omega,
	}
	return pose, vel
}
