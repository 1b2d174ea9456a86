// Package integrators provides fixed-step integrators for the closed-loop
// harness.
package integrators

import (
	"github.com/uavlab/it2flc/internal/controller"
	"github.com/uavlab/it2flc/internal/sim"
)

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn sim.Dynamics, x sim.State, u controller.Vec4, t, dt float64) sim.State {
	dx := dyn.Derivative(x, u, t)
	result := make(sim.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
