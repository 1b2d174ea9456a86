package integrators

import (
	"github.com/uavlab/it2flc/internal/controller"
	"github.com/uavlab/it2flc/internal/sim"
)

type RK4 struct {
	scratch sim.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.scratch) != n {
		r.scratch = make(sim.State, n)
	}
}

func (r *RK4) Step(dyn sim.Dynamics, x sim.State, u controller.Vec4, t, dt float64) sim.State {
	n := len(x)
	r.ensureScratch(n)

	k1 := dyn.Derivative(x, u, t)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*k1[i]
	}
	k2 := dyn.Derivative(r.scratch, u, t+dt*0.5)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*k2[i]
	}
	k3 := dyn.Derivative(r.scratch, u, t+dt*0.5)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*k3[i]
	}
	k4 := dyn.Derivative(r.scratch, u, t+dt)

	result := make(sim.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}

	return result
}

// ByName resolves an integrator from its config name, defaulting to RK4.
func ByName(name string) sim.Integrator {
	switch name {
	case "euler":
		return NewEuler()
	default:
		return NewRK4()
	}
}
