package sim

import "github.com/uavlab/it2flc/internal/controller"

const minLag = 1e-3

// Vehicle is a kinematic plant whose velocity tracks the commanded velocity
// through a first-order lag, per axis. Lag is the response time constant in
// seconds.
type Vehicle struct {
	Lag float64
}

func NewVehicle(lag float64) *Vehicle {
	if lag < minLag {
		lag = minLag
	}
	return &Vehicle{Lag: lag}
}

func (v *Vehicle) StateDim() int { return StateDim }

func (v *Vehicle) Derivative(x State, u controller.Vec4, t float64) State {
	dx := make(State, StateDim)
	for i := 0; i < 4; i++ {
		dx[i] = x[4+i]
		dx[4+i] = (u[i] - x[4+i]) / v.Lag
	}
	return dx
}
