// Package sim closes the loop around the controller for testing and tuning:
// a velocity-commanded vehicle model, reference trajectories, and a runner
// that feeds the controller odometry and applies its commands.
//
// The vehicle here is deliberately simple. The controller core treats the
// plant, the state estimator and the trajectory generator as external
// producers; the harness only needs a plant realistic enough to exercise the
// control law end to end.
package sim

import (
	"fmt"
	"math"

	"github.com/uavlab/it2flc/internal/controller"
)

// State is the vehicle state vector: x, y, z, yaw, vx, vy, vz, yaw rate.
type State []float64

// StateDim is the length of a vehicle State.
const StateDim = 8

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Pose returns the position/yaw half of the state.
func (s State) Pose() controller.Vec4 {
	return controller.Vec4{s[0], s[1], s[2], s[3]}
}

// Velocity returns the velocity half of the state.
func (s State) Velocity() controller.Vec4 {
	return controller.Vec4{s[4], s[5], s[6], s[7]}
}

// Dynamics is a plant responding to a velocity command.
type Dynamics interface {
	Derivative(x State, u controller.Vec4, t float64) State
	StateDim() int
}

// Integrator advances a plant state by one step.
type Integrator interface {
	Step(dyn Dynamics, x State, u controller.Vec4, t, dt float64) State
}

// Trajectory produces the desired pose and velocity at time t.
type Trajectory interface {
	Sample(t float64) (pose, velocity controller.Vec4)
}

// Metric accumulates a scalar over a closed-loop run.
type Metric interface {
	Name() string
	Observe(x State, u, desired controller.Vec4, t float64)
	Value() float64
	Reset()
}

// Config parametrizes one closed-loop run.
type Config struct {
	Dt       float64
	Duration float64
}

func (c Config) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	return nil
}

// Result collects the trace and metrics of a closed-loop run.
type Result struct {
	States   []State
	Commands []controller.Vec4
	Desired  []controller.Vec4
	Times    []float64
	Metrics  map[string]float64
}
