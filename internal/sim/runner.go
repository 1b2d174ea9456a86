package sim

import (
	"context"
	"fmt"

	"github.com/uavlab/it2flc/internal/controller"
)

// Runner closes the loop: each step it feeds the controller the current
// vehicle state as a fresh odometry sample, samples the reference
// trajectory, ticks the controller and applies the resulting command to the
// plant. A vehicle holds its last commanded velocity through skipped ticks,
// so the plant coasts exactly as the real actuator would.
type Runner struct {
	veh     Dynamics
	integ   Integrator
	ctrl    *controller.Controller
	traj    Trajectory
	metrics []Metric
}

func NewRunner(veh Dynamics, integ Integrator, ctrl *controller.Controller, traj Trajectory) *Runner {
	return &Runner{
		veh:   veh,
		integ: integ,
		ctrl:  ctrl,
		traj:  traj,
	}
}

func (r *Runner) AddMetric(m Metric) { r.metrics = append(r.metrics, m) }

// Run simulates the closed loop from x0 and returns the trace. The
// controller must have been created with the same dt.
func (r *Runner) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(x0) != r.veh.StateDim() {
		return nil, fmt.Errorf("initial state has dim %d, vehicle wants %d", len(x0), r.veh.StateDim())
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		States:   make([]State, 0, steps+1),
		Commands: make([]controller.Vec4, 0, steps),
		Desired:  make([]controller.Vec4, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
	}

	x := x0.Clone()
	t := 0.0
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	var cmd controller.Vec4
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		r.ctrl.UpdateOdometry(x.Pose(), x.Velocity())
		desired, desiredVel := r.traj.Sample(t)
		r.ctrl.UpdateTrajectory(desired)
		r.ctrl.UpdateTrajectoryVelocity(desiredVel)

		if next, outcome := r.ctrl.Tick(); outcome == controller.Emitted {
			cmd = next
		}

		for _, m := range r.metrics {
			m.Observe(x, cmd, desired, t)
		}

		x = r.integ.Step(r.veh, x, cmd, t, cfg.Dt)
		if !x.IsValid() {
			return result, fmt.Errorf("state diverged at t=%.4f", t)
		}
		t += cfg.Dt

		result.States = append(result.States, x.Clone())
		result.Commands = append(result.Commands, cmd)
		result.Desired = append(result.Desired, desired)
		result.Times = append(result.Times, t)
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}
