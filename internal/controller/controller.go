// Package controller implements the IT2 fuzzy position/attitude control law
// for a velocity-commanded flying vehicle.
//
// The [Controller] aggregate owns every piece of state the control loop
// touches: the latest pose/velocity and trajectory snapshots, the freshness
// flag, the gain set, and the per-axis integral accumulators. Collaborators
// (transport receivers, the simulation harness, tests) deliver samples
// through the Update* entry points; the periodic driver calls [Controller.Tick]
// once per period. A single mutex covers both sides, so a tick never observes
// a half-written sample or a mixed gain set.
package controller

import (
	"sync"

	"github.com/uavlab/it2flc/internal/boundmath"
	"github.com/uavlab/it2flc/internal/fuzzy"
)

// Vec4 is a 4-vector over the controlled axes: x, y, z, yaw. Pose vectors
// carry yaw in radians; velocity vectors carry yaw rate.
type Vec4 [4]float64

// Sub returns v - o per axis.
func (v Vec4) Sub(o Vec4) Vec4 {
	for i := range v {
		v[i] -= o[i]
	}
	return v
}

// TrajectoryGate is the gating threshold on the desired pose's z component.
// A desired z at or below this value means "no trajectory received yet" and
// suppresses all control computation.
const TrajectoryGate = -10.0

// initialDesiredZ parks the desired pose well below the gate until the first
// trajectory sample arrives.
const initialDesiredZ = -1000.0

// Phase is the lifecycle state of the control loop.
type Phase int

const (
	// PhaseAwaitingTrajectory is the initial phase: the desired pose still
	// holds the gating sentinel and no command is computed.
	PhaseAwaitingTrajectory Phase = iota
	// PhaseActive means a trajectory has been received and ticks compute.
	PhaseActive
	// PhaseTerminated is entered on shutdown; no further command is emitted.
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingTrajectory:
		return "awaiting_trajectory"
	case PhaseActive:
		return "active"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Outcome reports what a tick did.
type Outcome int

const (
	// Emitted: the tick computed and returned a command.
	Emitted Outcome = iota
	// SkippedGated: the trajectory gate is still closed.
	SkippedGated
	// SkippedStale: no fresh odometry sample arrived since the last tick.
	SkippedStale
	// SkippedTerminated: the controller has been terminated.
	SkippedTerminated
)

func (o Outcome) String() string {
	switch o {
	case Emitted:
		return "emitted"
	case SkippedGated:
		return "gated"
	case SkippedStale:
		return "stale"
	case SkippedTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Controller is the control-loop aggregate. Create with New; all methods are
// safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	gains GainSet
	dt    float64

	pose            Vec4
	velocity        Vec4
	desiredPose     Vec4
	desiredVelocity Vec4
	fresh           bool
	phase           Phase

	// Integral accumulators. Both are monotone: they accumulate every valid
	// tick for the process lifetime with no reset and no windup guard. That
	// is an accepted dynamical property of this control law, not an
	// oversight; see the package tests.
	posIntegral   Vec4
	fuzzyIntegral Vec4
}

// New returns a controller ticking at period dt (seconds). The desired pose
// starts below the trajectory gate, so the controller begins in
// PhaseAwaitingTrajectory.
func New(gains GainSet, dt float64) *Controller {
	return &Controller{
		gains:       gains,
		dt:          dt,
		desiredPose: Vec4{0, 0, initialDesiredZ, 0},
	}
}

// UpdateOdometry delivers a measured pose/velocity pair as one atomic sample
// and marks the sample fresh for the next tick.
func (c *Controller) UpdateOdometry(pose, velocity Vec4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pose = pose
	c.velocity = velocity
	c.fresh = true
}

// UpdateTrajectory delivers a desired pose. The first sample whose z
// component clears the gate moves the controller from awaiting to active.
func (c *Controller) UpdateTrajectory(desired Vec4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.desiredPose = desired
	if c.phase == PhaseAwaitingTrajectory && desired[2] > TrajectoryGate {
		c.phase = PhaseActive
	}
}

// UpdateTrajectoryVelocity delivers a desired velocity.
func (c *Controller) UpdateTrajectoryVelocity(desired Vec4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.desiredVelocity = desired
}

// SetGains replaces the gain set wholesale.
func (c *Controller) SetGains(g GainSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gains = g
}

// Gains returns the gain set currently in effect.
func (c *Controller) Gains() GainSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gains
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Terminate moves the controller to PhaseTerminated. Subsequent ticks report
// SkippedTerminated and emit nothing.
func (c *Controller) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhaseTerminated
}

// Integrals returns the position-error and fuzzy-output integral
// accumulators.
func (c *Controller) Integrals() (posIntegral, fuzzyIntegral Vec4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posIntegral, c.fuzzyIntegral
}

// Tick advances the controller by one period and, when the trajectory gate
// is open and a fresh sample is present, returns the command vector
// (x, y, z velocities plus yaw term). The freshness flag is cleared
// unconditionally, even on skipped ticks.
func (c *Controller) Tick() (Vec4, Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fresh := c.fresh
	c.fresh = false

	if c.phase == PhaseTerminated {
		return Vec4{}, SkippedTerminated
	}
	if c.desiredPose[2] <= TrajectoryGate {
		return Vec4{}, SkippedGated
	}
	if !fresh {
		return Vec4{}, SkippedStale
	}

	g := c.gains
	fc := fuzzy.Compositor{Alpha1: g.Alpha1, Alpha2: g.Alpha2}

	pose := c.pose
	pose[3] = boundmath.UnwrapToNearest(pose[3], c.desiredPose[3])

	var phi Vec4
	for i := range phi {
		err := c.desiredPose[i] - pose[i]
		errRate := c.desiredVelocity[i] - c.velocity[i]
		c.posIntegral[i] += err * c.dt

		sigma1 := boundmath.Clamp01(g.KP * err)
		sigma2 := boundmath.Clamp01(g.KD * errRate)
		phi[i] = fc.Phi(sigma1, sigma2)
		c.fuzzyIntegral[i] += phi[i] * c.dt
	}

	uncertainty := 1 - g.Alpha1*g.Alpha2
	var cmd Vec4
	for i := 0; i < 3; i++ {
		cmd[i] = g.KA*phi[i] + g.KB*c.fuzzyIntegral[i] + uncertainty*c.posIntegral[i]
	}
	// yaw takes the bare blended value, with no integral or gain terms
	cmd[3] = phi[3]

	return cmd, Emitted
}
