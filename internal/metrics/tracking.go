// Package metrics provides run metrics for closed-loop simulations.
package metrics

import (
	"math"

	"github.com/uavlab/it2flc/internal/controller"
	"github.com/uavlab/it2flc/internal/sim"
)

// TrackingError accumulates the RMS position error over x, y, z.
type TrackingError struct {
	sumSq   float64
	samples int
}

func NewTrackingError() *TrackingError {
	return &TrackingError{}
}

func (m *TrackingError) Name() string { return "tracking_rms" }

func (m *TrackingError) Observe(x sim.State, u, desired controller.Vec4, t float64) {
	pose := x.Pose()
	var sq float64
	for i := 0; i < 3; i++ {
		d := desired[i] - pose[i]
		sq += d * d
	}
	m.sumSq += sq
	m.samples++
}

func (m *TrackingError) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *TrackingError) Reset() {
	m.sumSq = 0
	m.samples = 0
}

// MaxError tracks the worst single-axis position error seen.
type MaxError struct {
	max float64
}

func NewMaxError() *MaxError {
	return &MaxError{}
}

func (m *MaxError) Name() string { return "max_error" }

func (m *MaxError) Observe(x sim.State, u, desired controller.Vec4, t float64) {
	pose := x.Pose()
	for i := 0; i < 3; i++ {
		if d := math.Abs(desired[i] - pose[i]); d > m.max {
			m.max = d
		}
	}
}

func (m *MaxError) Value() float64 { return m.max }

func (m *MaxError) Reset() { m.max = 0 }
