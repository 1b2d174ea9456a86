package metrics

import (
	"math"

	"github.com/uavlab/it2flc/internal/controller"
	"github.com/uavlab/it2flc/internal/sim"
)

// ControlEffort accumulates the mean absolute command magnitude across all
// four axes.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (m *ControlEffort) Name() string { return "control_effort" }

func (m *ControlEffort) Observe(x sim.State, u, desired controller.Vec4, t float64) {
	for _, v := range u {
		m.sum += math.Abs(v)
	}
	m.samples++
}

func (m *ControlEffort) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *ControlEffort) Reset() {
	m.sum = 0
	m.samples = 0
}
