package metrics

import (
	"math"

	"github.com/uavlab/it2flc/internal/controller"
	"github.com/uavlab/it2flc/internal/sim"
)

// SettlingTime reports the earliest time after which the position error
// norm stayed within Band for the rest of the run. A run that never
// settles reports -1.
type SettlingTime struct {
	Band    float64
	settled float64
	inside  bool
	seen    bool
}

func NewSettlingTime(band float64) *SettlingTime {
	if band <= 0 {
		band = 0.05
	}
	return &SettlingTime{Band: band, settled: -1}
}

func (m *SettlingTime) Name() string { return "settling_time" }

func (m *SettlingTime) Observe(x sim.State, u, desired controller.Vec4, t float64) {
	pose := x.Pose()
	var sq float64
	for i := 0; i < 3; i++ {
		d := desired[i] - pose[i]
		sq += d * d
	}
	m.seen = true
	if math.Sqrt(sq) <= m.Band {
		if !m.inside {
			m.inside = true
			m.settled = t
		}
		return
	}
	m.inside = false
	m.settled = -1
}

func (m *SettlingTime) Value() float64 {
	if !m.seen {
		return -1
	}
	return m.settled
}

func (m *SettlingTime) Reset() {
	m.settled = -1
	m.inside = false
	m.seen = false
}
