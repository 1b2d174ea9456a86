// Package viz renders a live terminal view of the closed control loop.
package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/uavlab/it2flc/internal/controller"
	"github.com/uavlab/it2flc/internal/sim"
)

const (
	frameRate       = 30
	stepsPerFrame   = 4
	historyCapacity = 360
	graphWidth      = 70
	graphHeight     = 8
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	phaseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model steps the closed loop in place and renders pose, command and the
// tracking-error history.
type Model struct {
	veh   sim.Dynamics
	integ sim.Integrator
	ctrl  *controller.Controller
	traj  sim.Trajectory

	state    sim.State
	initial  sim.State
	cmd      controller.Vec4
	desired  controller.Vec4
	t, dt    float64
	scenario string

	running    bool
	errHistory []float64
}

func NewModel(veh sim.Dynamics, integ sim.Integrator, ctrl *controller.Controller, traj sim.Trajectory, x0 sim.State, dt float64, scenario string) Model {
	return Model{
		veh:        veh,
		integ:      integ,
		ctrl:       ctrl,
		traj:       traj,
		state:      x0.Clone(),
		initial:    x0.Clone(),
		dt:         dt,
		scenario:   scenario,
		running:    true,
		errHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.state = m.initial.Clone()
			m.t = 0
			m.cmd = controller.Vec4{}
			m.errHistory = m.errHistory[:0]
		}
		return m, nil

	case TickMsg:
		if m.running {
			for i := 0; i < stepsPerFrame; i++ {
				m.step()
			}
		}
		return m, tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) step() {
	m.ctrl.UpdateOdometry(m.state.Pose(), m.state.Velocity())
	desired, desiredVel := m.traj.Sample(m.t)
	m.ctrl.UpdateTrajectory(desired)
	m.ctrl.UpdateTrajectoryVelocity(desiredVel)
	m.desired = desired

	if cmd, outcome := m.ctrl.Tick(); outcome == controller.Emitted {
		m.cmd = cmd
	}

	m.state = m.integ.Step(m.veh, m.state, m.cmd, m.t, m.dt)
	m.t += m.dt

	pose := m.state.Pose()
	var sq float64
	for i := 0; i < 3; i++ {
		d := desired[i] - pose[i]
		sq += d * d
	}
	m.errHistory = append(m.errHistory, math.Sqrt(sq))
	if len(m.errHistory) > historyCapacity {
		m.errHistory = m.errHistory[1:]
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("it2flc live  ·  %s", m.scenario)))
	b.WriteString("\n")

	pose := m.state.Pose()
	rows := []struct {
		label string
		value string
	}{
		{"t", fmt.Sprintf("%8.2f s", m.t)},
		{"phase", phaseStyle.Render(m.ctrl.Phase().String())},
		{"pose", fmtVec(pose)},
		{"desired", fmtVec(m.desired)},
		{"command", fmtVec(m.cmd)},
	}
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r.label))
		b.WriteString(valueStyle.Render(r.value))
		b.WriteString("\n")
	}

	if len(m.errHistory) > 1 {
		graph := asciigraph.Plot(m.errHistory,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("position error norm"),
		)
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("space pause · r reset · q quit"))
	return b.String()
}

func fmtVec(v controller.Vec4) string {
	return fmt.Sprintf("(%7.3f, %7.3f, %7.3f | %6.3f)", v[0], v[1], v[2], v[3])
}
