package controller

import (
	"math"
	"sync"
	"testing"
)

const dt = 0.01

func activeController(g GainSet) *Controller {
	c := New(g, dt)
	c.UpdateTrajectory(Vec4{0, 0, 1, 0})
	c.UpdateTrajectoryVelocity(Vec4{})
	return c
}

func TestGatingBeforeTrajectory(t *testing.T) {
	c := New(DefaultGains(), dt)

	if c.Phase() != PhaseAwaitingTrajectory {
		t.Fatalf("initial phase = %v, expected awaiting_trajectory", c.Phase())
	}

	// fresh odometry alone must not produce a command
	c.UpdateOdometry(Vec4{1, 2, 3, 0}, Vec4{})
	if _, outcome := c.Tick(); outcome != SkippedGated {
		t.Fatalf("tick before trajectory: outcome %v, expected gated", outcome)
	}

	// a trajectory still holding the sentinel keeps the gate closed
	c.UpdateTrajectory(Vec4{0, 0, -1000, 0})
	c.UpdateOdometry(Vec4{1, 2, 3, 0}, Vec4{})
	if _, outcome := c.Tick(); outcome != SkippedGated {
		t.Fatalf("tick with sentinel trajectory: outcome %v, expected gated", outcome)
	}

	// the very next tick after the gate opens with a fresh sample emits
	c.UpdateTrajectory(Vec4{0, 0, 1, 0})
	c.UpdateOdometry(Vec4{1, 2, 3, 0}, Vec4{})
	if _, outcome := c.Tick(); outcome != Emitted {
		t.Fatalf("tick after gate opened: outcome %v, expected emitted", outcome)
	}
	if c.Phase() != PhaseActive {
		t.Errorf("phase = %v, expected active", c.Phase())
	}
}

func TestStaleSampleSkipsAndClearsFlag(t *testing.T) {
	c := activeController(DefaultGains())

	c.UpdateOdometry(Vec4{0.5, 0, 0, 0}, Vec4{})
	if _, outcome := c.Tick(); outcome != Emitted {
		t.Fatal("first tick with fresh sample should emit")
	}

	// no new odometry: the tick skips, updates no integral
	posBefore, fuzzyBefore := c.Integrals()
	if _, outcome := c.Tick(); outcome != SkippedStale {
		t.Fatal("tick without fresh sample should report stale")
	}
	posAfter, fuzzyAfter := c.Integrals()
	if posAfter != posBefore || fuzzyAfter != fuzzyBefore {
		t.Error("stale tick must not advance integrals")
	}
}

func TestStaleTickClearsFreshnessEvenWhenGated(t *testing.T) {
	c := New(DefaultGains(), dt)
	c.UpdateOdometry(Vec4{}, Vec4{})

	// gated tick consumes the freshness flag
	if _, outcome := c.Tick(); outcome != SkippedGated {
		t.Fatal("expected gated tick")
	}

	// gate opens, but the sample was already consumed
	c.UpdateTrajectory(Vec4{0, 0, 1, 0})
	if _, outcome := c.Tick(); outcome != SkippedStale {
		t.Error("freshness flag should have been cleared by the gated tick")
	}
}

func TestIntegralAccumulation(t *testing.T) {
	g := DefaultGains()
	c := activeController(g)

	// constant error of 0.25 on x over N valid ticks
	const n = 50
	desired := Vec4{0.25, 0, 1, 0}
	c.UpdateTrajectory(desired)
	for i := 0; i < n; i++ {
		c.UpdateOdometry(Vec4{0, 0, 1, 0}, Vec4{})
		if _, outcome := c.Tick(); outcome != Emitted {
			t.Fatalf("tick %d: outcome %v", i, outcome)
		}
	}

	posInt, _ := c.Integrals()
	expected := float64(n) * 0.25 * dt
	if math.Abs(posInt[0]-expected) > 1e-9 {
		t.Errorf("position integral = %f, expected %f", posInt[0], expected)
	}
	if posInt[1] != 0 || posInt[2] != 0 || posInt[3] != 0 {
		t.Errorf("integral leaked into other axes: %v", posInt)
	}
}

func TestScenarioProportionalOnly(t *testing.T) {
	// k_p=1, k_d=0, error 0.5 on x, zero rates: sigma1=(0.5,0,0,0),
	// sigma2=0, so phi.x = Phi(0.5, 0) = 0.5.
	g := GainSet{KP: 1, KD: 0, KA: 1, KB: 0, Alpha1: 0.5, Alpha2: 0.5}
	c := activeController(g)
	c.UpdateTrajectory(Vec4{0.5, 0, 1, 0})
	c.UpdateOdometry(Vec4{0, 0, 1, 0}, Vec4{})

	cmd, outcome := c.Tick()
	if outcome != Emitted {
		t.Fatalf("outcome %v", outcome)
	}

	// first tick from zero integrals: command.x = KA*phi.x + (1-a1*a2)*err*dt
	phiX := 0.5
	expected := g.KA*phiX + (1-g.Alpha1*g.Alpha2)*0.5*dt
	if math.Abs(cmd[0]-expected) > 1e-12 {
		t.Errorf("cmd.x = %f, expected %f", cmd[0], expected)
	}
	if cmd[1] != 0 || cmd[2] != 0 || cmd[3] != 0 {
		t.Errorf("expected zero command on unexcited axes, got %v", cmd)
	}
}

func TestScenarioFirstTickNoFuzzyIntegral(t *testing.T) {
	// With k_b=0 and the uncertainty term cancelled by a unit-product alpha
	// pair, a single tick from zero integrals yields cmd.x = phi.x exactly.
	g := GainSet{KP: 1, KD: 0, KA: 1, KB: 0, Alpha1: 1, Alpha2: 1}
	c := activeController(g)
	c.UpdateTrajectory(Vec4{0.5, 0, 1, 0})
	c.UpdateOdometry(Vec4{0, 0, 1, 0}, Vec4{})

	cmd, outcome := c.Tick()
	if outcome != Emitted {
		t.Fatalf("outcome %v", outcome)
	}
	if math.Abs(cmd[0]-0.5) > 1e-12 {
		t.Errorf("cmd.x = %f, expected phi value 0.5", cmd[0])
	}
}

func TestYawUnwrapAcrossBoundary(t *testing.T) {
	// measured yaw +3.0 rad, desired yaw -3.0 rad: without unwrapping the
	// error would be ~-6 rad and saturate sigma1 negative; with unwrapping
	// the effective error is ~+0.28 rad.
	g := GainSet{KP: 1, KD: 0, KA: 1, KB: 0, Alpha1: 1, Alpha2: 1}
	c := activeController(g)
	c.UpdateTrajectory(Vec4{0, 0, 1, -3.0})
	c.UpdateOdometry(Vec4{0, 0, 1, 3.0}, Vec4{})

	cmd, outcome := c.Tick()
	if outcome != Emitted {
		t.Fatalf("outcome %v", outcome)
	}

	wantErr := 2*math.Pi - 6.0 // ~0.283
	if math.Abs(cmd[3]-wantErr) > 1e-9 {
		t.Errorf("yaw command = %f, expected %f", cmd[3], wantErr)
	}
}

func TestYawCommandHasNoIntegralTerms(t *testing.T) {
	g := GainSet{KP: 1, KD: 0, KA: 100, KB: 100, Alpha1: 0.5, Alpha2: 0.5}
	c := activeController(g)
	c.UpdateTrajectory(Vec4{0, 0, 1, 0.4})

	var last Vec4
	for i := 0; i < 20; i++ {
		c.UpdateOdometry(Vec4{0, 0, 1, 0}, Vec4{})
		cmd, outcome := c.Tick()
		if outcome != Emitted {
			t.Fatalf("tick %d: outcome %v", i, outcome)
		}
		last = cmd
	}
	// repeated identical yaw error: with no integral term the yaw command
	// stays at the bare phi value while x/y/z would have grown
	if math.Abs(last[3]-0.4) > 1e-9 {
		t.Errorf("yaw command drifted to %f, expected constant 0.4", last[3])
	}
}

func TestTerminate(t *testing.T) {
	c := activeController(DefaultGains())
	c.UpdateOdometry(Vec4{1, 0, 0, 0}, Vec4{})
	c.Terminate()

	if _, outcome := c.Tick(); outcome != SkippedTerminated {
		t.Errorf("tick after terminate: outcome %v", outcome)
	}
	if c.Phase() != PhaseTerminated {
		t.Errorf("phase = %v", c.Phase())
	}
}

func TestConcurrentGainReplacement(t *testing.T) {
	c := activeController(DefaultGains())

	a := GainSet{KP: 1, KD: 1, KA: 1, KB: 1, Alpha1: 1, Alpha2: 1}
	b := GainSet{KP: 2, KD: 2, KA: 2, KB: 2, Alpha1: 0, Alpha2: 0}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				c.SetGains(a)
			} else {
				c.SetGains(b)
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		g := c.Gains()
		if g != a && g != b {
			t.Fatalf("observed mixed gain set: %+v", g)
		}
		c.UpdateOdometry(Vec4{0.1, 0, 0, 0}, Vec4{})
		c.Tick()
	}
	close(stop)
	wg.Wait()
}

func TestParseArgs(t *testing.T) {
	if g := ParseArgs(nil); g != DefaultGains() {
		t.Errorf("no args: expected defaults, got %+v", g)
	}

	g := ParseArgs([]string{"2.5", "0.01", "0.1", "8.0", "0.3", "0.7"})
	want := GainSet{KP: 2.5, KD: 0.01, KA: 0.1, KB: 8.0, Alpha1: 0.3, Alpha2: 0.7}
	if g != want {
		t.Errorf("got %+v, want %+v", g, want)
	}

	// non-numeric and missing positions coerce to zero
	g = ParseArgs([]string{"1.0", "bogus", "0.5"})
	want = GainSet{KP: 1.0, KD: 0, KA: 0.5}
	if g != want {
		t.Errorf("got %+v, want %+v", g, want)
	}
}

func TestVec4Sub(t *testing.T) {
	got := Vec4{4, 3, 2, 1}.Sub(Vec4{1, 1, 1, 1})
	if got != (Vec4{3, 2, 1, 0}) {
		t.Errorf("Sub = %v", got)
	}
}
