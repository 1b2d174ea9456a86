package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/uavlab/it2flc/internal/controller"
)

type captureSink struct {
	mu   sync.Mutex
	cmds []controller.Vec4
}

func (s *captureSink) Publish(ctx context.Context, cmd controller.Vec4) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, cmd)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cmds)
}

func TestLoopEmitsWhenActiveAndFresh(t *testing.T) {
	ctrl := controller.New(controller.DefaultGains(), 0.001)
	src := NewSource()
	sink := &captureSink{}
	l := New(ctrl, src, sink, 1000, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	src.Trajectory <- controller.Vec4{0, 0, 1, 0}
	src.TrajectoryVelocity <- controller.Vec4{}

	// keep odometry fresh for a while
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		src.Odometry <- OdometrySample{Pose: controller.Vec4{0.1, 0, 1, 0}}
		time.Sleep(time.Millisecond)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}

	if sink.count() == 0 {
		t.Fatal("expected at least one command emitted")
	}
	if ctrl.Phase() != controller.PhaseTerminated {
		t.Errorf("phase after cancel = %v", ctrl.Phase())
	}
}

func TestLoopStaysQuietWhileGated(t *testing.T) {
	ctrl := controller.New(controller.DefaultGains(), 0.001)
	src := NewSource()
	sink := &captureSink{}
	l := New(ctrl, src, sink, 1000, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	// odometry only, never a trajectory: the gate must hold
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		src.Odometry <- OdometrySample{Pose: controller.Vec4{5, 5, 5, 0}}
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done

	if n := sink.count(); n != 0 {
		t.Errorf("expected no commands while gated, got %d", n)
	}
}

func TestLoopAppliesGainUpdates(t *testing.T) {
	ctrl := controller.New(controller.DefaultGains(), 0.001)
	src := NewSource()
	l := New(ctrl, src, SinkFunc(func(context.Context, controller.Vec4) error { return nil }), 1000, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	want := controller.GainSet{KP: 3, KD: 0.1, KA: 0.2, KB: 1, Alpha1: 0.9, Alpha2: 0.1}
	src.Gains <- want

	deadline := time.Now().Add(time.Second)
	for ctrl.Gains() != want {
		if time.Now().After(deadline) {
			t.Fatal("gain update never applied")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done
}

func TestNewClampsRate(t *testing.T) {
	l := New(nil, nil, nil, 0, zap.NewNop())
	if l.Period() != time.Second/DefaultRateHz {
		t.Errorf("period = %v, expected default rate", l.Period())
	}
}
