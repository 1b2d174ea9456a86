// Package loop drives the controller at a fixed rate.
//
// Transport collaborators deliver samples into the [Source] channels; the
// loop owns the dispatch between sample delivery and tick execution, so the
// controller only ever sees complete samples. Commands go out through a
// [Sink]. Cancelling the context terminates the controller without emitting
// a further command.
package loop

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/uavlab/it2flc/internal/controller"
	"github.com/uavlab/it2flc/internal/telemetry"
)

// DefaultRateHz is the stock tick rate of the control loop.
const DefaultRateHz = 100

// OdometrySample is one atomic pose/velocity measurement.
type OdometrySample struct {
	Pose     controller.Vec4
	Velocity controller.Vec4
}

// Source carries inbound samples from the transport collaborators. Channels
// are buffered; producers should drop rather than block when a consumer
// stalls (the loop only ever wants the latest data anyway).
type Source struct {
	Odometry           chan OdometrySample
	Trajectory         chan controller.Vec4
	TrajectoryVelocity chan controller.Vec4
	Gains              chan controller.GainSet
}

// NewSource returns a Source with buffered channels.
func NewSource() *Source {
	return &Source{
		Odometry:           make(chan OdometrySample, 16),
		Trajectory:         make(chan controller.Vec4, 16),
		TrajectoryVelocity: make(chan controller.Vec4, 16),
		Gains:              make(chan controller.GainSet, 4),
	}
}

// Sink consumes the command vectors the loop emits.
type Sink interface {
	Publish(ctx context.Context, cmd controller.Vec4) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, cmd controller.Vec4) error

func (f SinkFunc) Publish(ctx context.Context, cmd controller.Vec4) error {
	return f(ctx, cmd)
}

// Loop ticks a controller at a fixed period, interleaving sample delivery
// with tick execution on a single goroutine.
type Loop struct {
	ctrl   *controller.Controller
	src    *Source
	sink   Sink
	period time.Duration
	log    *zap.Logger
}

// New builds a loop ticking at rateHz. The rate is fixed for the life of the
// loop.
func New(ctrl *controller.Controller, src *Source, sink Sink, rateHz int, log *zap.Logger) *Loop {
	if rateHz <= 0 {
		rateHz = DefaultRateHz
	}
	return &Loop{
		ctrl:   ctrl,
		src:    src,
		sink:   sink,
		period: time.Second / time.Duration(rateHz),
		log:    log,
	}
}

// Period returns the tick period.
func (l *Loop) Period() time.Duration { return l.period }

// Run blocks until ctx is cancelled, applying inbound samples and ticking
// the controller once per period.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("control loop started",
		zap.Duration("period", l.period),
		zap.String("phase", l.ctrl.Phase().String()))

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.ctrl.Terminate()
			l.log.Info("control loop terminated")
			return ctx.Err()

		case s := <-l.src.Odometry:
			l.ctrl.UpdateOdometry(s.Pose, s.Velocity)

		case p := <-l.src.Trajectory:
			before := l.ctrl.Phase()
			l.ctrl.UpdateTrajectory(p)
			if after := l.ctrl.Phase(); after != before {
				l.log.Info("trajectory gate opened",
					zap.Float64("z", p[2]), zap.String("phase", after.String()))
			}

		case v := <-l.src.TrajectoryVelocity:
			l.ctrl.UpdateTrajectoryVelocity(v)

		case g := <-l.src.Gains:
			l.ctrl.SetGains(g)
			telemetry.GainUpdates.Inc()
			l.log.Info("gains replaced",
				zap.Float64("k_p", g.KP), zap.Float64("k_d", g.KD),
				zap.Float64("k_a", g.KA), zap.Float64("k_b", g.KB),
				zap.Float64("alpha1", g.Alpha1), zap.Float64("alpha2", g.Alpha2))

		case <-ticker.C:
			start := time.Now()
			cmd, outcome := l.ctrl.Tick()
			telemetry.Ticks.Inc()
			if outcome != controller.Emitted {
				telemetry.TicksSkipped.WithLabelValues(outcome.String()).Inc()
				continue
			}
			if err := l.sink.Publish(ctx, cmd); err != nil {
				l.log.Warn("failed to publish command", zap.Error(err))
				continue
			}
			telemetry.CommandsEmitted.Inc()
			telemetry.TickDuration.Observe(time.Since(start).Seconds())
		}
	}
}
