package canbus

import (
	"context"
	"fmt"
	"net"

	"go.einride.tech/can/pkg/socketcan"
	"go.uber.org/zap"

	"github.com/uavlab/it2flc/internal/controller"
	"github.com/uavlab/it2flc/internal/loop"
	"github.com/uavlab/it2flc/internal/telemetry"
)

// Receiver reads frames from a SocketCAN interface and feeds decoded samples
// into a loop.Source.
type Receiver struct {
	conn net.Conn
	recv *socketcan.Receiver
	log  *zap.Logger
}

// DialReceiver opens the interface (e.g. "can0", "vcan0") for reading.
func DialReceiver(ctx context.Context, iface string, log *zap.Logger) (*Receiver, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &Receiver{
		conn: conn,
		recv: socketcan.NewReceiver(conn),
		log:  log,
	}, nil
}

// Run decodes frames into src until ctx is cancelled or the bus closes.
// Samples are dropped, not queued, when the loop falls behind: the
// controller only wants the latest data.
//
// Odometry arrives as a pose frame followed by a velocity frame; the
// velocity frame commits the pair so the loop receives one atomic sample.
// Gain updates work the same way: the alpha frame commits the set.
func (r *Receiver) Run(ctx context.Context, src *loop.Source) error {
	var (
		pose        controller.Vec4
		havePose    bool
		gains       controller.GainSet
		haveGains   bool
		decodeFails int
	)

	for r.recv.Receive() {
		if err := ctx.Err(); err != nil {
			return err
		}

		f := r.recv.Frame()
		switch f.ID {
		case FrameOdometryPose:
			v, err := DecodeVec(f, poseFactor)
			if err != nil {
				decodeFails++
				r.log.Warn("bad odometry pose frame", zap.Error(err), zap.Int("total", decodeFails))
				continue
			}
			pose = v
			havePose = true

		case FrameOdometryVelocity:
			if !havePose {
				continue
			}
			v, err := DecodeVec(f, velFactor)
			if err != nil {
				decodeFails++
				r.log.Warn("bad odometry velocity frame", zap.Error(err))
				continue
			}
			havePose = false
			select {
			case src.Odometry <- loop.OdometrySample{Pose: pose, Velocity: v}:
			default:
				telemetry.SamplesDropped.WithLabelValues("odometry").Inc()
			}

		case FrameTrajectoryPose:
			v, err := DecodeVec(f, poseFactor)
			if err != nil {
				r.log.Warn("bad trajectory frame", zap.Error(err))
				continue
			}
			select {
			case src.Trajectory <- v:
			default:
				telemetry.SamplesDropped.WithLabelValues("trajectory").Inc()
			}

		case FrameTrajectoryVel:
			v, err := DecodeVec(f, velFactor)
			if err != nil {
				r.log.Warn("bad trajectory velocity frame", zap.Error(err))
				continue
			}
			select {
			case src.TrajectoryVelocity <- v:
			default:
				telemetry.SamplesDropped.WithLabelValues("trajectory_velocity").Inc()
			}

		case FrameGainsPrimary:
			v, err := DecodeVec(f, gainFactor)
			if err != nil {
				r.log.Warn("bad gains frame", zap.Error(err))
				continue
			}
			gains = controller.GainSet{KP: v[0], KD: v[1], KA: v[2], KB: v[3]}
			haveGains = true

		case FrameGainsAlpha:
			if !haveGains {
				continue
			}
			v, err := DecodeVec(f, alphaFactor)
			if err != nil {
				r.log.Warn("bad gains alpha frame", zap.Error(err))
				continue
			}
			gains.Alpha1, gains.Alpha2 = v[0], v[1]
			haveGains = false
			select {
			case src.Gains <- gains:
			default:
				telemetry.SamplesDropped.WithLabelValues("gains").Inc()
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("canbus: receiver closed")
}

// Close closes the underlying socket, unblocking Run.
func (r *Receiver) Close() error {
	return r.conn.Close()
}

// Transmitter publishes command frames to a SocketCAN interface. It
// implements loop.Sink.
type Transmitter struct {
	conn net.Conn
	tx   *socketcan.Transmitter
}

// DialTransmitter opens the interface for writing.
func DialTransmitter(ctx context.Context, iface string) (*Transmitter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &Transmitter{
		conn: conn,
		tx:   socketcan.NewTransmitter(conn),
	}, nil
}

// Publish encodes and transmits one command vector.
func (t *Transmitter) Publish(ctx context.Context, cmd controller.Vec4) error {
	return t.tx.TransmitFrame(ctx, EncodeCommand(cmd))
}

// Close closes the underlying socket.
func (t *Transmitter) Close() error {
	return t.conn.Close()
}
