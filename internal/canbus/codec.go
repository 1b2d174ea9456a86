// Package canbus is the CAN transport collaborator: it decodes sensor,
// trajectory and gain frames into loop samples and encodes the command
// vector for the actuator bus.
//
// Frame layout is fixed: every frame packs four little-endian int16 signals
// scaled by a per-frame factor. Samples wider than one frame (odometry,
// gains) are split across two frames; the second frame commits the pair, so
// a consumer never observes half a sample.
package canbus

import (
	"encoding/binary"
	"fmt"
	"math"

	"go.einride.tech/can"

	"github.com/uavlab/it2flc/internal/controller"
)

// Frame IDs on the vehicle bus.
const (
	FrameOdometryPose     uint32 = 0x100 // x, y, z [m], yaw [rad]
	FrameOdometryVelocity uint32 = 0x101 // vx, vy, vz [m/s], yaw rate [rad/s]; commits the odometry pair
	FrameTrajectoryPose   uint32 = 0x110
	FrameTrajectoryVel    uint32 = 0x111
	FrameGainsPrimary     uint32 = 0x120 // k_p, k_d, k_a, k_b
	FrameGainsAlpha       uint32 = 0x121 // alpha1, alpha2; commits the gain pair
	FrameCommand          uint32 = 0x200 // vx, vy, vz [m/s], yaw term
)

// Signal scale factors (physical value per raw count).
const (
	poseFactor  = 0.002  // +-65.5 m, 0.002 rad yaw resolution
	velFactor   = 0.001  // +-32.7 m/s
	gainFactor  = 0.001  // +-32.7
	alphaFactor = 0.0001 // [0, 1] with headroom
)

func packSignal(data []byte, v, factor float64) {
	raw := math.Round(v / factor)
	if raw > math.MaxInt16 {
		raw = math.MaxInt16
	} else if raw < math.MinInt16 {
		raw = math.MinInt16
	}
	binary.LittleEndian.PutUint16(data, uint16(int16(raw)))
}

func unpackSignal(data []byte, factor float64) float64 {
	raw := int16(binary.LittleEndian.Uint16(data))
	return float64(raw) * factor
}

// EncodeVec packs a 4-vector into one frame with the given ID and factor.
func EncodeVec(id uint32, v controller.Vec4, factor float64) can.Frame {
	var f can.Frame
	f.ID = id
	f.Length = 8
	for i, val := range v {
		packSignal(f.Data[2*i:2*i+2], val, factor)
	}
	return f
}

// DecodeVec unpacks a 4-vector from a frame.
func DecodeVec(f can.Frame, factor float64) (controller.Vec4, error) {
	if f.Length < 8 {
		return controller.Vec4{}, fmt.Errorf("canbus: frame 0x%X has length %d, expected 8", f.ID, f.Length)
	}
	var v controller.Vec4
	for i := range v {
		v[i] = unpackSignal(f.Data[2*i:2*i+2], factor)
	}
	return v, nil
}

// EncodeCommand packs a command vector for the actuator bus.
func EncodeCommand(cmd controller.Vec4) can.Frame {
	return EncodeVec(FrameCommand, cmd, velFactor)
}

// DecodeCommand unpacks a command frame.
func DecodeCommand(f can.Frame) (controller.Vec4, error) {
	return DecodeVec(f, velFactor)
}

// EncodeGains packs a gain set into its two frames.
func EncodeGains(g controller.GainSet) (primary, alpha can.Frame) {
	primary = EncodeVec(FrameGainsPrimary, controller.Vec4{g.KP, g.KD, g.KA, g.KB}, gainFactor)
	alpha = EncodeVec(FrameGainsAlpha, controller.Vec4{g.Alpha1, g.Alpha2}, alphaFactor)
	return primary, alpha
}
