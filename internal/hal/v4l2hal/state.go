//go:build linux

package v4l2hal

import (
	"github.com/smazurov/hdmiinput/internal/hal"
	"github.com/smazurov/hdmiinput/pkg/linuxav/v4l2"
)

// unknownResolution marks a frame size outside the platform enumeration.
const unknownResolution hal.PixelResolution = -1

// portState is the last observed state of one device.
type portState struct {
	port      int
	connected bool
	signal    hal.SignalStatus
	mode      hal.VideoResolution
}

func connected(s v4l2.SignalState) bool {
	return s != v4l2.SignalStateNoLink && s != v4l2.SignalStateNoDevice
}

func signalStatus(s v4l2.SignalState) hal.SignalStatus {
	switch s {
	case v4l2.SignalStateNoLink, v4l2.SignalStateNoSignal:
		return hal.SignalNoSignal
	case v4l2.SignalStateUnstable:
		return hal.SignalUnstable
	case v4l2.SignalStateLocked:
		return hal.SignalStable
	case v4l2.SignalStateOutOfRange:
		return hal.SignalNotSupported
	default:
		return hal.SignalNone
	}
}

func videoMode(s v4l2.SignalStatus) hal.VideoResolution {
	res, ok := hal.ResolutionFromSize(int(s.Width), int(s.Height))
	if !ok {
		res = unknownResolution
	}
	return hal.VideoResolution{
		PixelResolution: res,
		Interlaced:      s.Interlaced,
		FrameRate:       hal.FrameRateFromFPS(s.FPS),
	}
}

func stateOf(port int, s v4l2.SignalStatus) portState {
	st := portState{
		port:      port,
		connected: connected(s.State),
		signal:    signalStatus(s.State),
	}
	if st.signal == hal.SignalStable {
		st.mode = videoMode(s)
	}
	return st
}
