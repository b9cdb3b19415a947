//go:build linux

package v4l2

// DeviceInfo contains information about a V4L2 capture device.
type DeviceInfo struct {
	DevicePath string
	DeviceName string
	DeviceID   string // Stable identifier (from /dev/v4l/by-id/ or synthetic)
	Caps       uint32
}

// SignalState represents the state of a video signal.
type SignalState int

// Signal states.
const (
	SignalStateNoDevice     SignalState = -1
	SignalStateNoLink       SignalState = 0 // No cable connected
	SignalStateNoSignal     SignalState = 1 // Cable connected, no signal
	SignalStateUnstable     SignalState = 2 // Signal present but unstable
	SignalStateLocked       SignalState = 3 // Signal locked and stable
	SignalStateOutOfRange   SignalState = 4 // Signal out of supported range
	SignalStateNotSupported SignalState = 5 // Device doesn't support DV timings
)

// SignalStatus contains detailed signal information.
type SignalStatus struct {
	State      SignalState
	Width      uint32
	Height     uint32
	FPS        float64
	Interlaced bool
}

// Capability flags.
const (
	capVideoCapture = 0x00000001
	capDeviceCaps   = 0x80000000
)

const eventSourceChange = 5

// SourceChangeResolution is set in the WaitForSourceChange result when the
// incoming resolution changed.
const SourceChangeResolution = 0x0001

// edidBlockSize is the size of one EDID block in bytes.
const edidBlockSize = 128

// maxEDIDBlocks bounds the EDID buffer; 256 blocks is the V4L2 limit.
const maxEDIDBlocks = 256
