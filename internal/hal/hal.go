// Package hal defines the HDMI input hardware abstraction the service talks
// to. Backends (simulated, V4L2, remote vendor daemon) live in sub-packages
// and are selected with backend.Open.
package hal

import "context"

// StopPort passed to SelectPort stops presentation of every port.
const StopPort = -1

// HdmiInput is the platform HDMI receiver. Ports are numbered from 0.
type HdmiInput interface {
	NumberOfInputs(ctx context.Context) (int, error)
	IsPortConnected(ctx context.Context, port int) (bool, error)
	// SelectPort starts presenting port, or stops presentation for StopPort.
	SelectPort(ctx context.Context, port int) error
	ScaleVideo(ctx context.Context, x, y, width, height int) error

	EDIDBytes(ctx context.Context, port int) ([]byte, error)
	WriteEDID(ctx context.Context, port int, edid []byte) error
	// SPDInfo returns the raw Source Product Description infoframe.
	SPDInfo(ctx context.Context, port int) ([]byte, error)

	SetEdidVersion(ctx context.Context, port int, version EdidVersion) error
	EdidVersion(ctx context.Context, port int) (EdidVersion, error)

	SupportedGameFeatures(ctx context.Context) ([]string, error)
	ALLMStatus(ctx context.Context, port int) (bool, error)

	Close() error
}

// EventSink receives platform events raised by a backend. The platform bus
// publisher implements it.
type EventSink interface {
	Hotplug(ctx context.Context, port int, connected bool) error
	SignalChanged(ctx context.Context, port int, status SignalStatus) error
	StatusChanged(ctx context.Context, port int, presented bool) error
	VideoModeChanged(ctx context.Context, port int, mode VideoResolution) error
	ALLMChanged(ctx context.Context, port int, enabled bool) error
}

// GameFeatureALLM is the only game feature the platform reports.
const GameFeatureALLM = "ALLM"
