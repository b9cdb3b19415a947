//go:build linux

package v4l2hal

import "github.com/smazurov/hdmiinput/pkg/linuxav/v4l2"

// device is the slice of the V4L2 bindings the backend uses.
type device interface {
	FindHDMIDevices() ([]v4l2.DeviceInfo, error)
	GetDVTimings(path string) v4l2.SignalStatus
	GetEDID(path string, pad uint32) ([]byte, error)
	SetEDID(path string, pad uint32, edid []byte) error
	WaitForSourceChange(path string, timeoutMs int) (int, error)
}

type kernel struct{}

func (kernel) FindHDMIDevices() ([]v4l2.DeviceInfo, error) { return v4l2.FindHDMIDevices() }

func (kernel) GetDVTimings(path string) v4l2.SignalStatus { return v4l2.GetDVTimings(path) }

func (kernel) GetEDID(path string, pad uint32) ([]byte, error) { return v4l2.GetEDID(path, pad) }

func (kernel) SetEDID(path string, pad uint32, edid []byte) error {
	return v4l2.SetEDID(path, pad, edid)
}

func (kernel) WaitForSourceChange(path string, timeoutMs int) (int, error) {
	return v4l2.WaitForSourceChange(path, timeoutMs)
}
