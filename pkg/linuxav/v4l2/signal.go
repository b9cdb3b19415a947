//go:build linux

package v4l2

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrEventsNotSupported is returned when the device doesn't support V4L2 events.
var ErrEventsNotSupported = unix.ENOTSUP

// IsReceiver reports whether the device answers DV timing queries. HDMI
// receivers do so even without a cable, reporting ENOLINK or ENOLCK.
func IsReceiver(devicePath string) bool {
	fd, err := open(devicePath)
	if err != nil {
		return false
	}
	defer closeFd(fd)

	timings := dvTimings{}
	err = ioctl(fd, vidiocGDVTimings, unsafe.Pointer(&timings))
	return err == nil || errors.Is(err, unix.ENOLINK) || errors.Is(err, unix.ENOLCK)
}

// GetDVTimings returns the current DV timings and signal status for HDMI devices.
func GetDVTimings(devicePath string) SignalStatus {
	status := SignalStatus{State: SignalStateNoDevice}

	fd, err := open(devicePath)
	if err != nil {
		return status
	}
	defer closeFd(fd)

	timings := dvTimings{}
	if err := ioctl(fd, vidiocGDVTimings, unsafe.Pointer(&timings)); err != nil {
		status.State = stateFromErrno(err)
		return status
	}

	return statusFromTimings(&timings.bt)
}

// WaitForSourceChange waits for a source change event with timeout.
// Returns the change flags on success, 0 on timeout, or an error.
func WaitForSourceChange(devicePath string, timeoutMs int) (int, error) {
	fd, err := open(devicePath)
	if err != nil {
		return 0, err
	}
	defer closeFd(fd)

	sub := eventSubscription{typ: eventSourceChange}
	if subErr := ioctl(fd, vidiocSubscribeEvent, unsafe.Pointer(&sub)); subErr != nil {
		if errors.Is(subErr, unix.ENOTTY) || errors.Is(subErr, unix.EINVAL) {
			return 0, ErrEventsNotSupported
		}
		return 0, subErr
	}
	defer func() { _ = ioctl(fd, vidiocUnsubscribeEvent, unsafe.Pointer(&sub)) }()

	// V4L2 events are signalled as priority data.
	timeout := -1
	if timeoutMs > 0 {
		timeout = timeoutMs
	}
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLPRI}}
	n, err := unix.Poll(fds, timeout)
	if err != nil {
		return 0, err
	}
	if n == 0 || fds[0].Revents&unix.POLLPRI == 0 {
		return 0, nil
	}

	ev := event{}
	if err := ioctl(fd, vidiocDqevent, unsafe.Pointer(&ev)); err != nil {
		return 0, err
	}

	return int(ev.srcChangeChanges()), nil
}

// stateFromErrno maps a VIDIOC_G_DV_TIMINGS failure to a signal state.
func stateFromErrno(err error) SignalState {
	switch {
	case errors.Is(err, unix.ENOLINK):
		return SignalStateNoLink
	case errors.Is(err, unix.ENOLCK):
		return SignalStateUnstable
	case errors.Is(err, unix.ERANGE):
		return SignalStateOutOfRange
	case errors.Is(err, unix.ENOTTY):
		return SignalStateNotSupported
	default:
		return SignalStateNoSignal
	}
}

func statusFromTimings(bt *btTimings) SignalStatus {
	if !bt.valid() {
		return SignalStatus{State: SignalStateNoSignal}
	}
	return SignalStatus{
		State:      SignalStateLocked,
		Width:      bt.width,
		Height:     bt.height,
		FPS:        calculateFPS(bt),
		Interlaced: bt.interlaced != 0,
	}
}

func (bt *btTimings) valid() bool {
	return bt.width > 0 && bt.height > 0 && bt.pixelClock() > 0
}

// calculateFPS calculates the frame rate from DV timings.
func calculateFPS(bt *btTimings) float64 {
	clock := bt.pixelClock()
	if clock == 0 {
		return 0
	}

	totalWidth := uint64(bt.width + bt.hfrontporch + bt.hsync + bt.hbackporch)
	totalHeight := uint64(bt.height + bt.vfrontporch + bt.vsync + bt.vbackporch)

	if bt.interlaced != 0 {
		totalHeight /= 2
	}

	if totalWidth == 0 || totalHeight == 0 {
		return 0
	}

	return float64(clock) / float64(totalWidth*totalHeight)
}
