//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrEDIDNotSupported is returned when the driver has no EDID support on the pad.
var ErrEDIDNotSupported = errors.New("v4l2: EDID not supported")

// GetEDID reads the EDID currently advertised on the given pad. The driver is
// asked for the block count first, then for the whole EDID in one call.
func GetEDID(devicePath string, pad uint32) ([]byte, error) {
	fd, err := open(devicePath)
	if err != nil {
		return nil, err
	}
	defer closeFd(fd)

	req := edidRequest{pad: pad}
	if err := ioctl(fd, vidiocGEDID, unsafe.Pointer(&req)); err != nil {
		return nil, edidErr("G_EDID", err)
	}
	if req.blocks == 0 {
		return []byte{}, nil
	}
	if req.blocks > maxEDIDBlocks {
		return nil, fmt.Errorf("v4l2: driver reports %d EDID blocks", req.blocks)
	}

	buf := make([]byte, int(req.blocks)*edidBlockSize)
	req = edidRequest{
		pad:    pad,
		blocks: uint32(len(buf) / edidBlockSize),
		edid:   unsafe.Pointer(&buf[0]),
	}
	err = ioctl(fd, vidiocGEDID, unsafe.Pointer(&req))
	runtime.KeepAlive(buf)
	if err != nil {
		return nil, edidErr("G_EDID", err)
	}

	return buf[:int(req.blocks)*edidBlockSize], nil
}

// SetEDID programs the EDID advertised on the given pad. The length must be a
// whole number of 128-byte blocks; an empty EDID clears it and pulls hotplug low.
func SetEDID(devicePath string, pad uint32, edid []byte) error {
	if err := ValidateEDIDLength(len(edid)); err != nil {
		return err
	}

	fd, err := open(devicePath)
	if err != nil {
		return err
	}
	defer closeFd(fd)

	req := edidRequest{pad: pad, blocks: uint32(len(edid) / edidBlockSize)}
	if len(edid) > 0 {
		req.edid = unsafe.Pointer(&edid[0])
	}
	err = ioctl(fd, vidiocSEDID, unsafe.Pointer(&req))
	runtime.KeepAlive(edid)
	if err != nil {
		return edidErr("S_EDID", err)
	}
	return nil
}

// ValidateEDIDLength checks that n bytes form a valid V4L2 EDID payload.
func ValidateEDIDLength(n int) error {
	if n%edidBlockSize != 0 {
		return fmt.Errorf("v4l2: EDID length %d is not a multiple of %d", n, edidBlockSize)
	}
	if n/edidBlockSize > maxEDIDBlocks {
		return fmt.Errorf("v4l2: EDID of %d blocks exceeds %d", n/edidBlockSize, maxEDIDBlocks)
	}
	return nil
}

func edidErr(op string, err error) error {
	if errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EINVAL) {
		return fmt.Errorf("%s: %w", op, ErrEDIDNotSupported)
	}
	return fmt.Errorf("%s: %w", op, err)
}
