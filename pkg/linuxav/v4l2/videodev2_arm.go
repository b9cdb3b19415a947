//go:build linux && arm

package v4l2

import "unsafe"

// Struct sizes must match the kernel ABI or the ioctls below corrupt memory.
var (
	_ [104]byte = [unsafe.Sizeof(capability{})]byte{}
	_ [124]byte = [unsafe.Sizeof(btTimings{})]byte{}
	_ [132]byte = [unsafe.Sizeof(dvTimings{})]byte{}
	_ [32]byte  = [unsafe.Sizeof(eventSubscription{})]byte{}
	_ [124]byte = [unsafe.Sizeof(event{})]byte{}
	_ [36]byte  = [unsafe.Sizeof(edidRequest{})]byte{}
)

// IOCTL request numbers for 32-bit ARM. Only v4l2_event and v4l2_edid differ
// in size from the 64-bit layout.
const (
	vidiocQuerycap         = 0x80685600
	vidiocGDVTimings       = 0xc0845658
	vidiocSubscribeEvent   = 0x4020565a
	vidiocUnsubscribeEvent = 0x4020565b
	vidiocDqevent          = 0x807c5659
	vidiocGEDID            = 0xc0245628
	vidiocSEDID            = 0xc0245629
)

// event mirrors struct v4l2_event with the 8-byte 32-bit timespec.
type event struct {
	typ       uint32
	_         [4]byte
	u         [64]byte
	pending   uint32
	sequence  uint32
	timestamp [8]byte
	id        uint32
	reserved  [8]uint32
}

// edidRequest mirrors struct v4l2_edid.
type edidRequest struct {
	pad        uint32
	startBlock uint32
	blocks     uint32
	reserved   [5]uint32
	edid       unsafe.Pointer
}
