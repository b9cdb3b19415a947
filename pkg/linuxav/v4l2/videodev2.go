//go:build linux

package v4l2

import "encoding/binary"

// capability mirrors struct v4l2_capability.
type capability struct {
	driver       [16]byte
	card         [32]byte
	busInfo      [32]byte
	version      uint32
	capabilities uint32
	deviceCaps   uint32
	reserved     [3]uint32
}

// btTimings mirrors the packed struct v4l2_bt_timings. The kernel places the
// 64-bit pixel clock at offset 16 inside a packed union that itself starts at
// offset 4, so it is kept as raw bytes to stop Go from realigning it.
type btTimings struct {
	width         uint32
	height        uint32
	interlaced    uint32
	polarities    uint32
	pixelclock    [8]byte
	hfrontporch   uint32
	hsync         uint32
	hbackporch    uint32
	vfrontporch   uint32
	vsync         uint32
	vbackporch    uint32
	ilVfrontporch uint32
	ilVsync       uint32
	ilVbackporch  uint32
	standards     uint32
	flags         uint32
	pictureAspect [2]uint32
	cea861Vic     uint8
	hdmiVic       uint8
	reserved      [46]byte
}

func (bt *btTimings) pixelClock() uint64 {
	return binary.LittleEndian.Uint64(bt.pixelclock[:])
}

func (bt *btTimings) setPixelClock(hz uint64) {
	binary.LittleEndian.PutUint64(bt.pixelclock[:], hz)
}

// dvTimings mirrors struct v4l2_dv_timings (type + 128-byte union).
type dvTimings struct {
	typ uint32
	bt  btTimings
	_   [4]byte
}

// eventSubscription mirrors struct v4l2_event_subscription.
type eventSubscription struct {
	typ      uint32
	id       uint32
	flags    uint32
	reserved [5]uint32
}

// srcChangeChanges extracts src_change.changes from the event union.
func (e *event) srcChangeChanges() uint32 {
	return binary.LittleEndian.Uint32(e.u[:4])
}
