package hal

import "bytes"

// SPDInfoFrameSize is the length of the Source Product Description infoframe
// as returned by SPDInfo.
const SPDInfoFrameSize = 30

// SPDInfoFrame is a decoded Source Product Description infoframe.
type SPDInfoFrame struct {
	PacketType  uint8
	Version     uint8
	Length      uint8
	Reserved    uint8
	Checksum    uint8
	VendorName  string
	ProductDesc string
	SourceInfo  uint8
}

// ParseSPD decodes the infoframe layout
//
//	pkttype, version, length, reserved, checksum,
//	vendor_name[8], product_des[16], source_info
//
// Buffers shorter than SPDInfoFrameSize are zero filled. Names end at the
// first NUL.
func ParseSPD(raw []byte) SPDInfoFrame {
	var buf [SPDInfoFrameSize]byte
	copy(buf[:], raw)

	return SPDInfoFrame{
		PacketType:  buf[0],
		Version:     buf[1],
		Length:      buf[2],
		Reserved:    buf[3],
		Checksum:    buf[4],
		VendorName:  cString(buf[5:13]),
		ProductDesc: cString(buf[13:29]),
		SourceInfo:  buf[29],
	}
}

// Bytes encodes f back to the 30-byte layout. Names are truncated to fit.
func (f SPDInfoFrame) Bytes() []byte {
	buf := make([]byte, SPDInfoFrameSize)
	buf[0] = f.PacketType
	buf[1] = f.Version
	buf[2] = f.Length
	buf[3] = f.Reserved
	buf[4] = f.Checksum
	copy(buf[5:13], f.VendorName)
	copy(buf[13:29], f.ProductDesc)
	buf[29] = f.SourceInfo
	return buf
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
