package sim

// DefaultEDID builds a 128-byte EDID 1.3 base block for a monitor named name
// (up to 13 characters) from manufacturer "SIM".
func DefaultEDID(name string) []byte {
	edid := make([]byte, 128)
	copy(edid[0:8], []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00})

	// Manufacturer ID: three 5-bit letters, 'A' = 1.
	id := uint16('S'-'@')<<10 | uint16('I'-'@')<<5 | uint16('M'-'@')
	edid[8], edid[9] = byte(id>>8), byte(id)
	edid[10], edid[11] = 0x01, 0x00 // product code
	edid[16], edid[17] = 1, 34      // week 1 of 2024
	edid[18], edid[19] = 1, 3       // EDID 1.3
	edid[20] = 0x80                 // digital input

	// Display descriptor 0xFC: monitor name, newline terminated, space padded.
	desc := edid[54:72]
	desc[3] = 0xfc
	text := desc[5:]
	for i := range text {
		text[i] = ' '
	}
	n := copy(text, name)
	if n < len(text) {
		text[n] = '\n'
	}

	// Remaining descriptors are dummy (type 0x10).
	for _, off := range []int{72, 90, 108} {
		edid[off+3] = 0x10
	}

	var sum byte
	for _, b := range edid[:127] {
		sum += b
	}
	edid[127] = -sum
	return edid
}
