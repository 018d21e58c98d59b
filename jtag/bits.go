package jtag

// SetBits stores the low width bits of value into buf, starting at bit
// position start. Bit positions are LSB first across the buffer.
func SetBits(buf []byte, start, width uint, value uint64) {
	for i := uint(0); i < width; i++ {
		pos := start + i
		if value&(1<<i) != 0 {
			buf[pos/8] |= 1 << (pos % 8)
		} else {
			buf[pos/8] &^= 1 << (pos % 8)
		}
	}
}

// GetBits extracts width bits from buf starting at bit position start and
// returns them right-aligned.
func GetBits(buf []byte, start, width uint) uint64 {
	var value uint64

	for i := uint(0); i < width; i++ {
		pos := start + i
		if buf[pos/8]&(1<<(pos%8)) != 0 {
			value |= 1 << i
		}
	}

	return value
}
