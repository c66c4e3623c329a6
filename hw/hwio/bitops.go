package hwio

// GetBit8 reports whether bit n of v is set.
func GetBit8(v uint8, n uint) bool {
	return GetBiti8(v, n) != 0
}

func GetBiti8(v uint8, n uint) uint8 {
	return v >> n & 0x01
}

func SetBit8(v *uint8, n uint) {
	*v |= 1 << n
}

func ClearBit8(v *uint8, n uint) {
	*v &^= 1 << n
}

// Bits8 extracts the width-bit field of v starting at bit lo.
func Bits8(v uint8, lo, width uint) uint8 {
	return v >> lo & (1<<width - 1)
}

// SetBits8 replaces the width-bit field of v starting at bit lo.
func SetBits8(v uint8, lo, width uint, field uint8) uint8 {
	mask := uint8(1<<width-1) << lo
	return v&^mask | field<<lo&mask
}

func GetBit16(v uint16, n uint) bool {
	return v>>n&0x01 != 0
}

// Lo8 and Hi8 split a register pair (low byte first, as the chips latch it).
func Lo8(v uint16) uint8 { return uint8(v) }
func Hi8(v uint16) uint8 { return uint8(v >> 8) }
