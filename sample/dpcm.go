package sample

// DPCM start level, the middle of the 7-bit output range.
const DPCMStart = 64

// EncodeDPCM encodes signed 8-bit PCM to the 2A03 delta modulation format:
// one bit per sample, LSB first, a set bit raising the 7-bit output by 2. The
// result is padded to a length of 16n+1 bytes, as the DMC requires.
func EncodeDPCM(data []int8) []byte {
	nbytes := (len(data) + 7) / 8
	if rem := nbytes % 16; rem != 1 {
		nbytes += (17 - rem) % 16
	}
	out := make([]byte, nbytes)

	level := DPCMStart
	for i, s := range data {
		target := (int(s) + 128) >> 1
		if target > level {
			out[i/8] |= 1 << (i % 8)
			if level <= 125 {
				level += 2
			}
		} else if level >= 2 {
			level -= 2
		}
	}

	// Padding alternates up and down to stay around the last level.
	for i := len(data); i < nbytes*8; i++ {
		if i%2 == 0 {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

// DecodeDPCM returns the output levels (0-127) the DMC produces when playing
// enc from the given start level.
func DecodeDPCM(enc []byte, start int) []uint8 {
	out := make([]uint8, 0, len(enc)*8)
	level := start
	for _, b := range enc {
		for bit := range 8 {
			if b&(1<<bit) != 0 {
				if level <= 125 {
					level += 2
				}
			} else if level >= 2 {
				level -= 2
			}
			out = append(out, uint8(level))
		}
	}
	return out
}
