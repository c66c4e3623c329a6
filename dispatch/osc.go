package dispatch

import "sync/atomic"

// OscBufferSize is the number of samples an OscBuffer keeps.
const OscBufferSize = 65536

// OscBuffer is a per-channel ring of recent output samples, written by the
// audio goroutine and read by any other. Readers may see partially updated
// data; only the needle is synchronized.
type OscBuffer struct {
	data   [OscBufferSize]int16
	needle atomic.Uint32
	rate   atomic.Int32
}

// Push appends a sample.
func (o *OscBuffer) Push(s int16) {
	n := o.needle.Load()
	o.data[n%OscBufferSize] = s
	o.needle.Store(n + 1)
}

// Needle returns the total number of samples pushed, modulo 2^32.
func (o *OscBuffer) Needle() uint32 {
	return o.needle.Load()
}

// Latest copies the most recent len(dst) samples into dst, oldest first, and
// returns dst.
func (o *OscBuffer) Latest(dst []int16) []int16 {
	n := o.needle.Load()
	if len(dst) > OscBufferSize {
		dst = dst[:OscBufferSize]
	}
	start := n - uint32(len(dst))
	for i := range dst {
		dst[i] = o.data[(start+uint32(i))%OscBufferSize]
	}
	return dst
}

// Rate returns the sample rate of the buffer.
func (o *OscBuffer) Rate() int {
	return int(o.rate.Load())
}

// SetRate sets the sample rate of the buffer.
func (o *OscBuffer) SetRate(rate int) {
	o.rate.Store(int32(rate))
}

// Reset zeroes the buffer. The audio goroutine must not be running.
func (o *OscBuffer) Reset() {
	clear(o.data[:])
	o.needle.Store(0)
}
