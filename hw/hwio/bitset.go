package hwio

import "fmt"

const (
	NumBits  = 0x200              // largest register pool we track
	wordSize = 64                 // using 64-bit words
	numWords = NumBits / wordSize // 8 words
)

// Bitset is a set of register addresses. Zero value is an empty set.
type Bitset struct {
	words [numWords]uint64
}

// Set sets the bit at index i.
func (b *Bitset) Set(i uint) {
	b.words[i/wordSize] |= 1 << (i % wordSize)
}

// Clear clears the bit at index i.
func (b *Bitset) Clear(i uint) {
	b.words[i/wordSize] &^= 1 << (i % wordSize)
}

// Test returns true if the bit at index i is set.
func (b *Bitset) Test(i uint) bool {
	return (b.words[i/wordSize] & (1 << (i % wordSize))) != 0
}

// SetRange sets all bits in the half-open interval [start, end).
// It panics if start >= end or end > NumBits.
func (b *Bitset) SetRange(start, end uint) {
	if start >= end || end > NumBits {
		panic(fmt.Sprintf("invalid range [%d, %d)", start, end))
	}
	for i := start; i < end; i++ {
		b.Set(i)
	}
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	n := 0
	for _, w := range b.words {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}

// Each calls fn for every set bit, in increasing order.
func (b *Bitset) Each(fn func(i uint)) {
	for wi, w := range b.words {
		for bit := uint(0); w != 0; bit++ {
			if w&1 != 0 {
				fn(uint(wi)*wordSize + bit)
			}
			w >>= 1
		}
	}
}

// Reset clears all bits in the Bitset.
func (b *Bitset) Reset() {
	clear(b.words[:])
}

// SetAll sets all bits in the Bitset.
func (b *Bitset) SetAll() {
	for i := range b.words {
		b.words[i] = ^uint64(0)
	}
}
