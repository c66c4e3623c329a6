package nes

import (
	"math"

	"github.com/1135975331/furnace/dispatch"
	"github.com/1135975331/furnace/hw/apu"
	"github.com/1135975331/furnace/sample"
)

const (
	dpcmBase     = 0xc000
	dpcmSize     = 0x4000
	dpcmAlign    = 64
	dpcmMaxLen   = 0xff*16 + 1
	maxDPCMCount = 256
)

type dpcmEntry struct {
	off  int // from $C000
	len  int // in bytes, 16n+1
	rate int // sample rate of the source
	loop bool
}

// rateIndex returns the DMC rate closest to the source rate scaled by ratio.
func (e dpcmEntry) rateIndex(clock, ratio float64) int {
	want := float64(e.rate) * ratio
	best, bestDist := 0, math.Inf(1)
	for i, p := range apu.DMCPeriods {
		dist := math.Abs(math.Log2(clock / float64(p) / want))
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// regs returns the DMC start address and length register values, starting
// skip bytes into the sample.
func (e dpcmEntry) regs(skip int) (start, length uint8) {
	skip = min(skip/dpcmAlign*dpcmAlign, (e.len-1)/dpcmAlign*dpcmAlign)
	start = uint8((e.off + skip) / dpcmAlign)
	length = uint8((e.len - skip - 1) / 16)
	return start, length
}

// dpcmBank is the memory the DMC reads samples from, at $C000-$FFFF.
type dpcmBank struct {
	mem     [dpcmSize]byte
	entries []dpcmEntry
	valid   []bool
}

func (b *dpcmBank) Read8(addr uint16) uint8 {
	if addr < dpcmBase {
		return 0
	}
	return b.mem[addr-dpcmBase]
}

func (b *dpcmBank) entry(i int) (dpcmEntry, bool) {
	if i < 0 || i >= len(b.entries) || !b.valid[i] {
		return dpcmEntry{}, false
	}
	return b.entries[i], true
}

// render encodes every engine sample into the bank, until it is full.
func (b *dpcmBank) render(eng dispatch.Engine) {
	clear(b.mem[:])
	b.entries = b.entries[:0]
	b.valid = b.valid[:0]
	if eng == nil {
		return
	}

	off := 0
	for i := range maxDPCMCount {
		s := eng.Sample(i)
		if s == nil {
			break
		}
		enc := sample.EncodeDPCM(s.Data)
		if len(enc) > dpcmMaxLen {
			enc = enc[:dpcmMaxLen]
		}
		ok := off+len(enc) <= dpcmSize
		if ok {
			copy(b.mem[off:], enc)
		} else {
			modNES.WarnZ("DPCM bank full, sample dropped").
				String("name", s.Name).
				Int("sample", i).
				End()
		}
		b.entries = append(b.entries, dpcmEntry{off: off, len: len(enc), rate: s.Rate, loop: s.Loop >= 0})
		b.valid = append(b.valid, ok)
		if ok {
			off += (len(enc) + dpcmAlign - 1) / dpcmAlign * dpcmAlign
		}
	}
	modNES.DebugZ("DPCM bank rendered").Int("samples", len(b.entries)).Int("bytes", off).End()
}
