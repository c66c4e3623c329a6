package dispatch

import (
	"slices"
	"sync/atomic"

	"github.com/1135975331/furnace/emu/log"
	"github.com/1135975331/furnace/hw/hwio"
)

// Base implements the parts of Dispatcher common to every chip. Chips embed
// it and call Setup from Init.
type Base struct {
	Mod    log.Module
	parent Engine

	queue   WriteQueue
	pool    []byte
	touched hwio.Bitset
	shadow  []int16 // last queued value per address, -1 if unknown

	osc     []*OscBuffer
	muted   []atomic.Bool
	capture func(RegWrite)

	chans  int
	rate   int
	volMax int
}

// Setup (re)initializes b. It must be called before any other method.
func (b *Base) Setup(mod log.Module, parent Engine, chans, rate, poolSize, volMax int) {
	b.Mod = mod
	b.parent = parent
	b.chans = chans
	b.rate = rate
	b.volMax = volMax
	b.pool = make([]byte, poolSize)
	b.shadow = make([]int16, poolSize)
	b.muted = make([]atomic.Bool, chans)
	b.osc = make([]*OscBuffer, chans)
	for i := range b.osc {
		b.osc[i] = new(OscBuffer)
		b.osc[i].SetRate(rate)
	}
	b.ResetBase()
}

// ResetBase clears the queue, register pool and oscilloscope buffers. Mute
// flags are kept.
func (b *Base) ResetBase() {
	b.queue.Clear()
	clear(b.pool)
	b.touched.Reset()
	b.ForgetWrites()
	for _, o := range b.osc {
		o.Reset()
	}
}

// Instrument returns instrument i from the engine, or nil.
func (b *Base) Instrument(i int) *Instrument {
	if b.parent == nil {
		return nil
	}
	return b.parent.Instrument(i)
}

// Sample returns sample i from the engine, or nil.
func (b *Base) Sample(i int) *Sample {
	if b.parent == nil {
		return nil
	}
	return b.parent.Sample(i)
}

// Parent returns the engine.
func (b *Base) Parent() Engine { return b.parent }

// VolMax returns the maximum channel volume.
func (b *Base) VolMax() int { return b.volMax }

// Write queues a register write.
func (b *Base) Write(addr uint16, val uint8) {
	if !b.queue.Push(RegWrite{Addr: addr, Val: val}) {
		return
	}
	if int(addr) < len(b.shadow) {
		b.shadow[addr] = int16(val)
	}
}

// WriteIfChanged queues a register write unless the last value queued for
// addr is val.
func (b *Base) WriteIfChanged(addr uint16, val uint8) {
	if int(addr) < len(b.shadow) && b.shadow[addr] == int16(val) {
		return
	}
	b.Write(addr, val)
}

// ForgetWrites makes the next WriteIfChanged of every address go through.
func (b *Base) ForgetWrites() {
	for i := range b.shadow {
		b.shadow[i] = -1
	}
}

// Drain pops every queued write, records it in the register pool and passes
// it to apply. Called from Acquire.
func (b *Base) Drain(apply func(addr uint16, val uint8)) {
	for {
		w, ok := b.queue.Pop()
		if !ok {
			return
		}
		if int(w.Addr) < len(b.pool) {
			b.pool[w.Addr] = w.Val
			b.touched.Set(uint(w.Addr))
		}
		if b.capture != nil {
			b.capture(w)
		}
		apply(w.Addr, w.Val)
	}
}

// Reg returns the register pool value of addr. Only the audio goroutine may
// call it while audio is running.
func (b *Base) Reg(addr uint16) uint8 {
	if int(addr) < len(b.pool) {
		return b.pool[addr]
	}
	return 0
}

// Pending returns the number of queued writes.
func (b *Base) Pending() int { return b.queue.Len() }

// Dropped returns the number of writes dropped because the queue was full.
func (b *Base) Dropped() uint64 { return b.queue.Dropped() }

// PoolWrites returns, in address order, the pool value of every address
// written since the last reset.
func (b *Base) PoolWrites() []RegWrite {
	var ws []RegWrite
	b.touched.Each(func(i uint) {
		if int(i) < len(b.pool) {
			ws = append(ws, RegWrite{Addr: uint16(i), Val: b.pool[i]})
		}
	})
	return ws
}

// Muted reports whether channel ch is muted.
func (b *Base) Muted(ch int) bool {
	return ch >= 0 && ch < len(b.muted) && b.muted[ch].Load()
}

// Osc pushes a sample to the oscilloscope buffer of channel ch.
func (b *Base) Osc(ch int, s int16) {
	b.osc[ch].Push(s)
}

func (b *Base) RegisterPool() []byte      { return slices.Clone(b.pool) }
func (b *Base) RegisterPoolSize() int     { return len(b.pool) }
func (b *Base) Channels() int             { return b.chans }
func (b *Base) Rate() int                 { return b.rate }
func (b *Base) IsStereo() bool            { return false }
func (b *Base) Quit()                     {}
func (b *Base) ForceIns()                 { b.ForgetWrites() }
func (b *Base) KeyOffAffectsArp(int) bool { return false }
func (b *Base) SamplePos(int) (int, int)  { return -1, 0 }

func (b *Base) NotifyInsDeletion(*Instrument) {}

// DropInstrument clears the instrument reference of c if it points at ins,
// directly or through the running macros. Active is left alone.
func (b *Base) DropInstrument(c *Channel, ins *Instrument) {
	if ins == nil {
		return
	}
	if (c.Ins >= 0 && b.Instrument(c.Ins) == ins) || c.Std.Uses(&ins.Macros) {
		c.Ins = -1
		c.Std.Init(nil)
	}
}

func (b *Base) MuteChannel(ch int, mute bool) {
	if ch < 0 || ch >= len(b.muted) {
		return
	}
	b.muted[ch].Store(mute)
	b.Mod.DebugZ("mute").Int("chan", ch).Bool("mute", mute).End()
}

func (b *Base) OscBuffer(ch int) *OscBuffer {
	if ch < 0 || ch >= len(b.osc) {
		return nil
	}
	return b.osc[ch]
}

func (b *Base) Poke(addr uint16, val uint8) {
	b.Write(addr, val)
}

func (b *Base) PokeList(ws []RegWrite) {
	for _, w := range ws {
		b.Write(w.Addr, w.Val)
	}
}

func (b *Base) CaptureWrites(fn func(RegWrite)) {
	b.capture = fn
}

// GetPan returns the channel panning, left in the high byte. Mono chips are
// centered.
func (b *Base) GetPan(int) uint16 {
	return 0xffff
}

// MapVelocity maps a linear velocity in [0, 1] to a channel volume.
func (b *Base) MapVelocity(_ int, vel float64) int {
	vel = min(max(vel, 0), 1)
	return int(vel*float64(b.volMax) + 0.5)
}
