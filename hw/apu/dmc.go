package apu

import (
	"github.com/1135975331/furnace/emu/log"
	"github.com/1135975331/furnace/hw/hwio"
	"github.com/1135975331/furnace/hw/snapshot"
)

// The DMC (Delta Modulation Channel) can output samples composed of 1-bit
// deltas and its DAC can be directly changed. It contains the following: memory
// reader, interrupt flag, sample buffer, Timer, output unit, 7-bit counter tied
// to 7-bit DAC.
//
//	+----------+    +---------+
//	|  Reader  |    |  Timer  |
//	+----------+    +---------+
//	     |               |
//	     |               v
//	+----------+    +---------+     +---------+     +---------+
//	|  Buffer  |----| Output  |---->| Counter |---->|   DAC   |
//	+----------+    +---------+     +---------+     +---------+
//
// The reader fetches bytes from SampleMemory as soon as the buffer empties.
type dmc struct {
	mem   SampleMemory
	timer timer

	sampleAddr uint16
	sampleLen  uint16
	outlvl     uint8
	irqEnabled bool
	irq        bool
	loop       bool

	curaddr   uint16
	remaining uint16
	readbuf   uint8
	bufEmpty  bool

	shiftReg uint8
	bitsLeft uint8
	silence  bool

	FLAGS      hwio.Reg8 `hwio:"offset=0x10,writeonly,wcb"`
	LOAD       hwio.Reg8 `hwio:"offset=0x11,writeonly,wcb"`
	SAMPLEADDR hwio.Reg8 `hwio:"offset=0x12,writeonly,wcb"`
	SAMPLELEN  hwio.Reg8 `hwio:"offset=0x13,writeonly,wcb"`
}

func newDMC(mixer *Mixer, mem SampleMemory) dmc {
	return dmc{
		mem:     mem,
		silence: true,
		timer: timer{
			channel: DPCM,
			mixer:   mixer,
		},
	}
}

func (dc *dmc) initSample() {
	dc.curaddr = dc.sampleAddr
	dc.remaining = dc.sampleLen
}

func (dc *dmc) reset(soft bool) {
	dc.timer.reset()

	if !soft {
		dc.sampleAddr = 0xC000
		dc.sampleLen = 1
	}

	dc.outlvl = 0
	dc.irqEnabled = false
	dc.irq = false
	dc.loop = false

	dc.curaddr = 0
	dc.remaining = 0
	dc.readbuf = 0
	dc.bufEmpty = true

	dc.shiftReg = 0
	dc.bitsLeft = 8
	dc.silence = true

	dc.timer.period = DMCPeriods[0] - 1
	dc.timer.timer = dc.timer.period
}

// DMCPeriods holds the DMC timer period, in CPU cycles, of each rate index.
var DMCPeriods = [16]uint16{428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54}

// $4010
func (dc *dmc) WriteFLAGS(_, val uint8) {
	dc.irqEnabled = (val & 0x80) == 0x80
	dc.loop = (val & 0x40) == 0x40

	period := DMCPeriods[val&0x0F] - 1
	dc.timer.period = period

	if !dc.irqEnabled {
		dc.irq = false
	}

	log.ModSound.DebugZ("write dmc FLAGS").
		Uint8("reg", val).
		Bool("irq enabled", dc.irqEnabled).
		Bool("loop", dc.loop).
		Uint16("period", period).
		End()
}

func abs[T ~int | ~int8 | ~int16 | ~int32 | ~int64](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// $4011
func (dc *dmc) WriteLOAD(_, val uint8) {
	newval := val & 0x7F
	previousLevel := dc.outlvl
	dc.outlvl = newval

	if diff := int16(dc.outlvl) - int16(previousLevel); abs(diff) > 50 {
		// Reduce popping sounds for 4011 writes
		dc.outlvl = uint8(int16(dc.outlvl) - diff/2)
	}

	// 4011 applies new output right away, not on the timer's reload.
	dc.timer.addOutput(int8(dc.outlvl))

	log.ModSound.DebugZ("write dmc LOAD").
		Uint8("reg", val).
		Uint8("out lvl", dc.outlvl).
		End()
}

// $4012 start of DMC sample is at address $C000 + $40*$xx
func (dc *dmc) WriteSAMPLEADDR(_, val uint8) {
	dc.sampleAddr = 0xC000 | uint16(val)<<6

	log.ModSound.DebugZ("write dmc SAMPLEADDR").
		Uint8("val", val).
		Hex16("addr", dc.sampleAddr).
		End()
}

// $4013 Length of DMC waveform is $10*$xx + 1 bytes (128*$xx + 8 samples)
func (dc *dmc) WriteSAMPLELEN(_, val uint8) {
	dc.sampleLen = uint16(val)<<4 | 0x1

	log.ModSound.DebugZ("write dmc SAMPLELEN").
		Uint8("val", val).
		Uint16("len", dc.sampleLen).
		End()
}

// fetch fills the sample buffer if it is empty and bytes remain.
func (dc *dmc) fetch() {
	if !dc.bufEmpty || dc.remaining == 0 {
		return
	}

	dc.readbuf = dc.mem.Read8(dc.curaddr)
	dc.bufEmpty = false

	// Address wraps around to $8000, not $0000.
	dc.curaddr++
	if dc.curaddr == 0 {
		dc.curaddr = 0x8000
	}

	dc.remaining--
	if dc.remaining == 0 {
		if dc.loop {
			// Looped sample should never set IRQ flag
			dc.initSample()
		} else if dc.irqEnabled {
			dc.irq = true
		}
	}
}

func (dc *dmc) run(targetCycle uint32) {
	for dc.timer.run(targetCycle) {
		if !dc.silence {
			if dc.shiftReg&0x01 != 0 {
				if dc.outlvl <= 125 {
					dc.outlvl += 2
				}
			} else {
				if dc.outlvl >= 2 {
					dc.outlvl -= 2
				}
			}
			dc.shiftReg >>= 1
		}

		dc.bitsLeft--
		if dc.bitsLeft == 0 {
			dc.bitsLeft = 8
			if dc.bufEmpty {
				dc.silence = true
			} else {
				dc.silence = false
				dc.shiftReg = dc.readbuf
				dc.bufEmpty = true
				dc.fetch()
			}
		}

		dc.timer.addOutput(int8(dc.outlvl))
	}
}

func (dc *dmc) status() bool {
	return dc.remaining > 0
}

func (dc *dmc) endFrame() {
	dc.timer.endFrame()
}

func (dc *dmc) setEnabled(enabled bool) {
	if !enabled {
		dc.remaining = 0
		return
	}
	if dc.remaining == 0 {
		dc.initSample()
		dc.fetch()
	}
}

func (dc *dmc) output() uint8 {
	return uint8(dc.timer.lastOutput)
}

// position returns the address of the next byte to fetch, and the number of
// bytes left.
func (dc *dmc) position() (addr uint16, remaining uint16) {
	return dc.curaddr, dc.remaining
}

func (dc *dmc) saveState(state *snapshot.APUDMC) {
	dc.timer.saveState(&state.Timer)
	state.SampleAddr = dc.sampleAddr
	state.SampleLen = dc.sampleLen
	state.CurrentAddr = dc.curaddr
	state.Remaining = dc.remaining
	state.OutputLevel = dc.outlvl
	state.ReadBuf = dc.readbuf
	state.BitsLeft = dc.bitsLeft
	state.IRQEnabled = dc.irqEnabled
	state.IRQ = dc.irq
	state.Loop = dc.loop
	state.BufEmpty = dc.bufEmpty
	state.ShiftReg = dc.shiftReg
	state.Silence = dc.silence
}

func (dc *dmc) setState(state *snapshot.APUDMC) {
	dc.timer.setState(&state.Timer)
	dc.sampleAddr = state.SampleAddr
	dc.sampleLen = state.SampleLen
	dc.curaddr = state.CurrentAddr
	dc.remaining = state.Remaining
	dc.outlvl = state.OutputLevel
	dc.readbuf = state.ReadBuf
	dc.bitsLeft = state.BitsLeft
	dc.irqEnabled = state.IRQEnabled
	dc.irq = state.IRQ
	dc.loop = state.Loop
	dc.bufEmpty = state.BufEmpty
	dc.shiftReg = state.ShiftReg
	dc.silence = state.Silence
}
