package apu

import (
	"github.com/1135975331/furnace/emu/log"
	"github.com/1135975331/furnace/hw/hwio"
	"github.com/1135975331/furnace/hw/snapshot"
)

// RegsSize is the size of the APU register file, mapped at $4000.
const RegsSize = 0x18

// APU emulates the 2A03 sound generators. It is driven from the outside:
// registers are written through Regs (offsets relative to $4000), cycles are
// run with Run, and samples are produced by EndFrame.
type APU struct {
	mixer *Mixer
	Regs  *hwio.Table

	Square1  squareChannel
	Square2  squareChannel
	Triangle triangleChannel
	Noise    noiseChannel
	DMC      dmc

	frameCounter frameCounter

	prevCycle uint32
	curCycle  uint32

	STATUS       hwio.Reg8 `hwio:"offset=0x15,pcb,rcb,wcb"`
	FRAMECOUNTER hwio.Reg8 `hwio:"offset=0x17,writeonly,wcb"`
}

// New creates an APU mixing into mixer. The DMC reads its samples from mem,
// which may be nil.
func New(mixer *Mixer, mem SampleMemory) *APU {
	if mem == nil {
		mem = openBus{}
	}
	a := &APU{
		mixer: mixer,
	}
	a.Square1 = newSquareChannel(mixer, Square1)
	a.Square2 = newSquareChannel(mixer, Square2)
	a.Triangle = newTriangleChannel(mixer)
	a.Noise = newNoiseChannel(mixer)
	a.DMC = newDMC(mixer, mem)
	a.frameCounter.apu = a

	hwio.MustInitRegs(a)
	hwio.MustInitRegs(&a.Square1)
	hwio.MustInitRegs(&a.Square2)
	hwio.MustInitRegs(&a.Triangle)
	hwio.MustInitRegs(&a.Noise)
	hwio.MustInitRegs(&a.DMC)

	a.Regs = hwio.NewTable("apu", RegsSize)
	a.Regs.MapBank(0x00, &a.Square1, 0)
	a.Regs.MapBank(0x04, &a.Square2, 0)
	a.Regs.MapBank(0x00, &a.Triangle, 0)
	a.Regs.MapBank(0x00, &a.Noise, 0)
	a.Regs.MapBank(0x00, &a.DMC, 0)
	a.Regs.MapBank(0x00, a, 0)

	a.Reset(false)
	return a
}

// Mixer returns the mixer the APU outputs to.
func (a *APU) Mixer() *Mixer { return a.mixer }

// Write writes val to the register at $4000+addr.
func (a *APU) Write(addr uint16, val uint8) {
	a.Regs.Write8(addr, val)
}

func (a *APU) Status() uint8 {
	var status uint8

	if a.Square1.status() {
		status |= 0x01
	}
	if a.Square2.status() {
		status |= 0x02
	}
	if a.Triangle.status() {
		status |= 0x04
	}
	if a.Noise.status() {
		status |= 0x08
	}
	if a.DMC.status() {
		status |= 0x10
	}
	if a.frameCounter.irq {
		status |= 0x40
	}
	if a.DMC.irq {
		status |= 0x80
	}

	return status
}

// STATUS: $4015
func (a *APU) PeekSTATUS(val uint8) uint8 {
	return a.Status()
}

func (a *APU) ReadSTATUS(val uint8) uint8 {
	status := a.Status()

	// Reading $4015 clears the Frame Counter interrupt flag.
	a.frameCounter.irq = false

	log.ModSound.DebugZ("read status").Uint8("status", status).End()
	return status
}

func (a *APU) WriteSTATUS(old, val uint8) {
	log.ModSound.DebugZ("write status").Uint8("val", val).End()

	// Writing to $4015 clears the DMC interrupt flag.
	a.DMC.irq = false

	a.Square1.setEnabled((val & 0x01) == 0x01)
	a.Square2.setEnabled((val & 0x02) == 0x02)
	a.Triangle.setEnabled((val & 0x04) == 0x04)
	a.Noise.setEnabled((val & 0x08) == 0x08)
	a.DMC.setEnabled((val & 0x10) == 0x10)
}

// FRAMECOUNTER: $4017
func (a *APU) WriteFRAMECOUNTER(old, val uint8) {
	a.frameCounter.write(val)
}

// Output returns the current DAC value of a channel.
func (a *APU) Output(ch Channel) uint8 {
	switch ch {
	case Square1:
		return a.Square1.output()
	case Square2:
		return a.Square2.output()
	case Triangle:
		return a.Triangle.output()
	case Noise:
		return a.Noise.output()
	case DPCM:
		return a.DMC.output()
	}
	return 0
}

// DMCPosition returns the address of the next DPCM byte to be fetched and
// the number of bytes left in the current sample.
func (a *APU) DMCPosition() (addr, remaining uint16) {
	return a.DMC.position()
}

func (a *APU) frameCounterTick(ftyp frameType) {
	// Quarter & half frame clock envelope & linear counter
	a.Square1.tickEnvelope()
	a.Square2.tickEnvelope()
	a.Triangle.tickLinearCounter()
	a.Noise.tickEnvelope()

	if ftyp == halfFrame {
		// Half frames clock length counter & sweep
		a.Square1.tickLengthCounter()
		a.Square2.tickLengthCounter()
		a.Triangle.tickLengthCounter()
		a.Noise.tickLengthCounter()

		a.Square1.tickSweep()
		a.Square2.tickSweep()
	}
}

func (a *APU) Reset(soft bool) {
	a.curCycle = 0
	a.prevCycle = 0

	a.Square1.reset(soft)
	a.Square2.reset(soft)
	a.Triangle.reset(soft)
	a.Noise.reset(soft)
	a.DMC.reset(soft)
	a.frameCounter.reset(soft)
	a.mixer.Reset()
}

// MaxFrameCycles is the maximum number of cycles that can be run between two
// calls to EndFrame.
const MaxFrameCycles = cycleLength - 1

// Run advances the APU by the given number of CPU cycles.
func (a *APU) Run(cycles uint32) {
	a.curCycle += cycles
	if a.curCycle > MaxFrameCycles {
		panic("frame overflow")
	}
	a.run()
}

// EndFrame closes the current frame, making its samples available to the
// mixer. It returns the frame length in cycles.
func (a *APU) EndFrame() uint32 {
	a.run()
	a.Square1.endFrame()
	a.Square2.endFrame()
	a.Triangle.endFrame()
	a.Noise.endFrame()
	a.DMC.endFrame()

	frame := a.curCycle
	a.mixer.endFrame(frame)

	a.curCycle = 0
	a.prevCycle = 0
	return frame
}

func (a *APU) run() {
	cyclesToRun := int32(a.curCycle - a.prevCycle)

	for cyclesToRun > 0 {
		a.prevCycle += a.frameCounter.run(&cyclesToRun)

		// Reload counters set by writes to 4003/4008/400B/400F after running
		// the frame counter to allow the length counter to be clocked first.
		a.Square1.reloadLengthCounter()
		a.Square2.reloadLengthCounter()
		a.Noise.reloadLengthCounter()
		a.Triangle.reloadLengthCounter()

		a.Square1.run(a.prevCycle)
		a.Square2.run(a.prevCycle)
		a.Noise.run(a.prevCycle)
		a.Triangle.run(a.prevCycle)
		a.DMC.run(a.prevCycle)
	}
}

func (a *APU) State() *snapshot.APU {
	var state snapshot.APU
	a.Square1.saveState(&state.Square1)
	a.Square2.saveState(&state.Square2)
	a.Triangle.saveState(&state.Triangle)
	a.Noise.saveState(&state.Noise)
	a.DMC.saveState(&state.DMC)
	a.frameCounter.saveState(&state.FrameCounter)
	state.Mixer = *a.mixer.State()
	return &state
}

func (a *APU) SetState(state *snapshot.APU) {
	a.curCycle = 0
	a.prevCycle = 0
	a.Square1.setState(&state.Square1)
	a.Square2.setState(&state.Square2)
	a.Triangle.setState(&state.Triangle)
	a.Noise.setState(&state.Noise)
	a.DMC.setState(&state.DMC)
	a.frameCounter.setState(&state.FrameCounter)
	a.mixer.SetState(&state.Mixer)
}
