package apu

import (
	"github.com/1135975331/furnace/emu/log"
	"github.com/1135975331/furnace/hw/snapshot"
)

type frameType uint8

const (
	noFrame frameType = iota
	quarterFrame
	halfFrame
)

var stepCycles = [2][6]int32{
	{7457, 14913, 22371, 29828, 29829, 29830},
	{7457, 14913, 22371, 29829, 37281, 37282},
}

var frameTypes = [2][6]frameType{
	{quarterFrame, halfFrame, quarterFrame, noFrame, halfFrame, noFrame},
	{quarterFrame, halfFrame, quarterFrame, noFrame, halfFrame, noFrame},
}

// frameCounter clocks envelopes, linear counter, length counters and sweep
// units at quarter and half frame intervals.
type frameCounter struct {
	apu *APU

	prevCycle  int32
	curStep    uint32
	stepMode   uint32 // 0: 4-step mode, 1: 5-step mode
	inhibitIRQ bool
	irq        bool
}

func (afc *frameCounter) reset(soft bool) {
	afc.prevCycle = 0

	// After reset: APU mode in $4017 was unchanged, so we need to keep
	// whatever value stepMode has for soft resets
	if !soft {
		afc.stepMode = 0
	}

	afc.curStep = 0
	afc.inhibitIRQ = false
	afc.irq = false
}

// write applies a $4017 write. Without a CPU to align to, the sequencer
// restarts immediately instead of 3 or 4 cycles later.
func (afc *frameCounter) write(val uint8) {
	log.ModSound.DebugZ("write framecounter").Uint8("val", val).End()

	afc.stepMode = uint32(val >> 7)
	afc.inhibitIRQ = (val & 0x40) == 0x40
	if afc.inhibitIRQ {
		afc.irq = false
	}

	afc.curStep = 0
	afc.prevCycle = 0

	if afc.stepMode != 0 {
		// Writing to $4017 with bit 7 set will immediately generate a clock
		// for both the quarter frame and the half frame units.
		afc.apu.frameCounterTick(halfFrame)
	}
}

// run consumes cycles up to the next sequencer step, at most. It returns the
// number of cycles actually consumed.
func (afc *frameCounter) run(cyclesToRun *int32) uint32 {
	var cyclesRan int32

	step := stepCycles[afc.stepMode][afc.curStep]
	if afc.prevCycle+*cyclesToRun >= step {
		if !afc.inhibitIRQ && afc.stepMode == 0 && afc.curStep >= 3 {
			// Set irq on the last 3 cycles for 4-step mode
			afc.irq = true
		}

		if ftyp := frameTypes[afc.stepMode][afc.curStep]; ftyp != noFrame {
			afc.apu.frameCounterTick(ftyp)
		}

		if step < afc.prevCycle {
			cyclesRan = 0
		} else {
			cyclesRan = step - afc.prevCycle
		}

		*cyclesToRun -= cyclesRan

		afc.curStep++
		if afc.curStep == 6 {
			afc.curStep = 0
			afc.prevCycle = 0
		} else {
			afc.prevCycle += cyclesRan
		}
	} else {
		cyclesRan = *cyclesToRun
		*cyclesToRun = 0
		afc.prevCycle += cyclesRan
	}

	return uint32(cyclesRan)
}

func (afc *frameCounter) saveState(state *snapshot.APUFrameCounter) {
	state.PrevCycle = afc.prevCycle
	state.CurStep = afc.curStep
	state.StepMode = afc.stepMode
	state.InhibitIRQ = afc.inhibitIRQ
	state.IRQ = afc.irq
}

func (afc *frameCounter) setState(state *snapshot.APUFrameCounter) {
	afc.prevCycle = state.PrevCycle
	afc.curStep = state.CurStep
	afc.stepMode = state.StepMode
	afc.inhibitIRQ = state.InhibitIRQ
	afc.irq = state.IRQ
}
