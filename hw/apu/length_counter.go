package apu

import "github.com/1135975331/furnace/hw/snapshot"

var lengthLUT = [32]uint8{10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14, 12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30}

// lengthCounter silences its channel once it counts down to zero. Loads and
// halt flag changes are applied by reload, after the frame counter had a
// chance to clock the counter.
type lengthCounter struct {
	channel Channel
	newHalt bool

	enabled       bool
	halt          bool
	counter       uint8
	reloadValue   uint8
	previousValue uint8
}

func (lc *lengthCounter) init(halt bool) {
	lc.newHalt = halt
}

func (lc *lengthCounter) load(idx uint8) {
	if lc.enabled {
		lc.reloadValue = lengthLUT[idx&0x1F]
		lc.previousValue = lc.counter
	}
}

func (lc *lengthCounter) reset(soft bool) {
	lc.enabled = false
	if soft && lc.channel == Triangle {
		// triangle length counter survives a soft reset.
		return
	}
	lc.halt = false
	lc.counter = 0
	lc.newHalt = false
	lc.reloadValue = 0
	lc.previousValue = 0
}

func (lc *lengthCounter) status() bool {
	return lc.counter > 0
}

func (lc *lengthCounter) isHalted() bool {
	return lc.halt
}

func (lc *lengthCounter) reload() {
	if lc.reloadValue != 0 {
		if lc.counter == lc.previousValue {
			lc.counter = lc.reloadValue
		}
		lc.reloadValue = 0
	}

	lc.halt = lc.newHalt
}

func (lc *lengthCounter) tick() {
	if lc.counter > 0 && !lc.halt {
		lc.counter--
	}
}

func (lc *lengthCounter) setEnabled(enabled bool) {
	if !enabled {
		lc.counter = 0
	}
	lc.enabled = enabled
}

func (lc *lengthCounter) saveState(state *snapshot.APULengthCounter) {
	state.Enabled = lc.enabled
	state.Halt = lc.halt
	state.NewHalt = lc.newHalt
	state.Counter = lc.counter
	state.ReloadValue = lc.reloadValue
	state.PreviousValue = lc.previousValue
}

func (lc *lengthCounter) setState(state *snapshot.APULengthCounter) {
	lc.enabled = state.Enabled
	lc.halt = state.Halt
	lc.newHalt = state.NewHalt
	lc.counter = state.Counter
	lc.reloadValue = state.ReloadValue
	lc.previousValue = state.PreviousValue
}
