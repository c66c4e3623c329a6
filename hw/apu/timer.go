package apu

import "github.com/1135975331/furnace/hw/snapshot"

// timer is the period divider shared by all channels. Each change of its
// output level is forwarded to the mixer as a timestamped delta.
type timer struct {
	prevCycle  uint32
	timer      uint16
	period     uint16
	lastOutput int8

	channel Channel
	mixer   *Mixer
}

func (t *timer) reset() {
	t.timer = 0
	t.period = 0
	t.prevCycle = 0
	t.lastOutput = 0
}

func (t *timer) addOutput(output int8) {
	if output != t.lastOutput {
		t.mixer.addDelta(t.channel, t.prevCycle, int16(output)-int16(t.lastOutput))
		t.lastOutput = output
	}
}

// run advances the timer up to targetCycle, or until the timer reaches 0, in
// which case run returns true and must be called again.
func (t *timer) run(targetCycle uint32) bool {
	cyclesToRun := uint16(targetCycle - t.prevCycle)

	if cyclesToRun > t.timer {
		t.prevCycle += uint32(t.timer) + 1
		t.timer = t.period
		return true
	}

	t.timer -= cyclesToRun
	t.prevCycle = targetCycle
	return false
}

func (t *timer) endFrame() {
	t.prevCycle = 0
}

func (t *timer) saveState(state *snapshot.APUTimer) {
	state.Timer = t.timer
	state.Period = t.period
	state.LastOutput = t.lastOutput
}

func (t *timer) setState(state *snapshot.APUTimer) {
	t.timer = state.Timer
	t.period = state.Period
	t.lastOutput = state.LastOutput
	t.prevCycle = 0
}
