package apu

import "github.com/1135975331/furnace/hw/snapshot"

type envelope struct {
	constVolume bool
	volume      uint8

	start   bool
	divider int8
	counter uint8

	lenCounter lengthCounter
}

func (env *envelope) init(val uint8) {
	env.lenCounter.init((val & 0x20) == 0x20)
	env.constVolume = (val & 0x10) == 0x10
	env.volume = val & 0x0F
}

func (env *envelope) restart() {
	env.start = true
}

func (env *envelope) getVolume() uint32 {
	if env.lenCounter.status() {
		if env.constVolume {
			return uint32(env.volume)
		}
		return uint32(env.counter)
	}
	return 0
}

func (env *envelope) reset(soft bool) {
	env.lenCounter.reset(soft)
	env.constVolume = false
	env.volume = 0
	env.start = false
	env.divider = 0
	env.counter = 0
}

func (env *envelope) tick() {
	if !env.start {
		env.divider--
		if env.divider < 0 {
			env.divider = int8(env.volume)
			if env.counter > 0 {
				env.counter--
			} else if env.lenCounter.isHalted() {
				env.counter = 15
			}
		}
	} else {
		env.start = false
		env.counter = 15
		env.divider = int8(env.volume)
	}
}

func (env *envelope) saveState(state *snapshot.APUEnvelope) {
	env.lenCounter.saveState(&state.LengthCounter)
	state.ConstVolume = env.constVolume
	state.Volume = env.volume
	state.Start = env.start
	state.Divider = env.divider
	state.Counter = env.counter
}

func (env *envelope) setState(state *snapshot.APUEnvelope) {
	env.lenCounter.setState(&state.LengthCounter)
	env.constVolume = state.ConstVolume
	env.volume = state.Volume
	env.start = state.Start
	env.divider = state.Divider
	env.counter = state.Counter
}
