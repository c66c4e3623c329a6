package psg

import "github.com/1135975331/furnace/hw/snapshot"

func (s *PSG) State() *snapshot.PSG {
	var state snapshot.PSG
	for i := range state.Tone {
		state.Tone[i] = snapshot.PSGTone{
			Period:  s.toneReg[i],
			Counter: s.toneCounter[i],
			Atten:   s.volume[i],
			Output:  s.toneOutput[i],
		}
	}
	state.Noise = snapshot.PSGNoise{
		Control: s.noiseReg,
		Counter: s.noiseCounter,
		LFSR:    s.noiseShift,
		Atten:   s.volume[NoiseChannel],
		Toggle:  s.noiseToggle,
		Output:  s.noiseOut,
	}
	state.Latched = s.latchedChannel<<1 | s.latchedType
	state.Stereo = s.stereo
	return &state
}

func (s *PSG) SetState(state *snapshot.PSG) {
	for i, t := range state.Tone {
		s.toneReg[i] = t.Period & 0x3FF
		s.toneCounter[i] = t.Counter
		s.volume[i] = t.Atten & 0x0F
		s.toneOutput[i] = t.Output
	}
	s.noiseReg = state.Noise.Control & 0x07
	s.noiseCounter = state.Noise.Counter
	s.noiseShift = state.Noise.LFSR
	s.volume[NoiseChannel] = state.Noise.Atten & 0x0F
	s.noiseToggle = state.Noise.Toggle
	s.noiseOut = state.Noise.Output
	s.latchedChannel = state.Latched >> 1 & 0x03
	s.latchedType = state.Latched & 0x01
	s.stereo = state.Stereo

	s.out.reset()
	s.out.update(s)
}
