package psg

import "github.com/arl/blip"

// MaxFrameTicks is the maximum number of ticks between two calls to EndFrame.
const MaxFrameTicks = 4096

const maxSamplesPerFrame = 4096

// output feeds channel levels into band-limited buffers and keeps track of
// level changes for the oscilloscope.
type output struct {
	left, right *blip.Buffer
	stereo      bool

	clockRate  float64
	sampleRate float64

	muted  [NumChannels]bool
	levels [NumChannels]int16
	prevL  int32
	prevR  int32
	time   uint32

	// level changes of the frame being built, and of the last complete one.
	curStart  [NumChannels]int16
	curSteps  []oscStep
	lastStart [NumChannels]int16
	lastSteps []oscStep
	lastFrame uint32
}

type oscStep struct {
	time   uint32
	levels [NumChannels]int16
}

func (o *output) init(clockRate, sampleRate float64, stereo bool) {
	o.clockRate = clockRate
	o.sampleRate = sampleRate
	o.stereo = stereo
	o.left = blip.NewBuffer(maxSamplesPerFrame)
	if stereo {
		o.right = blip.NewBuffer(maxSamplesPerFrame)
	}
}

func (o *output) reset() {
	o.left.Clear()
	o.left.SetRates(o.clockRate, o.sampleRate)
	if o.right != nil {
		o.right.Clear()
		o.right.SetRates(o.clockRate, o.sampleRate)
	}
	o.levels = [NumChannels]int16{}
	o.prevL, o.prevR = 0, 0
	o.time = 0
	o.curStart = [NumChannels]int16{}
	o.curSteps = o.curSteps[:0]
	o.lastStart = [NumChannels]int16{}
	o.lastSteps = o.lastSteps[:0]
	o.lastFrame = 0
}

// update samples the chip outputs at the current time and adds the level
// changes to the buffers.
func (o *output) update(s *PSG) {
	var levels [NumChannels]int16
	var left, right int32
	for ch := range NumChannels {
		if o.muted[ch] {
			continue
		}
		l := s.level(ch)
		levels[ch] = l
		if !o.stereo {
			left += int32(l)
			continue
		}
		if s.stereo&(0x10<<ch) != 0 {
			left += int32(l)
		}
		if s.stereo&(0x01<<ch) != 0 {
			right += int32(l)
		}
	}

	if levels != o.levels {
		o.levels = levels
		o.curSteps = append(o.curSteps, oscStep{time: o.time, levels: levels})
	}
	if left != o.prevL {
		o.left.AddDelta(uint64(o.time), left-o.prevL)
		o.prevL = left
	}
	if o.stereo && right != o.prevR {
		o.right.AddDelta(uint64(o.time), right-o.prevR)
		o.prevR = right
	}
}

func (o *output) endFrame() uint32 {
	frame := o.time
	o.left.EndFrame(int(frame))
	if o.stereo {
		o.right.EndFrame(int(frame))
	}

	o.lastStart, o.lastFrame = o.curStart, frame
	o.lastSteps, o.curSteps = o.curSteps, o.lastSteps[:0]
	o.curStart = o.levels
	o.time = 0
	return frame
}

func (o *output) channelLevels(ch int, dst []int16) {
	if len(dst) == 0 {
		return
	}
	level := o.lastStart[ch]
	step := 0
	n := uint64(len(dst))
	for k := range dst {
		t := uint32(uint64(k+1) * uint64(o.lastFrame) / n)
		for step < len(o.lastSteps) && o.lastSteps[step].time <= t {
			level = o.lastSteps[step].levels[ch]
			step++
		}
		dst[k] = level
	}
}
