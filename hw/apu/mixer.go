package apu

import (
	"slices"

	"github.com/arl/blip"

	"github.com/1135975331/furnace/hw/snapshot"
)

const MaxSampleRate = 96000

// cycleLength is the maximum number of CPU cycles in a frame, that is between
// two calls to EndFrame.
const cycleLength = 10000

const maxSamplesPerFrame = 4096

// Mixer combines the channel outputs with the non-linear 2A03 DAC response
// and resamples the result through a band-limited buffer.
type Mixer struct {
	buf     *blip.Buffer
	prevOut int16

	volumes [NumChannels]float64

	timestamps []uint32
	chanoutput [NumChannels][cycleLength]int16
	curOutput  [NumChannels]int16

	// channel levels at the start of the last frame, then after each
	// timestamp, for the oscilloscope.
	oscStart  [NumChannels]int16
	oscSteps  []oscStep
	frameTime uint32

	clockRate  float64
	sampleRate float64
}

type oscStep struct {
	time uint32
	out  [NumChannels]int16
}

func NewMixer(clockRate, sampleRate float64) *Mixer {
	am := &Mixer{
		buf:        blip.NewBuffer(maxSamplesPerFrame),
		clockRate:  clockRate,
		sampleRate: min(sampleRate, MaxSampleRate),
	}
	am.Reset()
	return am
}

func (am *Mixer) Reset() {
	am.prevOut = 0
	am.buf.Clear()
	am.timestamps = am.timestamps[:0]
	am.oscSteps = am.oscSteps[:0]
	am.frameTime = 0

	for i := range NumChannels {
		am.volumes[i] = 1.0
	}
	clear(am.chanoutput[:])
	clear(am.curOutput[:])
	clear(am.oscStart[:])

	am.buf.SetRates(am.clockRate, am.sampleRate)
}

// SetVolume sets the gain of a channel, 0 mutes it.
func (am *Mixer) SetVolume(ch Channel, vol float64) {
	am.volumes[ch] = vol
}

func (am *Mixer) Volume(ch Channel) float64 {
	return am.volumes[ch]
}

// MaxFrameSamples returns the maximum number of samples a single frame can
// produce.
func (am *Mixer) MaxFrameSamples() int {
	return int(float64(cycleLength-1) * am.sampleRate / am.clockRate)
}

// ClocksNeeded returns the number of CPU cycles to run so that n more samples
// become available.
func (am *Mixer) ClocksNeeded(n int) int {
	return am.buf.ClocksNeeded(n)
}

func (am *Mixer) channelOutput(ch Channel) float64 {
	return float64(am.curOutput[ch]) * am.volumes[ch]
}

func (am *Mixer) outputVolume() int16 {
	squareOutput := am.channelOutput(Square1) + am.channelOutput(Square2)
	tndOutput := am.channelOutput(DPCM) +
		2.7516713261*am.channelOutput(Triangle) +
		1.8493587125*am.channelOutput(Noise)

	squareVolume := uint16(((95.88 * 5000.0) / (8128.0/squareOutput + 100.0)))
	tndVolume := uint16(((159.79 * 5000.0) / (22638.0/tndOutput + 100.0)))

	return int16(squareVolume + tndVolume)
}

func (am *Mixer) addDelta(ch Channel, time uint32, delta int16) {
	if delta != 0 {
		am.timestamps = append(am.timestamps, time)
		am.chanoutput[ch][time] += delta
	}
}

func (am *Mixer) endFrame(time uint32) {
	// Remove duplicates.
	slices.Sort(am.timestamps)
	am.timestamps = slices.Compact(am.timestamps)

	am.oscStart = am.curOutput
	am.oscSteps = am.oscSteps[:0]
	am.frameTime = time

	for _, stamp := range am.timestamps {
		for j := range NumChannels {
			am.curOutput[j] += am.chanoutput[j][stamp]
		}
		am.oscSteps = append(am.oscSteps, oscStep{time: stamp, out: am.curOutput})

		currentOut := am.outputVolume() * 4
		am.buf.AddDelta(uint64(stamp), int32(currentOut)-int32(am.prevOut))
		am.prevOut = currentOut
	}

	am.buf.EndFrame(int(time))

	// Reset everything.
	for _, stamp := range am.timestamps {
		for j := range NumChannels {
			am.chanoutput[j][stamp] = 0
		}
	}
	am.timestamps = am.timestamps[:0]
}

// ReadSamples reads at most len(out) mono samples.
func (am *Mixer) ReadSamples(out []int16) int {
	return am.buf.ReadSamples(out, len(out), blip.Mono)
}

// SamplesAvailable returns the number of samples ready to be read.
func (am *Mixer) SamplesAvailable() int {
	return am.buf.SamplesAvailable()
}

// ChannelLevels fills dst with the raw output level of ch, sampled at
// len(dst) evenly spaced instants over the last frame. Levels are scaled to
// the int16 range, a muted channel reads as 0.
func (am *Mixer) ChannelLevels(ch Channel, dst []int16) {
	if len(dst) == 0 {
		return
	}
	shift := uint(11)
	if ch == DPCM {
		shift = 8
	}
	if am.volumes[ch] == 0 {
		clear(dst)
		return
	}

	level := am.oscStart[ch]
	step := 0
	n := uint64(len(dst))
	for k := range dst {
		t := uint32(uint64(k+1) * uint64(am.frameTime) / n)
		for step < len(am.oscSteps) && am.oscSteps[step].time <= t {
			level = am.oscSteps[step].out[ch]
			step++
		}
		dst[k] = level << shift
	}
}

func (am *Mixer) State() *snapshot.APUMixer {
	var state snapshot.APUMixer
	state.ClockRate = am.clockRate
	state.SampleRate = am.sampleRate
	state.CurrentOutput = am.curOutput
	state.Volumes = am.volumes
	return &state
}

func (am *Mixer) SetState(state *snapshot.APUMixer) {
	am.clockRate = state.ClockRate
	am.sampleRate = state.SampleRate

	am.Reset()

	am.curOutput = state.CurrentOutput
	am.oscStart = state.CurrentOutput
	am.volumes = state.Volumes

	// the band-limited buffer was cleared: restore the current level.
	am.prevOut = am.outputVolume() * 4
	am.buf.AddDelta(0, int32(am.prevOut))
}
