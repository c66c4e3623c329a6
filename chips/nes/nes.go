// Package nes drives the Ricoh 2A03 APU: two pulse channels, a triangle, a
// noise generator and the delta modulation channel (DPCM).
package nes

import (
	"sync/atomic"

	"github.com/1135975331/furnace/dispatch"
	"github.com/1135975331/furnace/emu/log"
	"github.com/1135975331/furnace/hw/apu"
	"github.com/1135975331/furnace/hw/hwdefs"
	"github.com/1135975331/furnace/hw/snapshot"
)

var modNES = log.NewModule("nes")

const (
	NumChannels = 5
	VolMax      = 15
	PoolSize    = 0x20

	chanPulse1   = 0
	chanPulse2   = 1
	chanTriangle = 2
	chanNoise    = 3
	chanDPCM     = 4
)

// Register offsets from $4000.
const (
	regDMCFreq  = 0x10
	regDMCRaw   = 0x11
	regDMCStart = 0x12
	regDMCLen   = 0x13
	regStatus   = 0x15
	regFrame    = 0x17
)

// Envelope mode bits of the volume registers.
const (
	envConstant = 1 << 0 // constant volume
	envHalt     = 1 << 1 // length counter halt, envelope loop
)

var clocks = [...]float64{hwdefs.ClockNTSC, hwdefs.ClockPAL, hwdefs.ClockDendy}

type channel struct {
	dispatch.Channel

	duty    int
	dutyCmd bool
	envMode int
	length  int
	prevHi  int

	sweep        uint8
	sweepChanged bool

	linear int

	// DPCM
	sample     int
	sampleBank int
	sampleOff  int
	dmcLevel   int
	dmcChanged bool
}

func (c *channel) reset() {
	*c = channel{}
	c.Reset(VolMax)
	c.envMode = envConstant | envHalt
	c.prevHi = -1
	c.linear = 0xff
	c.sample = -1
	c.dmcLevel = -1
}

// Dispatcher drives a 2A03.
type Dispatcher struct {
	dispatch.Base

	clock    float64
	dpcmLoop bool

	chans [NumChannels]channel
	apu   *apu.APU
	dpcm  dpcmBank

	// audio goroutine state
	mono      []int16
	levels    []int16
	chunk     int
	dmcPlayed atomic.Int32
}

// New returns an uninitialized NES dispatcher.
func New() *Dispatcher { return &Dispatcher{} }

func (d *Dispatcher) Init(parent dispatch.Engine, _, rate int, flags dispatch.Config) int {
	sel := flags.Int("clockSel", 0)
	if sel < 0 || sel >= len(clocks) {
		modNES.WarnZ("unsupported clock").Int("clockSel", sel).End()
		return 0
	}
	if rate <= 0 || rate > apu.MaxSampleRate {
		modNES.WarnZ("unsupported sample rate").Int("rate", rate).End()
		return 0
	}
	d.clock = clocks[sel]
	d.dpcmLoop = flags.Bool("dpcmLoop", false)

	d.Setup(modNES, parent, NumChannels, rate, PoolSize, VolMax)

	d.apu = apu.New(apu.NewMixer(d.clock, float64(rate)), &d.dpcm)
	// Keep a margin for blip's rounding of the clocks needed.
	d.chunk = max(d.apu.Mixer().MaxFrameSamples()-2, 1)
	d.mono = make([]int16, d.chunk)
	d.levels = make([]int16, d.chunk)

	d.RenderSamples()
	d.Reset()
	return NumChannels
}

// RenderSamples rebuilds the DPCM bank from the engine samples. Audio must be
// paused.
func (d *Dispatcher) RenderSamples() {
	d.dpcm.render(d.Parent())
}

func (d *Dispatcher) Reset() {
	d.ResetBase()
	for i := range d.chans {
		d.chans[i].reset()
	}
	d.apu.Reset(false)
	d.dmcPlayed.Store(0)

	d.Write(regStatus, 0x0f)
	// Sweep units negate, so that they never mute high notes.
	d.Write(0x01, 0x08)
	d.Write(0x05, 0x08)
}

func (d *Dispatcher) Dispatch(c dispatch.Command) int {
	if c.Chan < 0 || c.Chan >= NumChannels {
		return dispatch.Ignored(c.Cmd)
	}
	ch := &d.chans[c.Chan]

	switch c.Cmd {
	case dispatch.CmdNoteOn:
		ret, _ := d.Common(&ch.Channel, c)
		if c.Chan == chanDPCM {
			d.pickSample(ch)
		}
		return ret
	case dispatch.CmdStdNoiseMode:
		switch c.Chan {
		case chanPulse1, chanPulse2:
			ch.duty = c.Value & 3
		case chanNoise:
			ch.duty = c.Value & 1
			ch.FreqChanged = true
		default:
			return 1
		}
		ch.dutyCmd = true
		ch.VolChanged = true
		return 1
	case dispatch.CmdNESSweep:
		if c.Chan > chanPulse2 {
			return 1
		}
		if c.Value2 == 0 {
			ch.sweep = 0x08
		} else {
			ch.sweep = 0x80 | uint8(c.Value2)&0x77
			if c.Value != 0 {
				ch.sweep |= 0x08
			}
		}
		ch.sweepChanged = true
		return 1
	case dispatch.CmdNESDMC:
		ch.dmcLevel = c.Value & 0x7f
		ch.dmcChanged = true
		return 1
	case dispatch.CmdNESLength:
		ch.length = c.Value & 0x1f
		return 1
	case dispatch.CmdNESEnvMode:
		ch.envMode = c.Value & 3
		ch.VolChanged = true
		return 1
	case dispatch.CmdNESLinearLength:
		if c.Chan == chanTriangle {
			ch.linear = c.Value & 0xff
			ch.VolChanged = true
		}
		return 1
	case dispatch.CmdSampleBank:
		ch.sampleBank = max(c.Value, 0)
		return 1
	case dispatch.CmdSamplePos:
		ch.sampleOff = max(c.Value, 0)
		return 1
	case dispatch.CmdSampleMode, dispatch.CmdWave:
		return 1
	}

	ret, _ := d.Common(&ch.Channel, c)
	return ret
}

// pickSample selects the sample a DPCM note on plays: the instrument sample,
// or else note n of the current sample bank (12 samples per bank).
func (d *Dispatcher) pickSample(ch *channel) {
	if ins := d.Instrument(ch.Ins); ins != nil && ins.Sample >= 0 {
		ch.sample = ins.Sample
		return
	}
	ch.sample = ch.sampleBank*12 + ch.Note%12
}

func (d *Dispatcher) ForceIns() {
	d.Base.ForceIns()
	for i := range d.chans {
		d.chans[i].InsChanged = true
		d.chans[i].FreqChanged = true
		d.chans[i].VolChanged = true
		d.chans[i].prevHi = -1
		d.chans[i].sweepChanged = true
	}
}

func (d *Dispatcher) NotifyInsDeletion(ins *dispatch.Instrument) {
	for i := range d.chans {
		d.DropInstrument(&d.chans[i].Channel, ins)
	}
}

func (d *Dispatcher) ChanState(ch int) (dispatch.ChanState, bool) {
	if ch < 0 || ch >= NumChannels {
		return dispatch.ChanState{}, false
	}
	c := &d.chans[ch]
	return c.State(map[string]int{
		"duty":    c.duty,
		"envMode": c.envMode,
		"length":  c.length,
		"sweep":   int(c.sweep),
		"linear":  c.linear,
		"sample":  c.sample,
	}), true
}

// KeyOffAffectsArp reports whether the arpeggio macro keeps running after a
// key off, which is the case for the noise channel.
func (d *Dispatcher) KeyOffAffectsArp(ch int) bool {
	return ch == chanNoise
}

// SamplePos returns the sample played by the DPCM channel, and the number of
// bytes played so far.
func (d *Dispatcher) SamplePos(ch int) (int, int) {
	if ch != chanDPCM || !d.chans[ch].Active || d.chans[ch].sample < 0 {
		return -1, 0
	}
	return d.chans[ch].sample, int(d.dmcPlayed.Load())
}

// CoreState returns a snapshot of the APU. Audio must be paused.
func (d *Dispatcher) CoreState() *snapshot.APU {
	return d.apu.State()
}

// SetCoreState restores an APU snapshot. Audio must be paused.
func (d *Dispatcher) SetCoreState(state *snapshot.APU) {
	d.apu.SetState(state)
}

var sheet = []dispatch.SheetEntry{
	{Name: "SQ1_VOL", Addr: 0x00},
	{Name: "SQ1_SWEEP", Addr: 0x01},
	{Name: "SQ1_LO", Addr: 0x02},
	{Name: "SQ1_HI", Addr: 0x03},
	{Name: "SQ2_VOL", Addr: 0x04},
	{Name: "SQ2_SWEEP", Addr: 0x05},
	{Name: "SQ2_LO", Addr: 0x06},
	{Name: "SQ2_HI", Addr: 0x07},
	{Name: "TRI_LINEAR", Addr: 0x08},
	{Name: "TRI_LO", Addr: 0x0a},
	{Name: "TRI_HI", Addr: 0x0b},
	{Name: "NOISE_VOL", Addr: 0x0c},
	{Name: "NOISE_LO", Addr: 0x0e},
	{Name: "NOISE_HI", Addr: 0x0f},
	{Name: "DMC_FREQ", Addr: 0x10},
	{Name: "DMC_RAW", Addr: 0x11},
	{Name: "DMC_START", Addr: 0x12},
	{Name: "DMC_LEN", Addr: 0x13},
	{Name: "SND_CHN", Addr: 0x15},
	{Name: "FRAME_CNT", Addr: 0x17},
}

func (d *Dispatcher) RegisterSheet() []dispatch.SheetEntry {
	return sheet
}

var _ dispatch.Dispatcher = (*Dispatcher)(nil)
