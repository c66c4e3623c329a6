// Package sms drives the SN76489 PSG of the Sega Master System and Game Gear,
// and of the TI chips it derives from.
package sms

import (
	"math"

	"github.com/1135975331/furnace/dispatch"
	"github.com/1135975331/furnace/dispatch/macro"
	"github.com/1135975331/furnace/emu/log"
	"github.com/1135975331/furnace/hw/hwdefs"
	"github.com/1135975331/furnace/hw/psg"
	"github.com/1135975331/furnace/hw/snapshot"
)

var modSMS = log.NewModule("sms")

const (
	NumChannels = psg.NumChannels
	VolMax      = 15
	PoolSize    = psg.RegsSize

	chanNoise = psg.NoiseChannel
)

// Logical PSG registers.
const (
	regTone   = 0x00 // 2 per tone channel, low then high
	regNoise  = 0x06
	regPhase  = 0x07
	regAtten  = 0x08 // 1 per channel
	regStereo = 0x0c
)

// Noise modes, set by CmdStdNoiseMode or the duty macro.
const (
	noiseWhite    = 1 << 0
	noiseToneFreq = 1 << 1 // noise clocked by tone channel 2
)

var clocks = [...]float64{hwdefs.ClockSMSNTSC, hwdefs.ClockSMSPAL, hwdefs.ClockSMSHalf}

type chipType struct {
	variant psg.Variant
	stereo  bool
}

var chipTypes = [...]chipType{
	{psg.Sega, false},
	{psg.TI, false},
	{psg.Sega, true}, // Game Gear
}

type channel struct {
	dispatch.Channel
	duty    int
	dutyCmd bool
	panCmd  bool
}

// Dispatcher drives a SN76489.
type Dispatcher struct {
	dispatch.Base

	clock        float64
	stereo       bool
	noPhaseReset bool

	chans [NumChannels]channel
	psg   *psg.PSG

	// last period written to each tone channel, -1 if unknown
	tonePeriod [3]int
	// tone 2 carries the noise frequency
	noiseOnTone2 bool

	chunk  int
	levels []int16
}

// New returns an uninitialized SMS dispatcher.
func New() *Dispatcher { return &Dispatcher{} }

func (d *Dispatcher) Init(parent dispatch.Engine, _, rate int, flags dispatch.Config) int {
	sel := flags.Int("clockSel", 0)
	if sel < 0 || sel >= len(clocks) {
		modSMS.WarnZ("unsupported clock").Int("clockSel", sel).End()
		return 0
	}
	typ := flags.Int("chipType", 0)
	if typ < 0 || typ >= len(chipTypes) {
		modSMS.WarnZ("unsupported chip type").Int("chipType", typ).End()
		return 0
	}
	if rate <= 0 {
		modSMS.WarnZ("unsupported sample rate").Int("rate", rate).End()
		return 0
	}
	d.clock = clocks[sel]
	d.stereo = chipTypes[typ].stereo
	d.noPhaseReset = flags.Bool("noPhaseReset", false)

	d.Setup(modSMS, parent, NumChannels, rate, PoolSize, VolMax)
	d.psg = psg.New(chipTypes[typ].variant, d.clock, float64(rate), d.stereo)
	d.chunk = max(d.psg.MaxFrameSamples()-2, 1)
	d.levels = make([]int16, d.chunk)

	d.Reset()
	return NumChannels
}

func (d *Dispatcher) Reset() {
	d.ResetBase()
	for i := range d.chans {
		d.chans[i] = channel{}
		d.chans[i].Reset(VolMax)
	}
	d.tonePeriod = [3]int{-1, -1, -1}
	d.noiseOnTone2 = false
	d.psg.Reset()
}

// period converts a frequency to a 10-bit tone period.
func (d *Dispatcher) period(freq float64) int {
	if freq <= 0 {
		return 1023
	}
	return int(min(max(math.Floor(d.clock/(32*freq)), 1), 1023))
}

func (d *Dispatcher) Dispatch(c dispatch.Command) int {
	if c.Chan < 0 || c.Chan >= NumChannels {
		return dispatch.Ignored(c.Cmd)
	}
	ch := &d.chans[c.Chan]

	switch c.Cmd {
	case dispatch.CmdStdNoiseMode:
		if c.Chan != chanNoise {
			return 1
		}
		ch.duty = c.Value & 3
		ch.dutyCmd = true
		ch.FreqChanged = true
		return 1
	case dispatch.CmdPanning:
		ret, _ := d.Common(&ch.Channel, c)
		ch.panCmd = true
		return ret
	}

	ret, _ := d.Common(&ch.Channel, c)
	return ret
}

func (d *Dispatcher) ForceIns() {
	d.Base.ForceIns()
	d.tonePeriod = [3]int{-1, -1, -1}
	for i := range d.chans {
		d.chans[i].InsChanged = true
		d.chans[i].FreqChanged = true
		d.chans[i].VolChanged = true
	}
}

func (d *Dispatcher) NotifyInsDeletion(ins *dispatch.Instrument) {
	for i := range d.chans {
		d.DropInstrument(&d.chans[i].Channel, ins)
	}
}

// Poke writes a register directly. The tone period cache no longer matches
// the registers afterwards.
func (d *Dispatcher) Poke(addr uint16, val uint8) {
	d.Base.Poke(addr, val)
	d.tonePeriod = [3]int{-1, -1, -1}
}

func (d *Dispatcher) PokeList(ws []dispatch.RegWrite) {
	d.Base.PokeList(ws)
	d.tonePeriod = [3]int{-1, -1, -1}
}

func (d *Dispatcher) ChanState(ch int) (dispatch.ChanState, bool) {
	if ch < 0 || ch >= NumChannels {
		return dispatch.ChanState{}, false
	}
	c := &d.chans[ch]
	return c.State(map[string]int{"duty": c.duty}), true
}

func (d *Dispatcher) IsStereo() bool { return d.stereo }

// GetPan returns the Game Gear panning of a channel, left in the high byte.
func (d *Dispatcher) GetPan(ch int) uint16 {
	if !d.stereo || ch < 0 || ch >= NumChannels {
		return 0xffff
	}
	return uint16(d.chans[ch].PanL)<<8 | uint16(d.chans[ch].PanR)
}

// CoreState returns a snapshot of the PSG. Audio must be paused.
func (d *Dispatcher) CoreState() *snapshot.PSG {
	return d.psg.State()
}

// SetCoreState restores a PSG snapshot. Audio must be paused.
func (d *Dispatcher) SetCoreState(state *snapshot.PSG) {
	d.psg.SetState(state)
}

var sheet = []dispatch.SheetEntry{
	{Name: "TONE0_LO", Addr: 0x00},
	{Name: "TONE0_HI", Addr: 0x01},
	{Name: "TONE1_LO", Addr: 0x02},
	{Name: "TONE1_HI", Addr: 0x03},
	{Name: "TONE2_LO", Addr: 0x04},
	{Name: "TONE2_HI", Addr: 0x05},
	{Name: "NOISE", Addr: regNoise},
	{Name: "PHASE", Addr: regPhase},
	{Name: "ATTEN0", Addr: 0x08},
	{Name: "ATTEN1", Addr: 0x09},
	{Name: "ATTEN2", Addr: 0x0a},
	{Name: "ATTEN3", Addr: 0x0b},
	{Name: "STEREO", Addr: regStereo},
	{Name: "PORT", Addr: 0x0f},
}

func (d *Dispatcher) RegisterSheet() []dispatch.SheetEntry {
	return sheet
}

// checkTone2 hands tone channel 2 back to its own note once the noise
// channel stops using its period.
func (d *Dispatcher) checkTone2() {
	noise := &d.chans[chanNoise]
	owned := noise.Active && noise.duty&noiseToneFreq != 0
	if d.noiseOnTone2 && !owned {
		d.chans[2].FreqChanged = true
		d.tonePeriod[2] = -1
	}
	d.noiseOnTone2 = owned
}

func (d *Dispatcher) Tick(bool) {
	noise := &d.chans[chanNoise]
	var phase uint8

	d.checkTone2()

	for i := range d.chans {
		ch := &d.chans[i]
		ch.StdTick(VolMax)

		if v, ok := ch.Std.Get(macro.Duty); ok && !ch.dutyCmd && i == chanNoise {
			ch.duty = v & 3
			ch.FreqChanged = true
		}
		ch.dutyCmd = false

		if !ch.panCmd {
			if v, ok := ch.Std.Get(macro.PanL); ok {
				ch.PanL = v
			}
			if v, ok := ch.Std.Get(macro.PanR); ok {
				ch.PanR = v
			}
		}
		ch.panCmd = false

		if v, ok := ch.Std.Get(macro.PhaseReset); ok && v != 0 {
			phase |= 1 << i
		}

		atten := uint8(15)
		if ch.Active {
			atten = uint8(VolMax - ch.OutVol)
		}
		d.WriteIfChanged(regAtten+uint16(i), atten)

		if ch.KeyOn && !d.noPhaseReset {
			phase |= 1 << i
		}

		if ch.FreqChanged || ch.KeyOn {
			if i == chanNoise {
				d.tickNoise(ch)
			} else if i != 2 || noise.duty&noiseToneFreq == 0 || !noise.Active {
				ch.Freq = d.period(ch.Frequency())
				d.writeTone(i, ch.Freq)
			}
			ch.FreqChanged = false
		}

		ch.KeyOn = false
		ch.KeyOff = false
		ch.VolChanged = false
		ch.InsChanged = false
	}
	// duty macros switch the noise mode after tone 2 was handled
	d.checkTone2()

	if d.stereo {
		var stereo uint8
		for i := range d.chans {
			if d.chans[i].PanL > 0 {
				stereo |= 0x10 << i
			}
			if d.chans[i].PanR > 0 {
				stereo |= 1 << i
			}
		}
		d.WriteIfChanged(regStereo, stereo)
	}
	if phase != 0 {
		d.Write(regPhase, phase)
	}
}

func (d *Dispatcher) writeTone(i, period int) {
	if d.tonePeriod[i] == period {
		return
	}
	d.tonePeriod[i] = period
	// The high byte commits the period.
	lo := uint16(regTone + 2*i)
	d.Write(lo, uint8(period))
	d.Write(lo+1, uint8(period>>8))
}

// tickNoise sets the noise control register. In tone frequency mode the note
// is played through the period of tone channel 2, otherwise it selects one
// of the 3 fixed rates.
func (d *Dispatcher) tickNoise(ch *channel) {
	note := ch.Linear() / dispatch.PitchUnits
	ctrl := uint8(0)
	if ch.duty&noiseWhite != 0 {
		ctrl |= 0x04
	}
	if ch.duty&noiseToneFreq != 0 {
		ctrl |= 0x03
		ch.Freq = d.period(ch.Frequency())
		d.writeTone(2, ch.Freq)
	} else {
		ch.Freq = 2 - ((note%3)+3)%3
		ctrl |= uint8(ch.Freq)
	}
	d.WriteIfChanged(regNoise, ctrl)
}

func (d *Dispatcher) Acquire(buf []int16, n int) {
	d.Drain(d.psg.Write)
	for ch := range NumChannels {
		d.psg.SetMute(ch, d.Muted(ch))
	}

	for done := 0; done < n; {
		chunk := min(n-done, d.chunk)
		if need := chunk - d.psg.SamplesAvailable(); need > 0 {
			d.psg.Run(d.psg.ClocksNeeded(need))
			d.psg.EndFrame()
		}
		got := d.psg.ReadSamples(buf[2*done:], chunk)
		for ch := range NumChannels {
			d.psg.ChannelLevels(ch, d.levels[:got])
			for _, l := range d.levels[:got] {
				d.Osc(ch, l)
			}
		}
		if got == 0 {
			clear(buf[2*done : 2*n])
			break
		}
		done += got
	}
}

var _ dispatch.Dispatcher = (*Dispatcher)(nil)
