// Package dummy implements a reference chip: up to 16 sawtooth voices with a
// decaying amplitude, used to test the dispatch layer and as a fallback for
// unsupported chips.
package dummy

import (
	"fmt"

	"github.com/1135975331/furnace/dispatch"
	"github.com/1135975331/furnace/emu/log"
	"github.com/1135975331/furnace/hw/hwio"
)

var modDummy = log.NewModule("dummy")

const (
	MaxChannels = 16
	VolMax      = 15
	PoolSize    = 0x40

	ampMax   = 64
	ampFloor = 16
	ampDecay = 3
)

// Per voice registers, at 4*channel.
const (
	regFreqL = iota // phase increment, low byte
	regFreqH        // phase increment, high byte
	regCtrl         // bit 7: key on, bits 0-3: volume
	regAmp          // amplitude, 0-64
	regsPerVoice
)

type channel struct {
	dispatch.Channel
	amp int
}

// voice holds the registers of a sawtooth generator.
type voice struct {
	FREQL hwio.Reg8
	FREQH hwio.Reg8
	CTRL  hwio.Reg8
	AMP   hwio.Reg8

	pos uint16
}

// Dispatcher drives the dummy chip.
type Dispatcher struct {
	dispatch.Base

	chans  []channel
	voices []voice
	regs   *hwio.Table
}

// New returns an uninitialized dummy dispatcher.
func New() *Dispatcher { return &Dispatcher{} }

func (d *Dispatcher) Init(parent dispatch.Engine, channels, rate int, flags dispatch.Config) int {
	channels = flags.Int("channels", channels)
	if channels < 1 || channels > MaxChannels {
		modDummy.WarnZ("unsupported channel count").Int("channels", channels).End()
		return 0
	}
	if rate <= 0 {
		rate = 65536
	}
	d.Setup(modDummy, parent, channels, rate, PoolSize, VolMax)

	d.chans = make([]channel, channels)
	d.voices = make([]voice, channels)
	d.regs = hwio.NewTable("dummy", PoolSize)
	for i := range d.voices {
		v := &d.voices[i]
		v.FREQL.Name = fmt.Sprintf("FREQL%d", i)
		v.FREQH.Name = fmt.Sprintf("FREQH%d", i)
		v.CTRL.Name = fmt.Sprintf("CTRL%d", i)
		v.AMP.Name = fmt.Sprintf("AMP%d", i)
		base := uint16(i * regsPerVoice)
		d.regs.MapReg8(base+regFreqL, &v.FREQL)
		d.regs.MapReg8(base+regFreqH, &v.FREQH)
		d.regs.MapReg8(base+regCtrl, &v.CTRL)
		d.regs.MapReg8(base+regAmp, &v.AMP)
	}

	d.Reset()
	return channels
}

func (d *Dispatcher) Reset() {
	d.ResetBase()
	for i := range d.chans {
		d.chans[i].Reset(VolMax)
		d.chans[i].amp = 0
	}
	for i := range d.voices {
		v := &d.voices[i]
		v.FREQL.Value, v.FREQH.Value, v.CTRL.Value, v.AMP.Value = 0, 0, 0, 0
		v.pos = 0
	}
}

func (d *Dispatcher) Dispatch(c dispatch.Command) int {
	if c.Chan < 0 || c.Chan >= len(d.chans) {
		return dispatch.Ignored(c.Cmd)
	}
	ch := &d.chans[c.Chan]

	ret, _ := d.Common(&ch.Channel, c)
	if c.Cmd == dispatch.CmdNoteOn {
		ch.amp = ampMax
	}
	return ret
}

func (d *Dispatcher) Tick(bool) {
	for i := range d.chans {
		ch := &d.chans[i]
		base := uint16(i * regsPerVoice)

		ch.StdTick(VolMax)

		ch.amp = max(ch.amp-ampDecay, ampFloor)

		if ch.FreqChanged {
			inc := ch.Frequency() * 65536 / float64(d.Rate())
			ch.Freq = int(min(max(inc, 0), 0xffff))
			d.WriteIfChanged(base+regFreqL, hwio.Lo8(uint16(ch.Freq)))
			d.WriteIfChanged(base+regFreqH, hwio.Hi8(uint16(ch.Freq)))
			ch.FreqChanged = false
		}

		ctrl := uint8(ch.OutVol & 0x0f)
		if ch.Active {
			ctrl |= 0x80
		}
		d.WriteIfChanged(base+regCtrl, ctrl)
		d.WriteIfChanged(base+regAmp, uint8(ch.amp))

		ch.KeyOn = false
		ch.KeyOff = false
		ch.VolChanged = false
		ch.InsChanged = false
	}
}

func (d *Dispatcher) Acquire(buf []int16, n int) {
	d.Drain(d.regs.Write8)

	for i := range n {
		var sum int32
		for ch := range d.voices {
			v := &d.voices[ch]

			// the phase only runs while keyed on, muted or not
			var s int32
			if v.CTRL.Value&0x80 != 0 {
				if !d.Muted(ch) {
					s = int32(int16(v.pos)) * int32(v.AMP.Value) * int32(v.CTRL.Value&0x0f) >> 13
				}
				v.pos += uint16(v.FREQH.Value)<<8 | uint16(v.FREQL.Value)
			}
			d.Osc(ch, int16(s))
			sum += s
		}
		out := int16(min(max(sum, -32768), 32767))
		buf[2*i] = out
		buf[2*i+1] = out
	}
}

func (d *Dispatcher) ForceIns() {
	d.Base.ForceIns()
	for i := range d.chans {
		d.chans[i].InsChanged = true
		d.chans[i].FreqChanged = true
	}
}

func (d *Dispatcher) NotifyInsDeletion(ins *dispatch.Instrument) {
	for i := range d.chans {
		d.DropInstrument(&d.chans[i].Channel, ins)
	}
}

func (d *Dispatcher) ChanState(ch int) (dispatch.ChanState, bool) {
	if ch < 0 || ch >= len(d.chans) {
		return dispatch.ChanState{}, false
	}
	c := &d.chans[ch]
	return c.State(map[string]int{"amp": c.amp}), true
}

func (d *Dispatcher) RegisterSheet() []dispatch.SheetEntry {
	sheet := make([]dispatch.SheetEntry, 0, len(d.voices)*regsPerVoice)
	for i := range d.voices {
		v := &d.voices[i]
		base := uint16(i * regsPerVoice)
		sheet = append(sheet,
			dispatch.SheetEntry{Name: v.FREQL.Name, Addr: base + regFreqL},
			dispatch.SheetEntry{Name: v.FREQH.Name, Addr: base + regFreqH},
			dispatch.SheetEntry{Name: v.CTRL.Name, Addr: base + regCtrl},
			dispatch.SheetEntry{Name: v.AMP.Name, Addr: base + regAmp},
		)
	}
	return sheet
}

var _ dispatch.Dispatcher = (*Dispatcher)(nil)
