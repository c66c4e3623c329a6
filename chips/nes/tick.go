package nes

import (
	"math"

	"github.com/1135975331/furnace/dispatch"
	"github.com/1135975331/furnace/dispatch/macro"
)

// period converts a frequency to a timer period of a channel dividing the
// clock by div.
func period(clock, freq, div float64) int {
	if freq <= 0 {
		return 0x7ff
	}
	p := math.Round(clock/(div*freq) - 1)
	return int(min(max(p, 0), 0x7ff))
}

// noiseIndex returns the noise period index playing note.
func noiseIndex(note int) int {
	return 15 - (note & 15)
}

func (d *Dispatcher) Tick(bool) {
	for i := range chanDPCM {
		d.tickTone(i)
	}
	d.tickDPCM()
}

func (d *Dispatcher) tickTone(i int) {
	ch := &d.chans[i]
	base := uint16(i * 4)

	ch.StdTick(VolMax)
	if v, ok := ch.Std.Get(macro.Duty); ok && !ch.dutyCmd {
		if i == chanNoise {
			ch.duty = v & 1
			ch.FreqChanged = true
		} else {
			ch.duty = v & 3
		}
		ch.VolChanged = true
	}
	ch.dutyCmd = false

	if ch.sweepChanged {
		d.Write(base+1, ch.sweep)
		ch.sweepChanged = false
	}

	// volume
	if i == chanTriangle {
		var lin uint8
		if ch.Active && ch.OutVol > 0 {
			lin = uint8(ch.linear)
		}
		d.WriteIfChanged(0x08, lin)
	} else {
		vol := ch.OutVol
		if !ch.Active {
			vol = 0
		}
		reg := uint8(ch.envMode<<4 | vol&0x0f)
		if i != chanNoise {
			reg |= uint8(ch.duty << 6)
		}
		d.WriteIfChanged(base, reg)
	}

	if ch.FreqChanged || ch.KeyOn {
		switch i {
		case chanNoise:
			note := floorDiv(ch.Linear(), dispatch.PitchUnits)
			ch.Freq = noiseIndex(note)
			d.WriteIfChanged(0x0e, uint8(ch.duty<<7|ch.Freq))
			if ch.KeyOn {
				d.Write(0x0f, uint8(ch.length<<3))
			}
		default:
			div := 16.0
			if i == chanTriangle {
				div = 32
			}
			ch.Freq = period(d.clock, ch.Frequency(), div)
			d.WriteIfChanged(base+2, uint8(ch.Freq))
			hi := ch.Freq >> 8
			if ch.KeyOn || hi != ch.prevHi {
				d.Write(base+3, uint8(ch.length<<3|hi))
				ch.prevHi = hi
			}
		}
		ch.FreqChanged = false
	}

	ch.KeyOn = false
	ch.KeyOff = false
	ch.VolChanged = false
	ch.InsChanged = false
}

func (d *Dispatcher) tickDPCM() {
	ch := &d.chans[chanDPCM]
	ch.StdTick(VolMax)

	if ch.dmcChanged {
		d.Write(regDMCRaw, uint8(ch.dmcLevel))
		ch.dmcChanged = false
	}

	switch {
	case ch.KeyOn:
		e, ok := d.dpcm.entry(ch.sample)
		if !ok {
			modNES.DebugZ("no DPCM sample").Int("sample", ch.sample).End()
			break
		}
		var flags uint8
		if d.dpcmLoop || e.loop {
			flags |= 0x40
		}
		rate := e.rateIndex(d.clock, ch.Frequency()/dispatch.NoteFrequency(60))
		start, length := e.regs(ch.sampleOff)
		d.Write(regDMCFreq, flags|uint8(rate))
		d.Write(regDMCStart, start)
		d.Write(regDMCLen, length)
		// Restart playback: disabling clears the bytes left.
		d.Write(regStatus, 0x0f)
		d.Write(regStatus, 0x1f)
		ch.Freq = rate
	case ch.KeyOff:
		d.Write(regStatus, 0x0f)
	}

	ch.KeyOn = false
	ch.KeyOff = false
	ch.FreqChanged = false
	ch.VolChanged = false
	ch.InsChanged = false
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
