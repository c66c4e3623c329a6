package dispatch

import "github.com/1135975331/furnace/dispatch/macro"

// Instrument describes how a channel sounds: its initial volume, its macros
// and, for sample-capable channels, the sample it plays.
type Instrument struct {
	Name string

	// Volume is applied on note on. A negative volume keeps the channel
	// volume.
	Volume int

	// Sample is the index of the sample played by DPCM channels, or -1.
	Sample int

	Macros macro.Set
}

// NewInstrument returns an instrument with no macros, keeping the channel
// volume and playing no sample.
func NewInstrument(name string) *Instrument {
	ins := &Instrument{Name: name, Volume: -1, Sample: -1}
	for i := range ins.Macros {
		ins.Macros[i].Loop = macro.None
		ins.Macros[i].Release = macro.None
	}
	return ins
}

// Sample is signed 8-bit mono PCM.
type Sample struct {
	Name string
	Rate int
	Data []int8

	// Loop is the index playback restarts at when reaching the end, or -1.
	Loop int
}

// Engine is what dispatchers need from the tracker engine.
type Engine interface {
	Instrument(i int) *Instrument
	Sample(i int) *Sample
	TickRate() float64
}

// Bank is a simple Engine backed by slices.
type Bank struct {
	Instruments []*Instrument
	Samples     []*Sample
	Rate        float64 // ticks per second
}

// Instrument returns instrument i, or nil.
func (b *Bank) Instrument(i int) *Instrument {
	if b == nil || i < 0 || i >= len(b.Instruments) {
		return nil
	}
	return b.Instruments[i]
}

// Sample returns sample i, or nil.
func (b *Bank) Sample(i int) *Sample {
	if b == nil || i < 0 || i >= len(b.Samples) {
		return nil
	}
	return b.Samples[i]
}

// TickRate returns the sequencer tick rate, 60Hz by default.
func (b *Bank) TickRate() float64 {
	if b == nil || b.Rate <= 0 {
		return 60
	}
	return b.Rate
}
