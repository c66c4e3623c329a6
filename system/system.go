// Package system groups chip dispatchers into a system, routes commands to
// them and mixes their output.
package system

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/1135975331/furnace/chips"
	"github.com/1135975331/furnace/dispatch"
	"github.com/1135975331/furnace/emu/log"
	"github.com/1135975331/furnace/reglog"
)

var modSystem = log.NewModule("system")

// Event is a command sent to a chip of the system at a given tick.
type Event struct {
	Tick int
	Chip int
	Cmd  dispatch.Command
}

// Song provides the events of each tick.
type Song interface {
	// Events returns the events of tick t. more is false once t is past
	// the end of the song.
	Events(t int) (events []Event, more bool)
}

// System is a set of chips sharing a sample rate and a sequencer.
type System struct {
	def    Def
	eng    dispatch.Engine
	rate   int
	chips  []dispatch.Dispatcher
	gains  [][2]float64
	first  []int // global index of the first channel of each chip
	nchans int

	bufs   [][]int16
	tracks []*reglog.Track

	tickLen float64 // samples per tick
	acc     float64
	tick    int
}

// New opens every chip of def.
func New(def Def, eng dispatch.Engine, rate int) (*System, error) {
	if len(def.Chips) == 0 {
		return nil, fmt.Errorf("system %q has no chips", def.ID)
	}
	if eng == nil {
		eng = (*dispatch.Bank)(nil)
	}
	s := &System{def: def.Clone(), eng: eng, rate: rate}
	for i, cd := range def.Chips {
		flags, err := dispatch.ParseConfig(cd.Flags)
		if err != nil {
			s.Quit()
			return nil, fmt.Errorf("chip %d (%s): %w", i, cd.ID, err)
		}
		d, err := chips.Open(cd.ID, eng, 0, rate, flags)
		if err != nil {
			s.Quit()
			return nil, fmt.Errorf("chip %d: %w", i, err)
		}
		l, r := cd.gains()
		s.chips = append(s.chips, d)
		s.gains = append(s.gains, [2]float64{l, r})
		s.first = append(s.first, s.nchans)
		s.nchans += d.Channels()
	}
	s.bufs = make([][]int16, len(s.chips))
	s.tickLen = float64(rate) / eng.TickRate()

	modSystem.InfoZ("system opened").
		String("id", def.ID).
		Int("chips", len(s.chips)).
		Int("channels", s.nchans).
		Int("rate", rate).
		End()
	return s, nil
}

// Def returns the definition of the system.
func (s *System) Def() Def { return s.def.Clone() }

// Rate returns the output sample rate.
func (s *System) Rate() int { return s.rate }

// Chips returns the number of chips.
func (s *System) Chips() int { return len(s.chips) }

// Chip returns chip i.
func (s *System) Chip(i int) dispatch.Dispatcher { return s.chips[i] }

// Channels returns the total number of channels.
func (s *System) Channels() int { return s.nchans }

// Route maps a global channel index to a chip and one of its channels.
func (s *System) Route(ch int) (chip, local int, ok bool) {
	if ch < 0 || ch >= s.nchans {
		return 0, 0, false
	}
	for i := len(s.first) - 1; i >= 0; i-- {
		if ch >= s.first[i] {
			return i, ch - s.first[i], true
		}
	}
	return 0, 0, false
}

// Dispatch sends c to chip. Commands to an unknown chip are ignored.
func (s *System) Dispatch(chip int, c dispatch.Command) int {
	if chip < 0 || chip >= len(s.chips) {
		modSystem.DebugZ("command to unknown chip").Int("chip", chip).Stringer("cmd", c).End()
		return dispatch.Ignored(c.Cmd)
	}
	return s.chips[chip].Dispatch(c)
}

// DispatchGlobal sends c to the chip owning global channel c.Chan.
func (s *System) DispatchGlobal(c dispatch.Command) int {
	chip, local, ok := s.Route(c.Chan)
	if !ok {
		return dispatch.Ignored(c.Cmd)
	}
	c.Chan = local
	return s.chips[chip].Dispatch(c)
}

// MuteChannel mutes a global channel.
func (s *System) MuteChannel(ch int, mute bool) {
	if chip, local, ok := s.Route(ch); ok {
		s.chips[chip].MuteChannel(local, mute)
	}
}

// Tick runs a sequencer tick on every chip.
func (s *System) Tick() {
	for _, d := range s.chips {
		d.Tick(true)
	}
	s.tick++
}

// TickSamples returns the number of samples to render for the tick just
// run, carrying the fractional part over to the next tick.
func (s *System) TickSamples() int {
	s.acc += s.tickLen
	n := int(s.acc)
	s.acc -= float64(n)
	return n
}

// Acquire renders n interleaved stereo frames of every chip and mixes them
// into buf.
func (s *System) Acquire(buf []int16, n int) {
	for i, d := range s.chips {
		if cap(s.bufs[i]) < 2*n {
			s.bufs[i] = make([]int16, 2*n)
		}
		s.bufs[i] = s.bufs[i][:2*n]
		d.Acquire(s.bufs[i], n)
	}
	for j := range n {
		var l, r float64
		for i, b := range s.bufs {
			l += float64(b[2*j]) * s.gains[i][0]
			r += float64(b[2*j+1]) * s.gains[i][1]
		}
		buf[2*j] = clamp16(l)
		buf[2*j+1] = clamp16(r)
	}
}

func clamp16(v float64) int16 {
	return int16(max(math.MinInt16, min(math.MaxInt16, math.Round(v))))
}

// Record captures every register write into rec, one track per chip.
func (s *System) Record(rec *reglog.Recorder) {
	s.tracks = s.tracks[:0]
	for i, d := range s.chips {
		t := rec.Track(i)
		s.tracks = append(s.tracks, t)
		d.CaptureWrites(t.Capture)
	}
}

// StopRecording removes the capture hooks.
func (s *System) StopRecording() {
	for _, d := range s.chips {
		d.CaptureWrites(nil)
	}
	s.tracks = nil
}

// ChipIDs returns the chip id of each chip.
func (s *System) ChipIDs() []string {
	ids := make([]string, len(s.def.Chips))
	for i, c := range s.def.Chips {
		ids[i] = c.ID
	}
	return ids
}

// Step applies the events of the next tick, runs it and renders its audio.
// It returns the rendered frames, which are only valid until the next call,
// and false once the song has ended.
func (s *System) Step(song Song, out []int16) ([]int16, bool) {
	events, more := song.Events(s.tick)
	if !more {
		return nil, false
	}
	for _, ev := range events {
		s.Dispatch(ev.Chip, ev.Cmd)
	}
	s.Tick()

	n := s.TickSamples()
	if cap(out) < 2*n {
		out = make([]int16, 2*n)
	}
	out = out[:2*n]
	s.Acquire(out, n)
	for _, t := range s.tracks {
		t.Advance()
	}
	return out, true
}

// Render plays song for at most maxTicks ticks (no limit if maxTicks <= 0),
// passing the audio of each tick to fn.
func (s *System) Render(ctx context.Context, song Song, maxTicks int, fn func(frames []int16) error) error {
	var buf []int16
	for maxTicks <= 0 || s.tick < maxTicks {
		if err := ctx.Err(); err != nil {
			return err
		}
		frames, more := s.Step(song, buf)
		if !more {
			break
		}
		buf = frames
		if err := fn(frames); err != nil {
			return err
		}
	}
	return nil
}

// Reset resets every chip and rewinds the sequencer. Audio must be paused.
func (s *System) Reset() {
	for _, d := range s.chips {
		d.Reset()
	}
	s.tick = 0
	s.acc = 0
}

// Quit releases the chips. Audio must be stopped.
func (s *System) Quit() {
	for _, d := range s.chips {
		d.Quit()
	}
}

// chipSong filters the events of a single chip.
type chipSong struct {
	song Song
	chip int
}

func (c chipSong) Events(t int) ([]Event, bool) {
	events, more := c.song.Events(t)
	var out []Event
	for _, ev := range events {
		if ev.Chip == c.chip {
			ev.Chip = 0
			out = append(out, ev)
		}
	}
	return out, more
}

// RenderStems renders each chip of def separately and in parallel, and
// returns one interleaved stereo stream per chip.
func RenderStems(ctx context.Context, def Def, eng dispatch.Engine, rate int, song Song, maxTicks int) ([][]int16, error) {
	stems := make([][]int16, len(def.Chips))
	g, ctx := errgroup.WithContext(ctx)
	for i, cd := range def.Chips {
		g.Go(func() error {
			sub := Def{ID: fmt.Sprintf("%s#%d", def.ID, i), Name: def.Name, Chips: []ChipDef{cd}}
			s, err := New(sub, eng, rate)
			if err != nil {
				return err
			}
			defer s.Quit()
			return s.Render(ctx, chipSong{song: song, chip: i}, maxTicks, func(frames []int16) error {
				stems[i] = append(stems[i], frames...)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stems, nil
}
