// Package script loads song scripts: TOML files describing a system, its
// instruments and samples, and the commands to play.
//
//	system = "nes"
//	tickRate = 60
//
//	[[instruments]]
//	name = "lead"
//	[instruments.macros.vol]
//	values = [15, 12, 10, 8]
//	release = 2
//
//	[[events]]
//	tick = 0
//	chan = 0
//	note = "A-4"
package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/1135975331/furnace/dispatch"
	"github.com/1135975331/furnace/dispatch/macro"
	"github.com/1135975331/furnace/emu/log"
	"github.com/1135975331/furnace/sample"
	"github.com/1135975331/furnace/system"
)

var ErrScript = errors.New("invalid script")

// Script is a loaded song. It implements system.Song.
type Script struct {
	Def    system.Def
	Bank   *dispatch.Bank
	Events []system.Event // sorted by tick
	Length int            // in ticks
}

type file struct {
	System      string       `toml:"system"`
	Chips       []chipFile   `toml:"chips"`
	TickRate    float64      `toml:"tickRate"`
	Length      int          `toml:"length"`
	Instruments []insFile    `toml:"instruments"`
	Samples     []sampleFile `toml:"samples"`
	Events      []eventFile  `toml:"events"`
}

type chipFile struct {
	ID     string   `toml:"id"`
	Volume *float64 `toml:"volume"`
	Pan    float64  `toml:"pan"`
	Flags  string   `toml:"flags"`
}

type macroFile struct {
	Values  []int `toml:"values"`
	Loop    *int  `toml:"loop"`
	Release *int  `toml:"release"`
	Speed   int   `toml:"speed"`
	Delay   int   `toml:"delay"`
}

type insFile struct {
	Name   string               `toml:"name"`
	Volume *int                 `toml:"volume"`
	Sample *int                 `toml:"sample"`
	Macros map[string]macroFile `toml:"macros"`
}

type sampleFile struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
	Rate int    `toml:"rate"`
	Loop *int   `toml:"loop"`
}

type eventFile struct {
	Tick   int    `toml:"tick"`
	Chip   int    `toml:"chip"`
	Chan   int    `toml:"chan"`
	Cmd    string `toml:"cmd"`
	Note   string `toml:"note"`
	Value  int    `toml:"value"`
	Value2 int    `toml:"value2"`
}

// Load reads a script. Sample paths are relative to the script directory.
func Load(path string) (*Script, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load script: %w", err)
	}
	s, err := Parse(string(buf), filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse parses a script. dir is the directory sample paths are relative to.
func Parse(data, dir string) (*Script, error) {
	var f file
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScript, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("%w: unknown keys %v", ErrScript, undec)
	}

	s := &Script{Bank: &dispatch.Bank{Rate: f.TickRate}}
	if s.Def, err = f.def(); err != nil {
		return nil, err
	}
	for i, fi := range f.Instruments {
		ins, err := fi.instrument(i)
		if err != nil {
			return nil, err
		}
		s.Bank.Instruments = append(s.Bank.Instruments, ins)
	}
	for i, fs := range f.Samples {
		smp, err := fs.load(dir)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		s.Bank.Samples = append(s.Bank.Samples, smp)
	}
	for i, fe := range f.Events {
		ev, err := fe.event(len(s.Def.Chips))
		if err != nil {
			return nil, fmt.Errorf("%w: event %d: %w", ErrScript, i, err)
		}
		s.Events = append(s.Events, ev)
	}
	slices.SortStableFunc(s.Events, func(a, b system.Event) int { return a.Tick - b.Tick })

	s.Length = f.Length
	if s.Length <= 0 {
		// One second of tail after the last event.
		s.Length = int(s.Bank.TickRate())
		if n := len(s.Events); n > 0 {
			s.Length += s.Events[n-1].Tick + 1
		}
	}

	log.ModSound.InfoZ("script loaded").
		String("system", s.Def.ID).
		Int("instruments", len(s.Bank.Instruments)).
		Int("samples", len(s.Bank.Samples)).
		Int("events", len(s.Events)).
		Int("ticks", s.Length).
		End()
	return s, nil
}

func (f *file) def() (system.Def, error) {
	switch {
	case f.System != "" && len(f.Chips) > 0:
		return system.Def{}, fmt.Errorf("%w: both system and chips are set", ErrScript)
	case f.System != "":
		return system.Preset(f.System)
	case len(f.Chips) == 0:
		return system.Def{}, fmt.Errorf("%w: no system", ErrScript)
	}

	def := system.Def{ID: "custom", Name: "Custom system"}
	for _, c := range f.Chips {
		vol := 1.0
		if c.Volume != nil {
			vol = *c.Volume
		}
		def.Chips = append(def.Chips, system.ChipDef{ID: c.ID, Volume: vol, Pan: c.Pan, Flags: c.Flags})
	}
	return def, nil
}

func orNone(p *int) int {
	if p == nil {
		return macro.None
	}
	return *p
}

func (fi *insFile) instrument(idx int) (*dispatch.Instrument, error) {
	ins := dispatch.NewInstrument(fi.Name)
	if fi.Volume != nil {
		ins.Volume = *fi.Volume
	}
	ins.Sample = orNone(fi.Sample)
	for name, fm := range fi.Macros {
		slot, ok := macro.SlotByName(strings.ToLower(name))
		if !ok {
			return nil, fmt.Errorf("%w: instrument %d: unknown macro %q", ErrScript, idx, name)
		}
		m := macro.Macro{
			Values:  fm.Values,
			Loop:    orNone(fm.Loop),
			Release: orNone(fm.Release),
			Speed:   fm.Speed,
			Delay:   fm.Delay,
		}
		if m.Loop >= len(m.Values) || m.Release >= len(m.Values) {
			return nil, fmt.Errorf("%w: instrument %d: macro %s: loop or release past the end", ErrScript, idx, name)
		}
		ins.Macros[slot] = m
	}
	return ins, nil
}

func (fs *sampleFile) load(dir string) (*dispatch.Sample, error) {
	path := fs.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	smp, err := sample.Load(path)
	if err != nil {
		return nil, err
	}
	if fs.Name != "" {
		smp.Name = fs.Name
	}
	if fs.Rate > 0 {
		smp.Rate = fs.Rate
	}
	smp.Loop = orNone(fs.Loop)
	return smp, nil
}

func (fe *eventFile) event(nchips int) (system.Event, error) {
	if fe.Tick < 0 {
		return system.Event{}, fmt.Errorf("negative tick %d", fe.Tick)
	}
	if fe.Chip < 0 || fe.Chip >= nchips {
		return system.Event{}, fmt.Errorf("chip %d out of range", fe.Chip)
	}

	c := dispatch.Command{Chan: fe.Chan, Value: fe.Value, Value2: fe.Value2}
	switch {
	case fe.Cmd != "":
		cmd, ok := dispatch.CmdByName(fe.Cmd)
		if !ok {
			return system.Event{}, fmt.Errorf("unknown command %q", fe.Cmd)
		}
		c.Cmd = cmd
	case fe.Note != "":
		c.Cmd = dispatch.CmdNoteOn
	default:
		return system.Event{}, errors.New("no command")
	}
	if fe.Note != "" {
		note, err := ParseNote(fe.Note)
		if err != nil {
			return system.Event{}, err
		}
		c.Value = note
	}
	return system.Event{Tick: fe.Tick, Chip: fe.Chip, Cmd: c}, nil
}

// Events returns the events of tick t.
func (s *Script) Events(t int) ([]system.Event, bool) {
	if t >= s.Length {
		return nil, false
	}
	lo, _ := slices.BinarySearchFunc(s.Events, t, func(ev system.Event, t int) int { return ev.Tick - t })
	hi := lo
	for hi < len(s.Events) && s.Events[hi].Tick == t {
		hi++
	}
	return s.Events[lo:hi], true
}
