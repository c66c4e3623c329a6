// Package macro runs instrument macros: per-tick automation sequences driving
// channel parameters such as volume, arpeggio or duty cycle.
package macro

import "github.com/1135975331/furnace/emu/log"

// Slot identifies the parameter a macro drives.
type Slot uint8

const (
	Vol Slot = iota
	Arp
	Duty
	Wave
	Pitch
	PanL
	PanR
	PhaseReset
	Ex1
	Ex2
	Ex3

	NumSlots = 11
)

var slotNames = [NumSlots]string{
	"vol", "arp", "duty", "wave", "pitch", "panl", "panr", "phasereset", "ex1", "ex2", "ex3",
}

func (s Slot) String() string {
	if s < NumSlots {
		return slotNames[s]
	}
	return "invalid"
}

// SlotByName returns the slot with the given name.
func SlotByName(name string) (Slot, bool) {
	for i, n := range slotNames {
		if n == name {
			return Slot(i), true
		}
	}
	return 0, false
}

// None marks a missing loop or release point.
const None = -1

// Macro is a sequence of values played one step per tick (or per Speed
// ticks), after an initial Delay.
type Macro struct {
	Values  []int
	Loop    int // index to jump back to at the end, or None
	Release int // index of the sustain point, or None
	Speed   int // ticks per step, 0 behaves as 1
	Delay   int // ticks to wait before the first step
}

// Seq returns a macro playing values once, without loop or release.
func Seq(values ...int) Macro {
	return Macro{Values: values, Loop: None, Release: None}
}

// Set holds an instrument's macros, one per slot. Slots with no values are
// inactive.
type Set [NumSlots]Macro

// Phase is the state of a macro slot.
type Phase uint8

const (
	Idle Phase = iota
	Playing
	Looping
	Released
	Stopped
)

var phaseNames = [...]string{"idle", "playing", "looping", "released", "stopped"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "invalid"
}

// SlotState is the externally visible state of a slot.
type SlotState struct {
	Phase  Phase
	Pos    int
	Val    int
	Had    bool
	Masked bool
}

type slot struct {
	m *Macro

	pos      int
	delay    int
	speedCnt int
	phase    Phase
	masked   bool

	val  int
	had  bool
	seen bool
}

func (s *slot) arm(m *Macro) {
	masked := s.masked
	*s = slot{masked: masked}
	if m == nil || len(m.Values) == 0 {
		return
	}
	s.m = m
	s.phase = Playing
	s.delay = m.Delay
}

func (s *slot) step(released bool) {
	s.had = false
	if s.m == nil || s.masked {
		return
	}
	switch s.phase {
	case Idle, Stopped:
		return
	}
	if s.delay > 0 {
		s.delay--
		return
	}
	if s.speedCnt > 0 {
		s.speedCnt--
		return
	}
	s.speedCnt = max(s.m.Speed, 1) - 1

	m := s.m
	s.val = m.Values[s.pos]
	s.had = true
	s.seen = true
	s.pos++

	if !released && m.Release >= 0 && s.pos > m.Release {
		if m.Loop >= 0 && m.Loop <= m.Release {
			s.pos = m.Loop
			s.phase = Looping
		} else {
			// sustain on the release point.
			s.pos = m.Release
		}
		return
	}

	if s.pos >= len(m.Values) {
		if m.Loop >= 0 && m.Loop < len(m.Values) && (m.Release < 0 || (released && m.Loop > m.Release)) {
			s.pos = m.Loop
			s.phase = Looping
			return
		}
		// hold the last value.
		s.pos = len(m.Values) - 1
		s.phase = Stopped
	}
}

func (s *slot) release() {
	if s.m == nil {
		return
	}
	switch s.phase {
	case Idle, Stopped:
		return
	}
	rel := s.m.Release
	if rel < 0 {
		return
	}
	s.phase = Released
	if s.pos <= rel {
		if rel+1 >= len(s.m.Values) {
			s.phase = Stopped
			return
		}
		s.pos = rel + 1
	}
}

// Interpreter plays the macros of one channel.
type Interpreter struct {
	slots    [NumSlots]slot
	set      *Set
	released bool
}

// Init arms every non-empty macro of set. A nil set leaves every slot idle.
// Masks survive Init.
func (in *Interpreter) Init(set *Set) {
	in.set = set
	in.released = false
	for i := range in.slots {
		var m *Macro
		if set != nil {
			m = &set[i]
		}
		in.slots[i].arm(m)
	}
}

// Next advances every active slot by one tick.
func (in *Interpreter) Next() {
	for i := range in.slots {
		in.slots[i].step(in.released)
	}
}

// Release triggers the release of every slot having a release point.
func (in *Interpreter) Release() {
	in.released = true
	for i := range in.slots {
		in.slots[i].release()
	}
	log.ModMacro.DebugZ("macro release").End()
}

// Restart rewinds a slot to its first step.
func (in *Interpreter) Restart(s Slot) {
	if s >= NumSlots {
		return
	}
	var m *Macro
	if in.set != nil {
		m = &in.set[s]
	}
	in.slots[s].arm(m)
}

// Mask disables (or re-enables) a slot. A masked slot produces no value.
func (in *Interpreter) Mask(s Slot, masked bool) {
	if s >= NumSlots {
		return
	}
	in.slots[s].masked = masked
}

// Get returns the last value of a slot, and whether the slot produced it on
// the last tick.
func (in *Interpreter) Get(s Slot) (val int, had bool) {
	if s >= NumSlots {
		return 0, false
	}
	return in.slots[s].val, in.slots[s].had
}

// Last returns the last value of a slot, and whether the slot produced any
// value since it was armed.
func (in *Interpreter) Last(s Slot) (val int, ok bool) {
	if s >= NumSlots {
		return 0, false
	}
	return in.slots[s].val, in.slots[s].seen
}

// Val returns the last value of a slot.
func (in *Interpreter) Val(s Slot) int {
	v, _ := in.Get(s)
	return v
}

// Had reports whether a slot produced a value on the last tick.
func (in *Interpreter) Had(s Slot) bool {
	_, had := in.Get(s)
	return had
}

// Active reports whether a slot is armed and not stopped.
func (in *Interpreter) Active(s Slot) bool {
	if s >= NumSlots {
		return false
	}
	switch in.slots[s].phase {
	case Playing, Looping, Released:
		return !in.slots[s].masked
	}
	return false
}

// Phase returns the state of a slot.
func (in *Interpreter) Phase(s Slot) Phase {
	if s >= NumSlots {
		return Idle
	}
	return in.slots[s].phase
}

// HasRelease reports whether any armed macro has a release point.
func (in *Interpreter) HasRelease() bool {
	for i := range in.slots {
		if m := in.slots[i].m; m != nil && m.Release >= 0 {
			return true
		}
	}
	return false
}

// Uses reports whether the interpreter was initialized from set.
func (in *Interpreter) Uses(set *Set) bool {
	return set != nil && in.set == set
}

// State returns the state of every slot.
func (in *Interpreter) State() [NumSlots]SlotState {
	var st [NumSlots]SlotState
	for i, s := range in.slots {
		st[i] = SlotState{
			Phase:  s.phase,
			Pos:    s.pos,
			Val:    s.val,
			Had:    s.had,
			Masked: s.masked,
		}
	}
	return st
}
