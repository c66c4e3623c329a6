package dispatch

import "github.com/1135975331/furnace/dispatch/macro"

// Shared is the chip-independent state of a channel.
type Shared struct {
	Freq           int // chip native value (period or phase increment)
	BaseFreq       int // linear pitch of the note, see NoteLinear
	Pitch          int // pitch offset set by CmdPitch
	Pitch2         int // pitch offset accumulated by the pitch macro
	Arp            int // arpeggio offset in semitones
	PortaPauseFreq int
	Note           int
	Ins            int // instrument index, -1 for none
	Vol            int
	OutVol         int // volume after macros
	PanL, PanR     int

	Active      bool
	KeyOn       bool
	KeyOff      bool
	InPorta     bool
	PortaPause  bool
	InsChanged  bool
	FreqChanged bool
	VolChanged  bool
	HardReset   bool
}

// Channel is the base channel embedded by chip channels.
type Channel struct {
	Shared
	Std macro.Interpreter
}

// Reset puts the channel back to its power-on state.
func (c *Channel) Reset(volMax int) {
	*c = Channel{}
	c.Ins = -1
	c.Vol = volMax
	c.OutVol = volMax
	c.PanL = 0xff
	c.PanR = 0xff
	c.Std.Init(nil)
}

// Linear returns the effective linear pitch of the channel.
func (c *Channel) Linear() int {
	return c.BaseFreq + c.Arp*PitchUnits + c.Pitch + c.Pitch2
}

// Frequency returns the effective frequency of the channel, in Hz.
func (c *Channel) Frequency() float64 {
	return LinearFrequency(c.Linear())
}

// ScaleVolume scales vol by a volume macro value.
func ScaleVolume(vol, mac, volMax int) int {
	if volMax <= 0 {
		return 0
	}
	return min(max(vol*mac/volMax, 0), volMax)
}

// StdTick advances the channel macros and applies the volume, arpeggio and
// pitch ones.
func (c *Channel) StdTick(volMax int) {
	c.Std.Next()
	if v, ok := c.Std.Get(macro.Vol); ok {
		c.OutVol = ScaleVolume(c.Vol, v, volMax)
		c.VolChanged = true
	}
	if v, ok := c.Std.Get(macro.Arp); ok && !c.InPorta {
		c.Arp = v
		c.FreqChanged = true
	}
	if v, ok := c.Std.Get(macro.Pitch); ok {
		c.Pitch2 += v
		c.FreqChanged = true
	}
}

func (c *Channel) updateOutVol(volMax int) {
	if v, ok := c.Std.Last(macro.Vol); ok {
		c.OutVol = ScaleVolume(c.Vol, v, volMax)
	} else {
		c.OutVol = c.Vol
	}
	c.VolChanged = true
}

// portaStep is the pitch change per tick and per unit of portamento speed.
const portaStep = PitchUnits / 32

// Porta slides the base pitch toward the target note, by speed steps. It
// returns true once the target is reached.
func (c *Channel) Porta(target, speed int) bool {
	dest := NoteLinear(target)
	step := max(speed, 0) * portaStep
	done := false
	switch {
	case c.BaseFreq < dest:
		c.BaseFreq += step
		done = c.BaseFreq >= dest
	case c.BaseFreq > dest:
		c.BaseFreq -= step
		done = c.BaseFreq <= dest
	default:
		done = true
	}
	if done {
		c.BaseFreq = dest
		c.Note = target
	}
	c.FreqChanged = true
	return done
}

// State returns a snapshot of the channel. extra holds chip specific values.
func (c *Channel) State(extra map[string]int) ChanState {
	return ChanState{
		Shared: c.Shared,
		Macros: c.Std.State(),
		Extra:  extra,
	}
}

// ChanState is a snapshot of a channel, for debugging and tests.
type ChanState struct {
	Shared
	Macros [macro.NumSlots]macro.SlotState
	Extra  map[string]int
}

// Common handles the commands whose effect on the channel state is the same
// for every chip. It returns the command result and whether cmd was handled.
// Commands only change c; registers are written by the chip on the next tick.
func (b *Base) Common(c *Channel, cmd Command) (int, bool) {
	volMax := b.volMax
	switch cmd.Cmd {
	case CmdNoteOn:
		if cmd.Value != NoteNone {
			c.BaseFreq = NoteLinear(cmd.Value)
			c.Note = cmd.Value
			c.FreqChanged = true
		}
		c.Active = true
		c.KeyOn = true
		c.KeyOff = false
		c.Pitch2 = 0
		ins := b.Instrument(c.Ins)
		c.Std.Init(macros(ins))
		if ins != nil && ins.Volume >= 0 {
			c.Vol = min(ins.Volume, volMax)
		}
		c.OutVol = c.Vol
		c.VolChanged = true
		return 1, true
	case CmdNoteOff, CmdForceOff:
		c.Active = false
		c.KeyOn = false
		c.KeyOff = true
		c.Std.Init(nil)
		return 1, true
	case CmdNoteOffEnv:
		c.Active = false
		c.KeyOn = false
		c.KeyOff = true
		c.Std.Release()
		return 1, true
	case CmdEnvRelease:
		c.Std.Release()
		return 1, true
	case CmdInstrument:
		if c.Ins != cmd.Value || c.InsChanged {
			c.Ins = cmd.Value
			c.InsChanged = true
		}
		return 1, true
	case CmdVolume:
		vol := min(max(cmd.Value, 0), volMax)
		if c.Vol != vol {
			c.Vol = vol
			c.updateOutVol(volMax)
		}
		return 1, true
	case CmdGetVolume:
		return c.Vol, true
	case CmdGetVolMax:
		return volMax, true
	case CmdNotePorta:
		if c.Porta(cmd.Value2, cmd.Value) {
			c.PortaPause = false
			return 2, true
		}
		return 1, true
	case CmdPitch:
		c.Pitch = cmd.Value
		c.FreqChanged = true
		return 1, true
	case CmdLegato:
		c.BaseFreq = NoteLinear(cmd.Value)
		c.Note = cmd.Value
		c.FreqChanged = true
		return 1, true
	case CmdPrePorta:
		if c.Active && cmd.Value2 != 0 {
			c.Std.Init(macros(b.Instrument(c.Ins)))
		}
		c.InPorta = cmd.Value != 0
		if c.InPorta {
			c.PortaPauseFreq = c.BaseFreq
		}
		return 1, true
	case CmdPreNote:
		return 1, true
	case CmdPanning:
		c.PanL = min(max(cmd.Value, 0), 0xff)
		c.PanR = min(max(cmd.Value2, 0), 0xff)
		return 1, true
	case CmdMacroOff:
		c.Std.Mask(macro.Slot(cmd.Value), true)
		return 1, true
	case CmdMacroOn:
		c.Std.Mask(macro.Slot(cmd.Value), false)
		return 1, true
	case CmdMacroRestart:
		c.Std.Restart(macro.Slot(cmd.Value))
		return 1, true
	}
	return Ignored(cmd.Cmd), false
}

func macros(ins *Instrument) *macro.Set {
	if ins == nil {
		return nil
	}
	return &ins.Macros
}
