package dispatch

import (
	"testing"

	"github.com/1135975331/furnace/dispatch/macro"
	"github.com/1135975331/furnace/emu/log"
)

func newTestBase(bank *Bank) *Base {
	var b Base
	b.Setup(log.ModDispatch, bank, 2, 44100, 0x10, 15)
	return &b
}

func TestCommonNoteOnGetVolume(t *testing.T) {
	b := newTestBase(nil)
	var c Channel
	c.Reset(15)

	b.Common(&c, Command{Cmd: CmdVolume, Value: 9})
	if ret, _ := b.Common(&c, Command{Cmd: CmdNoteOn, Value: 60}); ret != 1 {
		t.Errorf("NoteOn returned %d", ret)
	}
	if v, _ := b.Common(&c, Command{Cmd: CmdGetVolume}); v != 9 {
		t.Errorf("GetVolume = %d, want 9", v)
	}
	if v, _ := b.Common(&c, Command{Cmd: CmdGetVolMax}); v != 15 {
		t.Errorf("GetVolMax = %d, want 15", v)
	}
	if !c.Active || !c.KeyOn || c.BaseFreq != 60*PitchUnits {
		t.Errorf("channel after note on: %+v", c.Shared)
	}
}

func TestCommonVolumeClamp(t *testing.T) {
	b := newTestBase(nil)
	var c Channel
	c.Reset(15)
	b.Common(&c, Command{Cmd: CmdVolume, Value: 99})
	if c.Vol != 15 || c.OutVol != 15 {
		t.Errorf("vol = %d, outvol = %d, want 15", c.Vol, c.OutVol)
	}
}

func TestCommonInstrumentVolumeMacro(t *testing.T) {
	ins := NewInstrument("ramp")
	ins.Volume = 12
	ins.Macros[macro.Vol] = macro.Seq(15, 5)
	bank := &Bank{Instruments: []*Instrument{ins}}
	b := newTestBase(bank)

	var c Channel
	c.Reset(15)
	b.Common(&c, Command{Cmd: CmdInstrument, Value: 0})
	b.Common(&c, Command{Cmd: CmdNoteOn, Value: 48})

	c.StdTick(15)
	if c.OutVol != 12 {
		t.Errorf("outvol after tick 1 = %d, want 12", c.OutVol)
	}
	c.StdTick(15)
	if c.OutVol != 4 {
		t.Errorf("outvol after tick 2 = %d, want 4", c.OutVol)
	}

	// A volume change keeps scaling by the last macro value.
	b.Common(&c, Command{Cmd: CmdVolume, Value: 6})
	if c.OutVol != 2 {
		t.Errorf("outvol after volume change = %d, want 2", c.OutVol)
	}
}

func TestCommonUnknownCommand(t *testing.T) {
	b := newTestBase(nil)
	var c Channel
	c.Reset(15)
	if ret, ok := b.Common(&c, Command{Cmd: CmdNESSweep}); ok || ret != 1 {
		t.Errorf("NESSweep = (%d, %t), want (1, false)", ret, ok)
	}
	if ret, ok := b.Common(&c, Command{Cmd: CmdType(200)}); ok || ret != 1 {
		t.Errorf("unknown = (%d, %t), want (1, false)", ret, ok)
	}
}

func TestPorta(t *testing.T) {
	var c Channel
	c.Reset(15)
	c.BaseFreq = NoteLinear(60)

	ticks := 0
	for !c.Porta(62, 16) {
		ticks++
		if ticks > 100 {
			t.Fatalf("porta never reached its target")
		}
	}
	// 2 semitones at 16*4 units per tick.
	if ticks != 3 {
		t.Errorf("porta took %d ticks, want 3", ticks)
	}
	if c.BaseFreq != NoteLinear(62) || c.Note != 62 {
		t.Errorf("porta ended at %d (note %d)", c.BaseFreq, c.Note)
	}
}

func TestNoteFrequency(t *testing.T) {
	if f := NoteFrequency(69); f < 439.99 || f > 440.01 {
		t.Errorf("NoteFrequency(69) = %f, want 440", f)
	}
	if f := LinearFrequency(NoteLinear(57)); f < 219.99 || f > 220.01 {
		t.Errorf("LinearFrequency(A3) = %f, want 220", f)
	}
}

func TestCmdTypeString(t *testing.T) {
	if s := CmdNoteOn.String(); s != "NoteOn" {
		t.Errorf("CmdNoteOn.String() = %q", s)
	}
	if s := CmdForceOff.String(); s != "ForceOff" {
		t.Errorf("CmdForceOff.String() = %q", s)
	}
	if s := CmdType(99).String(); s != "CmdType(99)" {
		t.Errorf("CmdType(99).String() = %q", s)
	}
}

func TestCmdByName(t *testing.T) {
	for c := range CmdType(NumCmds) {
		got, ok := CmdByName(c.String())
		if !ok || got != c {
			t.Errorf("CmdByName(%q) = %v, %v", c.String(), got, ok)
		}
	}
	if c, ok := CmdByName("nessweep"); !ok || c != CmdNESSweep {
		t.Errorf("CmdByName(nessweep) = %v, %v", c, ok)
	}
	if _, ok := CmdByName("Nope"); ok {
		t.Errorf("CmdByName(Nope) succeeded")
	}
}
