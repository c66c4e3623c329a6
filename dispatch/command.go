package dispatch

import (
	"fmt"
	"strings"
)

//go:generate go tool stringer -type=CmdType -trimprefix=Cmd

// CmdType is the type of a command sent by the sequencer to a dispatcher.
type CmdType uint8

const (
	CmdNoteOn          CmdType = iota // Value: note, or NoteNone to retrigger
	CmdNoteOff                        // hard key off
	CmdNoteOffEnv                     // key off with envelope release
	CmdEnvRelease                     // release macros only
	CmdInstrument                     // Value: instrument index
	CmdVolume                         // Value: volume
	CmdGetVolume                      // query
	CmdGetVolMax                      // query
	CmdNotePorta                      // Value: speed, Value2: target note
	CmdPitch                          // Value: pitch offset, 1/128 semitone
	CmdPanning                        // Value: left, Value2: right
	CmdLegato                         // Value: note
	CmdPrePorta                       // Value: in porta, Value2: reset porta
	CmdPreNote                        // Value: note about to be played
	CmdSampleMode                     // Value: 1 enables sample playback
	CmdSampleBank                     // Value: bank
	CmdSamplePos                      // Value: position
	CmdStdNoiseMode                   // Value: duty or noise mode
	CmdStdNoiseFreq                   // Value: noise frequency
	CmdWave                           // Value: wave index
	CmdNESSweep                       // Value: down, Value2: sweep byte
	CmdNESDMC                         // Value: DMC level
	CmdNESLength                      // Value: length counter index
	CmdNESEnvMode                     // Value: envelope mode bits
	CmdNESLinearLength                // Value: linear counter
	CmdMacroOff                       // Value: macro slot
	CmdMacroOn                        // Value: macro slot
	CmdMacroRestart                   // Value: macro slot
	CmdForceOff                       // silence without release
)

// NoteNone as the value of a NoteOn keeps the current note.
const NoteNone = 0x7fffffff

// NumCmds is the number of command types.
const NumCmds = int(CmdForceOff) + 1

// CmdByName returns the command whose String is name, ignoring case.
func CmdByName(name string) (CmdType, bool) {
	for c := range CmdType(NumCmds) {
		if strings.EqualFold(c.String(), name) {
			return c, true
		}
	}
	return 0, false
}

// IsQuery reports whether the command returns a value instead of a status.
func (c CmdType) IsQuery() bool {
	return c == CmdGetVolume || c == CmdGetVolMax
}

// Command is a musical command addressed to a channel of a dispatcher.
type Command struct {
	Cmd    CmdType
	Chan   int
	Value  int
	Value2 int
}

func (c Command) String() string {
	return fmt.Sprintf("%v(ch=%d, %d, %d)", c.Cmd, c.Chan, c.Value, c.Value2)
}

// Ignored is the result of a command a dispatcher does not handle.
func Ignored(c CmdType) int {
	if c.IsQuery() {
		return 0
	}
	return 1
}
